package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newFakeData())

	category, err := svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "Pizzas", SortOrder: 1})
	require.NoError(t, err)
	assert.True(t, category.IsActive)
	assert.False(t, category.ID.IsZero())

	_, err = svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "Pizzas"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "  "})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestListCategoriesOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newFakeData())

	for _, c := range []CreateCategoryRequest{
		{Name: "Drinks", SortOrder: 2},
		{Name: "Pizzas", SortOrder: 1},
		{Name: "Desserts", SortOrder: 2},
	} {
		_, err := svc.CreateCategory(ctx, testSlug, c)
		require.NoError(t, err)
	}

	categories, err := svc.ListCategories(ctx, testSlug)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Pizzas", categories[0].Name)
	assert.Equal(t, "Desserts", categories[1].Name)
	assert.Equal(t, "Drinks", categories[2].Name)
}

func TestCreateMenuItem(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newFakeData())

	category, err := svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "Pizzas"})
	require.NoError(t, err)

	item, err := svc.CreateMenuItem(ctx, testSlug, CreateMenuItemRequest{
		Name:       "Margherita",
		CategoryID: category.ID,
		Price:      9.5,
	})
	require.NoError(t, err)
	assert.True(t, item.IsAvailable)
	assert.Equal(t, category.ID, item.CategoryID)

	_, err = svc.CreateMenuItem(ctx, testSlug, CreateMenuItemRequest{
		Name:       "Orphan",
		CategoryID: primitive.NewObjectID(),
		Price:      1,
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.CreateMenuItem(ctx, testSlug, CreateMenuItemRequest{
		Name:       "Freebie",
		CategoryID: category.ID,
		Price:      -1,
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestListMenuItemsByCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newFakeData())

	pizzas, err := svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "Pizzas"})
	require.NoError(t, err)
	drinks, err := svc.CreateCategory(ctx, testSlug, CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)

	for name, cat := range map[string]primitive.ObjectID{
		"Margherita": pizzas.ID,
		"Diavola":    pizzas.ID,
		"Cola":       drinks.ID,
	} {
		_, err := svc.CreateMenuItem(ctx, testSlug, CreateMenuItemRequest{Name: name, CategoryID: cat, Price: 5})
		require.NoError(t, err)
	}

	all, err := svc.ListMenuItems(ctx, testSlug, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyPizzas, err := svc.ListMenuItems(ctx, testSlug, &pizzas.ID)
	require.NoError(t, err)
	require.Len(t, onlyPizzas, 2)
	for _, item := range onlyPizzas {
		assert.Equal(t, pizzas.ID, item.CategoryID)
	}
}
