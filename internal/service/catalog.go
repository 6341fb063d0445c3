package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
)

// CatalogService manages the tenant's menu: categories and sellable items.
type CatalogService struct {
	catalog CatalogStore
}

func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

type CreateCategoryRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CreateCategory adds a menu category. Names are unique per tenant.
func (s *CatalogService) CreateCategory(ctx context.Context, slug string, req CreateCategoryRequest) (*model.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, Validation("category name is required")
	}
	category := &model.Category{
		Name:      req.Name,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if err := s.catalog.InsertCategory(ctx, slug, category); err != nil {
		if isDuplicate(err) {
			return nil, Conflict("category %s already exists", req.Name)
		}
		return nil, Infra(err, "cannot create category")
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, slug string) ([]model.Category, error) {
	categories, err := s.catalog.ListCategories(ctx, slug)
	if err != nil {
		return nil, Infra(err, "cannot list categories")
	}
	return categories, nil
}

type CreateMenuItemRequest struct {
	Name        string             `json:"name"`
	CategoryID  primitive.ObjectID `json:"category_id"`
	Price       float64            `json:"price"`
	Description string             `json:"description"`
}

// CreateMenuItem adds a sellable item under an existing category.
func (s *CatalogService) CreateMenuItem(ctx context.Context, slug string, req CreateMenuItemRequest) (*model.MenuItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, Validation("menu item name is required")
	}
	if req.Price < 0 {
		return nil, Validation("menu item price cannot be negative")
	}
	category, err := s.catalog.FindCategoryByID(ctx, slug, req.CategoryID)
	if err != nil {
		return nil, Infra(err, "cannot load category")
	}
	if category == nil {
		return nil, NotFound("category %s not found", req.CategoryID.Hex())
	}

	item := &model.MenuItem{
		Name:        req.Name,
		CategoryID:  category.ID,
		Price:       req.Price,
		Description: req.Description,
		IsAvailable: true,
	}
	if err := s.catalog.InsertMenuItem(ctx, slug, item); err != nil {
		return nil, Infra(err, "cannot create menu item")
	}
	return item, nil
}

// ListMenuItems returns the menu, optionally one category's slice of it.
func (s *CatalogService) ListMenuItems(ctx context.Context, slug string, categoryID *primitive.ObjectID) ([]model.MenuItem, error) {
	items, err := s.catalog.ListMenuItems(ctx, slug, categoryID)
	if err != nil {
		return nil, Infra(err, "cannot list menu items")
	}
	return items, nil
}
