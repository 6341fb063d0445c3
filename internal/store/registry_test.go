package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "pizza-palace", "cafe42", "a-b-c", "x9"}
	for _, slug := range valid {
		assert.True(t, ValidSlug(slug), slug)
	}

	invalid := []string{
		"",
		"-pizza",
		"pizza-",
		"Pizza",
		"pizza_palace",
		"pizza palace",
		"pizza.palace",
		"abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijabcdefghijabcd", // 64 chars
	}
	for _, slug := range invalid {
		assert.False(t, ValidSlug(slug), slug)
	}
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "posdb_pizza-palace", DatabaseName("pizza-palace"))
}

func TestEntityDescriptorsCoverAllEntities(t *testing.T) {
	entities := Entities()
	assert.Len(t, entities, len(entityDescriptors))

	seen := make(map[string]Entity, len(entities))
	for _, e := range entities {
		desc, ok := entityDescriptors[e]
		require.True(t, ok, "entity %s has no descriptor", e)
		require.NotEmpty(t, desc.collection, "entity %s has no collection name", e)
		if prev, dup := seen[desc.collection]; dup {
			t.Fatalf("entities %s and %s share collection %s", prev, e, desc.collection)
		}
		seen[desc.collection] = e
	}
}

func TestTableEntityEnforcesUniqueNumbers(t *testing.T) {
	desc := entityDescriptors[EntityTables]
	require.NotEmpty(t, desc.indexes)

	unique := false
	for _, idx := range desc.indexes {
		if idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
			unique = true
		}
	}
	assert.True(t, unique, "tables need a unique index for merge-group numbering")
}
