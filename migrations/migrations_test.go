package migrations

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketsCollection_NeverCascades(t *testing.T) {
	users := core.NewBaseCollection("users")
	concerts := core.NewBaseCollection("concerts")

	collection := ticketsCollection(users, concerts)

	for _, name := range []string{"user", "concert"} {
		field, ok := collection.Fields.GetByName(name).(*core.RelationField)
		require.True(t, ok, "%s must be a relation", name)
		assert.False(t, field.CascadeDelete, "deleting a %s must keep ticket rows", name)
		assert.True(t, field.Required)
	}
}

func TestTicketsCollection_UniquePerUserAndConcert(t *testing.T) {
	collection := ticketsCollection(core.NewBaseCollection("users"), core.NewBaseCollection("concerts"))

	var index string
	for _, idx := range collection.Indexes {
		if strings.Contains(idx, "idx_tickets_user_concert") {
			index = idx
		}
	}
	require.NotEmpty(t, index)
	assert.Contains(t, index, "UNIQUE")
}
