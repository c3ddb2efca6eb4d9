package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ontostore/internal/ir"
)

func TestErrorMessage(t *testing.T) {
	col := &Column{Name: "Label", Table: "Effect", Type: ir.TypeString, Cardinality: Unique}

	assert.Equal(t, "UNKNOWN_TABLE: table is not registered (Effect)", NewUnknownTable("Effect").Error())
	assert.Equal(t, "UNKNOWN_COLUMN: column is not declared (Effect.Label)", NewUnknownColumn("Effect", "Label").Error())
	assert.Equal(t, "TYPE_MISMATCH: column holds string, got int (Effect.Label)", NewTypeMismatch(col, "int").Error())
	assert.Equal(t, "CARDINALITY_MISMATCH: Insert is not valid on a unique column (Effect.Label)", NewCardinalityMismatch(col, "Insert").Error())
	assert.Equal(t, "REGISTRY_FROZEN: registry is frozen", newError(ErrCodeFrozen, "", "", "registry is frozen").Error())
}

func TestIsCodeWrapped(t *testing.T) {
	err := fmt.Errorf("register: %w", NewUnknownTable("X"))
	assert.True(t, IsCode(err, ErrCodeUnknownTable))
	assert.False(t, IsCode(err, ErrCodeUnknownColumn))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeUnknownTable))
	assert.False(t, IsCode(nil, ErrCodeUnknownTable))
}
