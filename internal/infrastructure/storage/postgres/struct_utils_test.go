package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

type timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type mockPart struct {
	timestamps
	ID       id.ID          `db:"id"`
	Code     string         `db:"code"`
	Name     string         `db:"name"`
	Qty      types.Quantity `db:"qty"`
	Internal string         `db:"-"`
	NoTag    string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockPart]()

	expected := []string{"created_at", "updated_at", "id", "code", "name", "qty"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	p := mockPart{
		timestamps: timestamps{CreatedAt: now, UpdatedAt: now},
		ID:         id.New(),
		Code:       "BRG-6204",
		Name:       "Ball bearing 6204",
		Qty:        types.Quantity(150),
		Internal:   "skip me",
		NoTag:      "skip me too",
	}

	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, "BRG-6204", m["code"])
	assert.Equal(t, "Ball bearing 6204", m["name"])
	assert.Equal(t, types.Quantity(150), m["qty"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "Internal")
	assert.NotContains(t, m, "NoTag")
	assert.Len(t, m, 6)
}

func TestStructToMapPointer(t *testing.T) {
	p := &mockPart{ID: id.New(), Code: "X"}
	m := StructToMap(p)
	assert.Equal(t, "X", m["code"])
}
