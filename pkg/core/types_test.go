package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteBase(t *testing.T) {
	tests := []struct {
		name   string
		a, b   BaseType
		want   BaseType
		wantOK bool
	}{
		{"same", Text, Text, Text, true},
		{"integer to real", Integer, Real, Real, true},
		{"real to integer", Real, Integer, Real, true},
		{"null yields", Null, Text, Text, true},
		{"placeholder yields", Integer, PlaceholderType, Integer, true},
		{"unknown absorbs", Unknown, Text, Unknown, true},
		{"text vs integer", Text, Integer, Unknown, false},
		{"bool vs integer", Bool, Integer, Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PromoteBase(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUnionNullability(t *testing.T) {
	got, ok := Union(NotNull(Integer), Nullable(Real))
	require.True(t, ok)
	assert.Equal(t, Nullable(Real), got)

	got, ok = Union(NotNull(Integer), NotNull(Real))
	require.True(t, ok)
	assert.Equal(t, NotNull(Real), got)
}

func TestBaseTypeText(t *testing.T) {
	data, err := json.Marshal(NotNull(Integer))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"integer","nullable":false}`, string(data))

	var typ Type
	require.NoError(t, json.Unmarshal([]byte(`{"type":"real","nullable":true}`), &typ))
	assert.Equal(t, Nullable(Real), typ)

	_, err = ParseBaseType("decimal")
	assert.Error(t, err)
}

func TestColumnMandatory(t *testing.T) {
	assert.True(t, Column{Name: "a", Type: NotNull(Text)}.Mandatory())
	assert.False(t, Column{Name: "a", Type: NotNull(Text), HasDefault: true}.Mandatory())
	assert.False(t, Column{Name: "a", Type: Nullable(Text)}.Mandatory())
}

func TestTableColumnLookup(t *testing.T) {
	tbl := &Table{Name: "users", Columns: []Column{{Name: "ID"}, {Name: "name"}}}

	c, ok := tbl.Column("id")
	require.True(t, ok)
	assert.Equal(t, "ID", c.Name)

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"ID", "name"}, tbl.ColumnNames())
}
