package flatten

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestStrings_Scalars(t *testing.T) {
	assert.Empty(t, Strings(nil, 10))
	assert.Equal(t, []string{"hello"}, Strings("  hello  ", 10))
	assert.Empty(t, Strings("   ", 10))
	assert.Equal(t, []string{"42"}, Strings(float64(42), 10))
	assert.Equal(t, []string{"true"}, Strings(true, 10))
}

func TestStrings_NestedRecord(t *testing.T) {
	v := parse(t, `{
		"question": "chest pain on exertion",
		"options": {"A": "angina", "B": "reflux"},
		"tags": ["cardio", null, "  "],
		"score": 0.5
	}`)

	got := Strings(v, 100)

	// Keys are emitted before their values, keys sorted at each level.
	assert.Equal(t, []string{
		"options",
		"A", "angina",
		"B", "reflux",
		"question", "chest pain on exertion",
		"score", "0.5",
		"tags", "cardio",
	}, got)
}

func TestStrings_BudgetTruncatesDepthFirst(t *testing.T) {
	v := parse(t, `{"a": ["one", "two", "three"], "b": {"c": "four"}}`)

	got := Strings(v, 4)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"a", "one", "two", "three"}, got)

	// A larger budget continues the same depth-first order.
	assert.Equal(t, []string{"a", "one", "two", "three", "b", "c", "four"}, Strings(v, 100))
}

func TestStrings_BudgetStopsInsideMaps(t *testing.T) {
	v := parse(t, `{"a": "1", "b": "2", "c": "3"}`)
	got := Strings(v, 3)
	assert.Equal(t, []string{"a", "1", "b"}, got)
}

func TestText_JoinsWithSpaces(t *testing.T) {
	v := parse(t, `{"q": "heart", "a": "failure"}`)
	assert.Equal(t, "a failure q heart", Text(v, 10))
}

func TestStrings_ZeroMaxUsesDefault(t *testing.T) {
	v := parse(t, `["x", "y"]`)
	assert.Equal(t, []string{"x", "y"}, Strings(v, 0))
}
