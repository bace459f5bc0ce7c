package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAll_StableSort(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	items := []sample{
		{ID: "1", Count: 2},
		{ID: "2", Count: 1},
		{ID: "3", Count: 2},
		{ID: "4", Count: 1},
	}

	asc := FindAll(m, items, nil, Asc("count"))
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(asc))

	desc := FindAll(m, items, nil, Desc("count"))
	assert.Equal(t, []string{"1", "3", "2", "4"}, ids(desc))

	natural := FindAll(m, items, Where("count", 2), nil)
	assert.Equal(t, []string{"1", "3"}, ids(natural))
}

func TestFindAll_NullsOrdering(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	items := []sample{
		{ID: "a", Temp: floatPtr(10)},
		{ID: "b"},
		{ID: "c", Temp: floatPtr(5)},
	}

	assert.Equal(t, []string{"b", "c", "a"}, ids(FindAll(m, items, nil, Asc("temp"))))
	assert.Equal(t, []string{"a", "c", "b"}, ids(FindAll(m, items, nil, Desc("temp"))))
}

func TestFind(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	items := []sample{{ID: "1", Name: "x"}, {ID: "2", Name: "y"}, {ID: "3", Name: "y"}}

	got, ok := Find(m, items, Where("name", "y"))
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)

	_, ok = Find(m, items, Where("name", "z"))
	assert.False(t, ok)
}

func TestAggregateMax(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)

	t.Run("max over set values", func(t *testing.T) {
		items := []sample{{Temp: floatPtr(250)}, {Temp: floatPtr(2232)}, {}, {Temp: floatPtr(1200)}}
		v, ok := AggregateMax(m, items, nil, "temp")
		require.True(t, ok)
		assert.Equal(t, 2232.0, v)
	})

	t.Run("none when all null", func(t *testing.T) {
		_, ok := AggregateMax(m, []sample{{}, {}}, nil, "temp")
		assert.False(t, ok)
	})

	t.Run("none when empty", func(t *testing.T) {
		_, ok := AggregateMax(m, []sample(nil), nil, "count")
		assert.False(t, ok)
	})

	t.Run("respects filter", func(t *testing.T) {
		items := []sample{{Name: "a", Count: 9}, {Name: "b", Count: 3}}
		v, ok := AggregateMax(m, items, Where("name", "b"), "count")
		require.True(t, ok)
		assert.Equal(t, 3, v)
	})

	t.Run("times", func(t *testing.T) {
		early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		late := early.Add(time.Hour)
		v, ok := AggregateMax(m, []sample{{At: late}, {At: early}}, nil, "at")
		require.True(t, ok)
		assert.Equal(t, late, v)
	})
}

func TestProject(t *testing.T) {
	t.Parallel()

	rec := sample{ID: "1", Name: "Bowl", Notes: strPtr("n")}

	got := Project(rec, "id", "name", "unknown")
	assert.Equal(t, map[string]any{"id": "1", "name": "Bowl"}, got)

	all := Project(rec)
	assert.Len(t, all, 8)
	assert.Equal(t, "n", all["notes"])
	assert.Nil(t, all["temp"])
	assert.Contains(t, all, "temp", "null fields are present, not omitted")

	rows := ProjectAll([]sample{rec, {ID: "2"}}, "id")
	assert.Equal(t, []map[string]any{{"id": "1"}, {"id": "2"}}, rows)
}

type embedded struct {
	Base
	Title string `json:"title"`
	Skip  string `json:"-"`
}

type Base struct {
	ID string `json:"id"`
}

func TestFieldValue_EmbeddedAndPointers(t *testing.T) {
	t.Parallel()

	rec := &embedded{Base: Base{ID: "x"}, Title: "t", Skip: "hidden"}

	v, ok := FieldValue(rec, "id")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = FieldValue(rec, "Skip")
	assert.False(t, ok)

	assert.Equal(t, []string{"id", "title"}, FieldNames(rec))

	_, ok = FieldValue((*embedded)(nil), "id")
	assert.False(t, ok)
}

func ids(items []sample) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
