package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSearchSort(t *testing.T) {
	sort := searchSort("relevance", "golang")
	require.Len(t, sort, 1)
	assert.Equal(t, "score", sort[0].Key)

	sort = searchSort("relevance", "")
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: -1}}, sort)

	assert.Equal(t, bson.D{{Key: "publishedAt", Value: 1}}, searchSort("oldest", ""))
	assert.Equal(t, bson.D{{Key: "views", Value: -1}}, searchSort("popular", ""))
	// Sorting on the likes array itself would order by element values, so
	// most_liked must use the stored counter.
	assert.Equal(t, bson.D{{Key: "likesCount", Value: -1}}, searchSort("most_liked", ""))
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: -1}}, searchSort("newest", ""))
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: -1}}, searchSort("bogus", ""))
}

func TestSearchProjection(t *testing.T) {
	projection := searchProjection("")
	assert.Equal(t, bson.M{"content": 0}, projection)

	projection = searchProjection("golang")
	assert.Contains(t, projection, "score")
}

func TestBuildDateRange(t *testing.T) {
	r := buildDateRange("2024-01-01", "2024-12-31")
	require.Len(t, r, 2)

	from := r["$gte"].(time.Time)
	to := r["$lte"].(time.Time)
	assert.Equal(t, 2024, from.Year())
	assert.Equal(t, time.January, from.Month())
	assert.Equal(t, time.December, to.Month())
	assert.True(t, to.After(from))

	assert.Empty(t, buildDateRange("", ""))
	assert.Empty(t, buildDateRange("not-a-date", "also-not"))

	r = buildDateRange("2024-06-01T12:00:00Z", "")
	require.Len(t, r, 1)
	assert.Equal(t, 12, r["$gte"].(time.Time).Hour())
}
