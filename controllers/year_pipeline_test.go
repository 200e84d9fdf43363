package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/models"
)

func stageValue(t *testing.T, stage bson.D, name string) interface{} {
	t.Helper()
	require.Len(t, stage, 1)
	require.Equal(t, name, stage[0].Key)
	return stage[0].Value
}

func TestBuildYearPipelineAllYears(t *testing.T) {
	pipeline := buildYearPipeline(nil)
	require.Len(t, pipeline, 8)

	match := stageValue(t, pipeline[0], "$match").(bson.D)
	require.Len(t, match, 1)
	assert.Equal(t, "status", match[0].Key)
	assert.Equal(t, models.StatusPublished, match[0].Value)

	stageValue(t, pipeline[1], "$sort")
	stageValue(t, pipeline[2], "$group")
	stageValue(t, pipeline[3], "$unwind")
	stageValue(t, pipeline[4], "$lookup")

	// Posts with a deleted author must survive the lookup.
	unwind := stageValue(t, pipeline[5], "$unwind").(bson.D)
	found := false
	for _, e := range unwind {
		if e.Key == "preserveNullAndEmptyArrays" {
			found = true
			assert.Equal(t, true, e.Value)
		}
	}
	assert.True(t, found, "author unwind must preserve empty arrays")

	sort := stageValue(t, pipeline[7], "$sort").(bson.D)
	require.Len(t, sort, 1)
	assert.Equal(t, "_id", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
}

func TestBuildYearPipelineWithYearFilter(t *testing.T) {
	year := 2024
	pipeline := buildYearPipeline(&year)

	match := stageValue(t, pipeline[0], "$match").(bson.D)
	require.Len(t, match, 2)
	assert.Equal(t, "$expr", match[1].Key)

	expr := match[1].Value.(bson.D)
	require.Len(t, expr, 1)
	assert.Equal(t, "$eq", expr[0].Key)
	operands := expr[0].Value.(bson.A)
	require.Len(t, operands, 2)
	assert.Equal(t, 2024, operands[1])
}

func TestFormatYearGroups(t *testing.T) {
	author := models.AuthorSummary{ID: primitive.NewObjectID(), Username: "gopher"}
	groups := []yearGroup{
		{
			Year:  2025,
			Count: 2,
			Posts: []yearPost{
				{Title: "a", Author: &author},
				{Title: "orphan", Author: &models.AuthorSummary{}},
			},
		},
		{Year: 2024, Count: 1, Posts: []yearPost{{Title: "b", Author: &author}}},
	}

	formatted, total := formatYearGroups(groups)
	assert.Equal(t, 3, total)
	require.Len(t, formatted, 2)
	assert.NotNil(t, formatted[0].Posts[0].Author)
	assert.Nil(t, formatted[0].Posts[1].Author, "unresolved author collapses to null")
}

func TestClassifyAggregationErrorTimeout(t *testing.T) {
	status, code, msg := classifyAggregationError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, 50401, code)
	assert.Contains(t, msg, "timeout")

	wrapped := mongo.CommandError{Message: "operation exceeded time limit", Labels: []string{"NetworkTimeoutError"}, Wrapped: context.DeadlineExceeded}
	status, _, _ = classifyAggregationError(wrapped)
	assert.Equal(t, http.StatusGatewayTimeout, status)
}

func TestClassifyAggregationErrorServer(t *testing.T) {
	status, code, msg := classifyAggregationError(mongo.CommandError{Code: 96, Message: "operation was interrupted"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, 50301, code)
	assert.Contains(t, msg, "database")
}

func TestClassifyAggregationErrorGeneric(t *testing.T) {
	status, code, _ := classifyAggregationError(errors.New("decode failure"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 50028, code)
}

func TestEstimateReadTime(t *testing.T) {
	assert.Equal(t, 1, estimateReadTime(""))
	assert.Equal(t, 1, estimateReadTime("short text"))

	words := make([]byte, 0, 201*5)
	for i := 0; i < 201; i++ {
		words = append(words, []byte("word ")...)
	}
	assert.Equal(t, 2, estimateReadTime(string(words)))
}

func TestAggregationTimeoutBound(t *testing.T) {
	assert.Equal(t, 8*time.Second, aggregationTimeout)
}
