package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestToggleLikeSetAddsNewMember(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	likes, liked := toggleLikeSet([]primitive.ObjectID{a}, b)
	assert.True(t, liked)
	assert.Equal(t, []primitive.ObjectID{a, b}, likes)
}

func TestToggleLikeSetRemovesExistingMember(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	likes, liked := toggleLikeSet([]primitive.ObjectID{a, b}, a)
	assert.False(t, liked)
	assert.Equal(t, []primitive.ObjectID{b}, likes)
}

func TestToggleLikeSetDoubleToggleRestoresSet(t *testing.T) {
	a := primitive.NewObjectID()
	user := primitive.NewObjectID()
	original := []primitive.ObjectID{a}

	likes, liked := toggleLikeSet(original, user)
	require.True(t, liked)
	likes, liked = toggleLikeSet(likes, user)
	require.False(t, liked)
	assert.Equal(t, original, likes)
}

func TestToggleLikeSetDoesNotMutateInput(t *testing.T) {
	a := primitive.NewObjectID()
	user := primitive.NewObjectID()
	original := []primitive.ObjectID{a}

	_, _ = toggleLikeSet(original, user)
	assert.Equal(t, []primitive.ObjectID{a}, original)
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, limit  string
		wantP, wantL int
	}{
		{"", "", 1, 10},
		{"3", "25", 3, 25},
		{"0", "0", 1, 10},
		{"-1", "-5", 1, 10},
		{"abc", "xyz", 1, 10},
		{"2", "500", 2, 10}, // above cap keeps the default
	}
	for _, tc := range cases {
		p, l := parsePagination(tc.page, tc.limit, 10)
		assert.Equal(t, tc.wantP, p, "page=%q", tc.page)
		assert.Equal(t, tc.wantL, l, "limit=%q", tc.limit)
	}
}

func TestPaginationPayload(t *testing.T) {
	payload := paginationPayload(2, 10, 31)
	assert.Equal(t, 2, payload["page"])
	assert.Equal(t, 10, payload["limit"])
	assert.Equal(t, int64(31), payload["total"])
	assert.Equal(t, int64(4), payload["pages"])

	payload = paginationPayload(1, 10, 0)
	assert.Equal(t, int64(0), payload["pages"])
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" Go ", "go", "MongoDB", "", "  ", "gin"})
	assert.Equal(t, []string{"go", "mongodb", "gin"}, got)
}

func TestSplitTagParam(t *testing.T) {
	got := splitTagParam("Go, mongodb ,,GIN")
	assert.Equal(t, []string{"go", "mongodb", "gin"}, got)
}

func TestDuplicateKeyField(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: myblog.users index: email_1 dup key`,
	}}}

	field, ok := duplicateKeyField(dup)
	assert.True(t, ok)
	assert.Equal(t, "email", field)

	_, ok = duplicateKeyField(assert.AnError)
	assert.False(t, ok)
}
