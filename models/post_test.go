package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusDraft))
	assert.True(t, ValidStatus(StatusPublished))
	assert.True(t, ValidStatus(StatusArchived))
	assert.False(t, ValidStatus("deleted"))
	assert.False(t, ValidStatus(""))
}

func TestWithAuthorReplacesAuthorInJSON(t *testing.T) {
	post := BlogPost{
		ID:     primitive.NewObjectID(),
		Title:  "a post",
		Author: primitive.NewObjectID(),
	}
	summary := AuthorSummary{ID: post.Author, Username: "gopher"}

	b, err := json.Marshal(post.WithAuthor(&summary))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))

	author, ok := decoded["author"].(map[string]interface{})
	require.True(t, ok, "author must serialize as an object")
	assert.Equal(t, "gopher", author["username"])
}

func TestUserJSONNeverLeaksPasswordHash(t *testing.T) {
	u := User{
		ID:           primitive.NewObjectID(),
		Username:     "gopher",
		Email:        "gopher@example.com",
		PasswordHash: "bcrypt-hash",
	}

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "bcrypt-hash")
}

func TestIsAdmin(t *testing.T) {
	admin := User{Role: RoleAdmin}
	author := User{Role: RoleAuthor}
	assert.True(t, admin.IsAdmin())
	assert.False(t, author.IsAdmin())
}
