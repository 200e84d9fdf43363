package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Nehimi/myBlog/middleware"
	"github.com/Nehimi/myBlog/models"
)

func TestApplyStatusScopePublishedIsOpen(t *testing.T) {
	query := bson.M{"status": models.StatusPublished}
	ok := applyStatusScope(query, models.StatusPublished, primitive.NilObjectID, false, false)
	assert.True(t, ok)
	assert.NotContains(t, query, "author")
}

func TestApplyStatusScopeAnonymousCannotListDrafts(t *testing.T) {
	query := bson.M{"status": models.StatusDraft}
	ok := applyStatusScope(query, models.StatusDraft, primitive.NilObjectID, false, false)
	assert.False(t, ok)
}

func TestApplyStatusScopeAuthorSeesOwnDraftsOnly(t *testing.T) {
	userID := primitive.NewObjectID()
	query := bson.M{"status": models.StatusDraft, "author": primitive.NewObjectID()}

	ok := applyStatusScope(query, models.StatusDraft, userID, true, false)
	assert.True(t, ok)
	assert.Equal(t, userID, query["author"], "author filter pinned to the caller")
}

func TestApplyStatusScopeAdminListsAnyStatus(t *testing.T) {
	query := bson.M{"status": models.StatusArchived}
	ok := applyStatusScope(query, models.StatusArchived, primitive.NewObjectID(), true, true)
	assert.True(t, ok)
	assert.NotContains(t, query, "author")
}

func TestListBlogPostsAnonymousDraftStatusForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/blog?status=draft", nil)

	NewBlogController(nil).ListBlogPosts(ctx)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access denied")
}

func TestListBlogPostsInvalidStatusRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/blog?status=deleted", nil)

	NewBlogController(nil).ListBlogPosts(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleUpdateShape(t *testing.T) {
	userID := primitive.NewObjectID()

	update := toggleUpdate(userID, true)
	require.Contains(t, update, "$addToSet")
	assert.Equal(t, bson.M{"likes": userID}, update["$addToSet"])
	assert.Equal(t, bson.M{"likesCount": 1}, update["$inc"])
	assert.NotContains(t, update, "$pull")

	update = toggleUpdate(userID, false)
	require.Contains(t, update, "$pull")
	assert.Equal(t, bson.M{"likes": userID}, update["$pull"])
	assert.Equal(t, bson.M{"likesCount": -1}, update["$inc"])
	assert.NotContains(t, update, "$addToSet")
}

// The scope check must run with whatever identity the optional auth
// middleware attached, so a non-admin caller asking for drafts sees theirs.
func TestListScopeUsesContextIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := primitive.NewObjectID()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Set(middleware.ContextUserIDKey, userID.Hex())
	ctx.Set(middleware.ContextRoleKey, models.RoleAuthor)

	got, authed := currentUserID(ctx)
	require.True(t, authed)
	assert.Equal(t, userID, got)
	assert.False(t, isAdmin(ctx))
}
