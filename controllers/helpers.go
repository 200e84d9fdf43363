package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Nehimi/myBlog/middleware"
	"github.com/Nehimi/myBlog/models"
)

func currentUserID(ctx *gin.Context) (primitive.ObjectID, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}
	hex, ok := value.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func isAdmin(ctx *gin.Context) bool {
	value, exists := ctx.Get(middleware.ContextRoleKey)
	if !exists {
		return false
	}
	role, _ := value.(string)
	return role == models.RoleAdmin
}

func parsePagination(pageStr, limitStr string, defaultLimit int) (int, int) {
	page := 1
	limit := defaultLimit
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

func paginationPayload(page, limit int, total int64) gin.H {
	return gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": (total + int64(limit) - 1) / int64(limit),
	}
}

// loadAuthorSummaries batch-resolves author projections for a set of user ids.
// Unresolvable authors are simply absent from the returned map; callers decide
// how to surface them.
func loadAuthorSummaries(ctx context.Context, users *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorSummary, error) {
	out := make(map[primitive.ObjectID]models.AuthorSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	cursor, err := users.Find(ctx, bson.M{"_id": bson.M{"$in": unique}},
		options.Find().SetProjection(bson.M{
			"username": 1, "firstName": 1, "lastName": 1, "avatar": 1,
		}))
	if err != nil {
		return nil, err
	}

	var summaries []models.AuthorSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

// duplicateKeyField maps a mongo duplicate-key error to the conflicting
// field name, so the response can name it.
func duplicateKeyField(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, field := range []string{"email", "username", "slug", "publicId"} {
		if strings.Contains(msg, field) {
			return field, true
		}
	}
	return "field", true
}

// toggleLikeSet flips membership of userID in a like set, returning the new
// set and whether the user is now a member.
func toggleLikeSet(likes []primitive.ObjectID, userID primitive.ObjectID) ([]primitive.ObjectID, bool) {
	for i, id := range likes {
		if id == userID {
			return append(likes[:i:i], likes[i+1:]...), false
		}
	}
	return append(likes[:len(likes):len(likes)], userID), true
}

// toggleUpdate builds the atomic update applying a like toggle outcome,
// keeping the stored likesCount in step with the like set.
func toggleUpdate(userID primitive.ObjectID, liked bool) bson.M {
	if liked {
		return bson.M{
			"$addToSet": bson.M{"likes": userID},
			"$inc":      bson.M{"likesCount": 1},
		}
	}
	return bson.M{
		"$pull": bson.M{"likes": userID},
		"$inc":  bson.M{"likesCount": -1},
	}
}

// normalizeTags lowercases, trims and de-duplicates a tag list.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// splitTagParam parses a comma separated tag query parameter.
func splitTagParam(raw string) []string {
	return normalizeTags(strings.Split(raw, ","))
}
