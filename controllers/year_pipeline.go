package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/models"
	"github.com/Nehimi/myBlog/utils"
)

// aggregationTimeout bounds the grouped-by-year pipeline so a slow or
// partitioned database turns into a clean timeout response instead of a
// hung request.
const aggregationTimeout = 8 * time.Second

// buildYearPipeline assembles the published-posts-grouped-by-year pipeline.
// When year is non-nil the match stage restricts to that calendar year of
// publishedAt. Author resolution keeps posts whose author record is gone.
func buildYearPipeline(year *int) mongo.Pipeline {
	match := bson.D{{Key: "status", Value: models.StatusPublished}}
	if year != nil {
		match = append(match, bson.E{Key: "$expr", Value: bson.D{
			{Key: "$eq", Value: bson.A{
				bson.D{{Key: "$year", Value: "$publishedAt"}},
				*year,
			}},
		}})
	}

	postShape := bson.D{
		{Key: "_id", Value: "$_id"},
		{Key: "title", Value: "$title"},
		{Key: "slug", Value: "$slug"},
		{Key: "excerpt", Value: "$excerpt"},
		{Key: "featuredImage", Value: "$featuredImage"},
		{Key: "category", Value: "$category"},
		{Key: "tags", Value: "$tags"},
		{Key: "publishedAt", Value: "$publishedAt"},
		{Key: "readTime", Value: "$readTime"},
		{Key: "views", Value: "$views"},
		{Key: "likes", Value: bson.D{{Key: "$size", Value: "$likes"}}},
		{Key: "commentsCount", Value: "$commentsCount"},
		{Key: "author", Value: "$author"},
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "publishedAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$year", Value: "$publishedAt"}}},
			{Key: "posts", Value: bson.D{{Key: "$push", Value: postShape}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$unwind", Value: "$posts"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "posts.author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorData"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorData"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "posts", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "$mergeObjects", Value: bson.A{
					"$posts",
					bson.D{{Key: "author", Value: bson.D{
						{Key: "_id", Value: "$authorData._id"},
						{Key: "username", Value: "$authorData.username"},
						{Key: "firstName", Value: "$authorData.firstName"},
						{Key: "lastName", Value: "$authorData.lastName"},
						{Key: "avatar", Value: "$authorData.avatar"},
					}}},
				}},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$first", Value: "$count"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
}

// yearPost is the projected post shape emitted per year group.
type yearPost struct {
	ID            primitive.ObjectID    `bson:"_id" json:"id"`
	Title         string                `bson:"title" json:"title"`
	Slug          string                `bson:"slug" json:"slug"`
	Excerpt       string                `bson:"excerpt" json:"excerpt"`
	FeaturedImage string                `bson:"featuredImage" json:"featuredImage,omitempty"`
	Category      string                `bson:"category" json:"category"`
	Tags          []string              `bson:"tags" json:"tags"`
	PublishedAt   *time.Time            `bson:"publishedAt" json:"publishedAt"`
	ReadTime      int                   `bson:"readTime" json:"readTime"`
	Views         int64                 `bson:"views" json:"views"`
	Likes         int                   `bson:"likes" json:"likes"`
	CommentsCount int64                 `bson:"commentsCount" json:"commentsCount"`
	Author        *models.AuthorSummary `bson:"author" json:"author"`
}

type yearGroup struct {
	Year  int        `bson:"_id" json:"year"`
	Posts []yearPost `bson:"posts" json:"posts"`
	Count int        `bson:"count" json:"count"`
}

// formatYearGroups normalizes decoded year groups for the response: posts
// whose author record was unresolved carry an explicit null author.
func formatYearGroups(groups []yearGroup) ([]yearGroup, int) {
	total := 0
	for gi := range groups {
		total += groups[gi].Count
		for pi := range groups[gi].Posts {
			a := groups[gi].Posts[pi].Author
			if a != nil && a.ID.IsZero() {
				groups[gi].Posts[pi].Author = nil
			}
		}
	}
	return groups, total
}

// classifyAggregationError maps an aggregation failure to an HTTP status,
// envelope code and message.
func classifyAggregationError(err error) (int, int, string) {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return http.StatusGatewayTimeout, 50401, "request timeout - please try again"
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) || mongo.IsNetworkError(err) {
		return http.StatusServiceUnavailable, 50301, "database error - please try again later"
	}
	return http.StatusInternalServerError, 50028, "failed to group blog posts by year"
}

// GetBlogPostsByYear returns published posts grouped by publication year,
// newest year first. An unparseable year parameter yields an empty result
// rather than an error.
func (b *BlogController) GetBlogPostsByYear(ctx *gin.Context) {
	var year *int
	if raw := strings.TrimSpace(ctx.Query("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			utils.Success(ctx, gin.H{
				"blogPostsByYear": []yearGroup{},
				"totalYears":      0,
				"totalPosts":      0,
			})
			return
		}
		year = &y
	}

	rctx, cancel := context.WithTimeout(ctx.Request.Context(), aggregationTimeout)
	defer cancel()

	cursor, err := b.posts().Aggregate(rctx, buildYearPipeline(year))
	if err != nil {
		status, code, msg := classifyAggregationError(err)
		utils.Error(ctx, status, code, msg)
		return
	}

	var groups []yearGroup
	if err := cursor.All(rctx, &groups); err != nil {
		status, code, msg := classifyAggregationError(err)
		utils.Error(ctx, status, code, msg)
		return
	}

	groups, totalPosts := formatYearGroups(groups)
	if groups == nil {
		groups = []yearGroup{}
	}

	utils.Success(ctx, gin.H{
		"blogPostsByYear": groups,
		"totalYears":      len(groups),
		"totalPosts":      totalPosts,
	})
}
