package controllers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/models"
	"github.com/Nehimi/myBlog/utils"
)

const popularSearchCacheKey = "cache:search:popular"

// SearchController serves full-text search, typeahead suggestions and the
// popular-content summary.
type SearchController struct {
	db *mongo.Database
}

// NewSearchController creates a new SearchController instance.
func NewSearchController(db *mongo.Database) *SearchController {
	return &SearchController{db: db}
}

func (s *SearchController) posts() *mongo.Collection {
	return s.db.Collection(config.PostsCollection)
}

func (s *SearchController) users() *mongo.Collection {
	return s.db.Collection(config.UsersCollection)
}

// SearchBlogPosts runs a filtered, sortable search over published posts.
// Sorting by relevance requires a text query; without one it falls back to
// newest first.
func (s *SearchController) SearchBlogPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), 10)
	q := strings.TrimSpace(ctx.Query("q"))
	sortBy := ctx.DefaultQuery("sortBy", "relevance")

	query := bson.M{"status": models.StatusPublished}
	if q != "" {
		query["$text"] = bson.M{"$search": q}
	}
	if category := strings.ToLower(strings.TrimSpace(ctx.Query("category"))); category != "" {
		query["category"] = category
	}
	if tags := strings.TrimSpace(ctx.Query("tags")); tags != "" {
		query["tags"] = bson.M{"$in": splitTagParam(tags)}
	}

	rctx := ctx.Request.Context()

	if author := strings.TrimSpace(ctx.Query("author")); author != "" {
		var user models.User
		err := s.users().FindOne(rctx, bson.M{"username": author}).Decode(&user)
		if err != nil {
			// Unknown author means an empty result set, not an error.
			utils.Success(ctx, gin.H{
				"blogPosts":   []models.PostView{},
				"pagination":  paginationPayload(page, limit, 0),
				"searchQuery": q,
			})
			return
		}
		query["author"] = user.ID
	}

	if dateRange := buildDateRange(ctx.Query("dateFrom"), ctx.Query("dateTo")); len(dateRange) > 0 {
		query["publishedAt"] = dateRange
	}

	total, err := s.posts().CountDocuments(rctx, query)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "search failed")
		return
	}

	opts := options.Find().
		SetProjection(searchProjection(q)).
		SetSort(searchSort(sortBy, q)).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.posts().Find(rctx, query, opts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "search failed")
		return
	}
	var posts []models.BlogPost
	if err := cursor.All(rctx, &posts); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "search failed")
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.Author)
	}
	authors, err := loadAuthorSummaries(rctx, s.users(), authorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to resolve authors")
		return
	}
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		var summary *models.AuthorSummary
		if a, ok := authors[p.Author]; ok {
			a := a
			summary = &a
		}
		views = append(views, p.WithAuthor(summary))
	}

	categories, _ := s.posts().Distinct(rctx, "category", bson.M{"status": models.StatusPublished})
	tags, _ := s.posts().Distinct(rctx, "tags", bson.M{"status": models.StatusPublished})

	utils.Success(ctx, gin.H{
		"blogPosts":   views,
		"pagination":  paginationPayload(page, limit, total),
		"filters":     gin.H{"categories": categories, "tags": tags},
		"searchQuery": q,
	})
}

// searchSort maps a sortBy parameter to a mongo sort document. Relevance
// needs the text score; without a text query it degrades to newest first.
func searchSort(sortBy, q string) bson.D {
	switch sortBy {
	case "relevance":
		if q != "" {
			return bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}
		}
		return bson.D{{Key: "publishedAt", Value: -1}}
	case "oldest":
		return bson.D{{Key: "publishedAt", Value: 1}}
	case "popular":
		return bson.D{{Key: "views", Value: -1}}
	case "most_liked":
		return bson.D{{Key: "likesCount", Value: -1}}
	default: // newest
		return bson.D{{Key: "publishedAt", Value: -1}}
	}
}

func searchProjection(q string) bson.M {
	projection := bson.M{"content": 0}
	if q != "" {
		projection["score"] = bson.M{"$meta": "textScore"}
	}
	return projection
}

// buildDateRange parses RFC 3339 date bounds into a publishedAt range query.
// Unparseable bounds are ignored.
func buildDateRange(from, to string) bson.M {
	rangeQuery := bson.M{}
	if from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			rangeQuery["$gte"] = t
		} else if t, err := time.Parse("2006-01-02", from); err == nil {
			rangeQuery["$gte"] = t
		}
	}
	if to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			rangeQuery["$lte"] = t
		} else if t, err := time.Parse("2006-01-02", to); err == nil {
			rangeQuery["$lte"] = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return rangeQuery
}

// GetSearchSuggestions returns typeahead candidates once the query reaches
// two characters: matching titles, tags, categories and author usernames.
func (s *SearchController) GetSearchSuggestions(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if len(q) < 2 {
		utils.Success(ctx, gin.H{"suggestions": []gin.H{}})
		return
	}

	rctx := ctx.Request.Context()
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	suggestions := make([]gin.H, 0, 16)

	titleCursor, err := s.posts().Find(rctx,
		bson.M{"status": models.StatusPublished, "title": pattern},
		options.Find().SetProjection(bson.M{"title": 1, "slug": 1}).SetLimit(5))
	if err == nil {
		var titled []models.BlogPost
		if err := titleCursor.All(rctx, &titled); err == nil {
			for _, p := range titled {
				suggestions = append(suggestions, gin.H{"type": "title", "text": p.Title, "slug": p.Slug})
			}
		}
	}

	if tags, err := s.posts().Distinct(rctx, "tags",
		bson.M{"status": models.StatusPublished, "tags": pattern}); err == nil {
		for i, tag := range tags {
			if i == 5 {
				break
			}
			suggestions = append(suggestions, gin.H{"type": "tag", "text": tag})
		}
	}

	if categories, err := s.posts().Distinct(rctx, "category",
		bson.M{"status": models.StatusPublished, "category": pattern}); err == nil {
		for i, category := range categories {
			if i == 3 {
				break
			}
			suggestions = append(suggestions, gin.H{"type": "category", "text": category})
		}
	}

	authorCursor, err := s.users().Find(rctx,
		bson.M{"username": pattern},
		options.Find().SetProjection(bson.M{"username": 1}).SetLimit(3))
	if err == nil {
		var found []models.User
		if err := authorCursor.All(rctx, &found); err == nil {
			for _, u := range found {
				suggestions = append(suggestions, gin.H{"type": "author", "text": u.Username})
			}
		}
	}

	utils.Success(ctx, gin.H{"suggestions": suggestions})
}

// GetPopularSearches summarizes the most used categories and tags plus the
// latest published posts. The result is cached since it changes slowly.
func (s *SearchController) GetPopularSearches(ctx *gin.Context) {
	if cached, ok := utils.CacheGetBytes(popularSearchCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	rctx := ctx.Request.Context()

	categoryPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.StatusPublished}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 10}},
	}
	tagPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.StatusPublished}}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 15}},
	}

	type facetRow struct {
		Name  string `bson:"_id" json:"name"`
		Count int    `bson:"count" json:"count"`
	}

	var categories, tags []facetRow
	if cursor, err := s.posts().Aggregate(rctx, categoryPipeline); err == nil {
		if err := cursor.All(rctx, &categories); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
			return
		}
	} else {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
		return
	}
	if cursor, err := s.posts().Aggregate(rctx, tagPipeline); err == nil {
		if err := cursor.All(rctx, &tags); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
			return
		}
	} else {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
		return
	}

	recentCursor, err := s.posts().Find(rctx,
		bson.M{"status": models.StatusPublished},
		options.Find().
			SetProjection(bson.M{"title": 1, "slug": 1, "publishedAt": 1}).
			SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
			SetLimit(5))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
		return
	}
	var recent []models.BlogPost
	if err := recentCursor.All(rctx, &recent); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load popular searches")
		return
	}

	if categories == nil {
		categories = []facetRow{}
	}
	if tags == nil {
		tags = []facetRow{}
	}

	payload := gin.H{
		"categories":  categories,
		"tags":        tags,
		"recentPosts": recent,
	}
	utils.CacheSetJSON(popularSearchCacheKey,
		utils.JSONResponse{Code: 0, Message: "success", Data: payload}, 10*time.Minute)
	utils.Success(ctx, payload)
}
