package controllers

import (
	"fmt"
	"net/http"
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

const (
	postsListCachePrefix = "cache:posts:"
	wordsPerMinute       = 200
)

// BlogController manages CRUD, listing and aggregation endpoints for posts.
type BlogController struct {
	db *mongo.Database
}

// NewBlogController creates a new BlogController instance.
func NewBlogController(db *mongo.Database) *BlogController {
	return &BlogController{db: db}
}

func (b *BlogController) posts() *mongo.Collection {
	return b.db.Collection(config.PostsCollection)
}

func (b *BlogController) comments() *mongo.Collection {
	return b.db.Collection(config.CommentsCollection)
}

func (b *BlogController) users() *mongo.Collection {
	return b.db.Collection(config.UsersCollection)
}

type blogPostRequest struct {
	Title         string      `json:"title" binding:"required,max=200"`
	Content       string      `json:"content" binding:"required"`
	Category      string      `json:"category" binding:"required"`
	Excerpt       string      `json:"excerpt" binding:"max=500"`
	Tags          []string    `json:"tags"`
	FeaturedImage string      `json:"featuredImage" binding:"omitempty,url"`
	SEO           *models.SEO `json:"seo"`
	Status        string      `json:"status" binding:"omitempty,oneof=draft published archived"`
}

// CreateBlogPost creates a post for the authenticated user. The slug is
// derived from the title and disambiguated once on collision.
func (b *BlogController) CreateBlogPost(ctx *gin.Context) {
	var req blogPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40020, utils.BindingErrors(err))
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	rctx := ctx.Request.Context()

	slug := utils.Slugify(req.Title)
	if n, err := b.posts().CountDocuments(rctx, bson.M{"slug": slug}); err == nil && n > 0 {
		slug = utils.DisambiguateSlug(slug)
	}

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	content := utils.Sanitize(req.Content)
	now := time.Now()

	post := models.BlogPost{
		Title:         utils.Sanitize(strings.TrimSpace(req.Title)),
		Slug:          slug,
		Content:       content,
		Excerpt:       utils.Sanitize(strings.TrimSpace(req.Excerpt)),
		Category:      strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:          normalizeTags(req.Tags),
		Status:        status,
		FeaturedImage: strings.TrimSpace(req.FeaturedImage),
		Author:        userID,
		Likes:         []primitive.ObjectID{},
		ReadTime:      estimateReadTime(content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.SEO != nil {
		post.SEO = *req.SEO
	}
	if status == models.StatusPublished {
		post.PublishedAt = &now
	}

	res, err := b.posts().InsertOne(rctx, post)
	if err != nil {
		if field, ok := duplicateKeyField(err); ok {
			utils.Error(ctx, http.StatusBadRequest, 40021, field+" already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create blog post")
		return
	}
	post.ID = res.InsertedID.(primitive.ObjectID)

	utils.InvalidateByPrefix(postsListCachePrefix)
	utils.InvalidateByPrefix(popularSearchCacheKey)

	utils.Created(ctx, gin.H{"blogPost": post.WithAuthor(b.authorSummary(ctx, userID))})
}

// ListBlogPosts returns paginated published posts with author projections,
// filtered by category, tags, author and free-text search.
func (b *BlogController) ListBlogPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), 10)
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.ToLower(strings.TrimSpace(ctx.Query("category")))
	author := strings.TrimSpace(ctx.Query("author"))
	status := ctx.DefaultQuery("status", models.StatusPublished)
	if !models.ValidStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid status")
		return
	}

	query := bson.M{"status": status}
	if category != "" {
		query["category"] = category
	}
	if tags := strings.TrimSpace(ctx.Query("tags")); tags != "" {
		query["tags"] = bson.M{"$in": splitTagParam(tags)}
	}
	if author != "" {
		authorID, err := primitive.ObjectIDFromHex(author)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "invalid author id")
			return
		}
		query["author"] = authorID
	}
	if search != "" {
		query["$text"] = bson.M{"$search": search}
	}

	userID, authed := currentUserID(ctx)
	if !applyStatusScope(query, status, userID, authed, isAdmin(ctx)) {
		utils.Error(ctx, http.StatusForbidden, 40301, "access denied")
		return
	}

	// Cache only searchless published listings to avoid cache key explosion
	// and per-user draft payloads.
	cacheKey := ""
	if search == "" && status == models.StatusPublished {
		cacheKey = fmt.Sprintf("%slist:status=%s:cat=%s:tags=%s:author=%s:page=%d:limit=%d",
			postsListCachePrefix, status, category, ctx.Query("tags"), author, page, limit)
		if cached, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	rctx := ctx.Request.Context()

	total, err := b.posts().CountDocuments(rctx, query)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count blog posts")
		return
	}

	opts := options.Find().
		SetProjection(bson.M{"content": 0}).
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := b.posts().Find(rctx, query, opts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list blog posts")
		return
	}

	var posts []models.BlogPost
	if err := cursor.All(rctx, &posts); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list blog posts")
		return
	}

	views, err := b.withAuthors(ctx, posts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to resolve authors")
		return
	}

	payload := gin.H{
		"blogPosts":  views,
		"pagination": paginationPayload(page, limit, total),
	}
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetBlogPost returns a single post by id. Unpublished posts are visible only
// to their author or an administrator. Reading increments the view counter.
func (b *BlogController) GetBlogPost(ctx *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	rctx := ctx.Request.Context()

	var post models.BlogPost
	if err := b.posts().FindOne(rctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40401, "blog post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	if post.Status != models.StatusPublished {
		userID, authed := currentUserID(ctx)
		if !authed || (userID != post.Author && !isAdmin(ctx)) {
			utils.Error(ctx, http.StatusForbidden, 40301, "access denied")
			return
		}
	}

	if _, err := b.posts().UpdateByID(rctx, postID, bson.M{"$inc": bson.M{"views": 1}}); err != nil {
		utils.Sugar.Warnf("failed to increment views for post %s: %v", postID.Hex(), err)
	}

	utils.Success(ctx, gin.H{"blogPost": post.WithAuthor(b.authorSummary(ctx, post.Author))})
}

// UpdateBlogPost applies partial updates by the author or an administrator.
// publishedAt is stamped exactly once, on the first transition to published.
func (b *BlogController) UpdateBlogPost(ctx *gin.Context) {
	var req struct {
		Title         *string     `json:"title" binding:"omitempty,max=200"`
		Content       *string     `json:"content"`
		Category      *string     `json:"category"`
		Excerpt       *string     `json:"excerpt" binding:"omitempty,max=500"`
		Tags          *[]string   `json:"tags"`
		FeaturedImage *string     `json:"featuredImage" binding:"omitempty,url"`
		SEO           *models.SEO `json:"seo"`
		Status        *string     `json:"status" binding:"omitempty,oneof=draft published archived"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40022, utils.BindingErrors(err))
		return
	}

	postID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	rctx := ctx.Request.Context()

	var post models.BlogPost
	if err := b.posts().FindOne(rctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40401, "blog post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.Author != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "access denied")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		set["title"] = utils.Sanitize(strings.TrimSpace(*req.Title))
	}
	if req.Content != nil {
		content := utils.Sanitize(*req.Content)
		set["content"] = content
		set["readTime"] = estimateReadTime(content)
	}
	if req.Category != nil {
		set["category"] = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Excerpt != nil {
		set["excerpt"] = utils.Sanitize(strings.TrimSpace(*req.Excerpt))
	}
	if req.Tags != nil {
		set["tags"] = normalizeTags(*req.Tags)
	}
	if req.FeaturedImage != nil {
		set["featuredImage"] = strings.TrimSpace(*req.FeaturedImage)
	}
	if req.SEO != nil {
		set["seo"] = *req.SEO
	}
	if req.Status != nil {
		set["status"] = *req.Status
		if *req.Status == models.StatusPublished && post.PublishedAt == nil {
			set["publishedAt"] = time.Now()
		}
	}

	if _, err := b.posts().UpdateByID(rctx, postID, bson.M{"$set": set}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update blog post")
		return
	}

	if err := b.posts().FindOne(rctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	utils.InvalidateByPrefix(postsListCachePrefix)
	utils.InvalidateByPrefix(popularSearchCacheKey)

	utils.Success(ctx, gin.H{"blogPost": post.WithAuthor(b.authorSummary(ctx, post.Author))})
}

// DeleteBlogPost removes a post and all of its comments.
func (b *BlogController) DeleteBlogPost(ctx *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	rctx := ctx.Request.Context()

	var post models.BlogPost
	if err := b.posts().FindOne(rctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40401, "blog post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.Author != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "access denied")
		return
	}

	if _, err := b.posts().DeleteOne(rctx, bson.M{"_id": postID}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete blog post")
		return
	}
	// The post is gone, so its comment counter no longer exists; the whole
	// comment set can go in one sweep.
	if _, err := b.comments().DeleteMany(rctx, bson.M{"blogPost": postID}); err != nil {
		utils.Sugar.Warnf("failed to delete comments for post %s: %v", postID.Hex(), err)
	}

	utils.InvalidateByPrefix(postsListCachePrefix)
	utils.InvalidateByPrefix(popularSearchCacheKey)

	utils.Success(ctx, gin.H{"message": "blog post deleted"})
}

// ToggleLike flips the caller's membership in the post's like set and
// returns the new size and membership state.
func (b *BlogController) ToggleLike(ctx *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	rctx := ctx.Request.Context()

	var post models.BlogPost
	if err := b.posts().FindOne(rctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40401, "blog post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	newLikes, liked := toggleLikeSet(post.Likes, userID)
	if _, err := b.posts().UpdateByID(rctx, postID, toggleUpdate(userID, liked)); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to toggle like")
		return
	}

	utils.Success(ctx, gin.H{
		"likesCount": len(newLikes),
		"isLiked":    liked,
	})
}

// ListMyBlogPosts returns the caller's own posts in any status.
func (b *BlogController) ListMyBlogPosts(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), 10)
	query := bson.M{"author": userID}
	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		if !models.ValidStatus(status) {
			utils.Error(ctx, http.StatusBadRequest, 40032, "invalid status")
			return
		}
		query["status"] = status
	}

	rctx := ctx.Request.Context()

	total, err := b.posts().CountDocuments(rctx, query)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count blog posts")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := b.posts().Find(rctx, query, opts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list blog posts")
		return
	}

	var posts []models.BlogPost
	if err := cursor.All(rctx, &posts); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list blog posts")
		return
	}

	utils.Success(ctx, gin.H{
		"blogPosts":  posts,
		"pagination": paginationPayload(page, limit, total),
	})
}

// authorSummary resolves a single author projection, returning nil when the
// user record is gone.
func (b *BlogController) authorSummary(ctx *gin.Context, id primitive.ObjectID) *models.AuthorSummary {
	var user models.User
	if err := b.users().FindOne(ctx.Request.Context(), bson.M{"_id": id}).Decode(&user); err != nil {
		return nil
	}
	s := user.Summary()
	return &s
}

// withAuthors pairs posts with their resolved author summaries. Posts whose
// author record is gone keep a nil author rather than being dropped.
func (b *BlogController) withAuthors(ctx *gin.Context, posts []models.BlogPost) ([]models.PostView, error) {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Author)
	}
	authors, err := loadAuthorSummaries(ctx.Request.Context(), b.users(), ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		var summary *models.AuthorSummary
		if s, ok := authors[p.Author]; ok {
			s := s
			summary = &s
		}
		views = append(views, p.WithAuthor(summary))
	}
	return views, nil
}

// applyStatusScope narrows a listing query for non-published statuses: drafts
// and archives of other authors are visible only to administrators. Returns
// false when the caller may not list the requested status at all.
func applyStatusScope(query bson.M, status string, userID primitive.ObjectID, authed, admin bool) bool {
	if status == models.StatusPublished {
		return true
	}
	if !authed {
		return false
	}
	if !admin {
		query["author"] = userID
	}
	return true
}

// estimateReadTime returns the reading time in minutes at ~200 words/minute.
func estimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
