package controllers

import (
	"context"
	"net/http"
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

// CommentController manages the threaded comment tree under blog posts.
type CommentController struct {
	db *mongo.Database
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *mongo.Database) *CommentController {
	return &CommentController{db: db}
}

func (c *CommentController) comments() *mongo.Collection {
	return c.db.Collection(config.CommentsCollection)
}

func (c *CommentController) posts() *mongo.Collection {
	return c.db.Collection(config.PostsCollection)
}

func (c *CommentController) users() *mongo.Collection {
	return c.db.Collection(config.UsersCollection)
}

// CreateComment adds a comment or a reply. A reply's parent must exist and
// belong to the same post. Each created comment bumps the post counter and,
// for replies, registers itself in the parent's reply list.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required,max=1000"`
		BlogPost string `json:"blogPost" binding:"required"`
		Parent   string `json:"parent"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40040, utils.BindingErrors(err))
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.BlogPost)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid blog post id")
		return
	}

	rctx := ctx.Request.Context()

	if err := c.posts().FindOne(rctx, bson.M{"_id": postID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40401, "blog post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load blog post")
		return
	}

	var parentID *primitive.ObjectID
	if req.Parent != "" {
		pid, err := primitive.ObjectIDFromHex(req.Parent)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40042, "invalid parent comment")
			return
		}
		var parent models.Comment
		err = c.comments().FindOne(rctx, bson.M{"_id": pid}).Decode(&parent)
		if status, code, msg := classifyParentLookup(parent, err, postID); code != 0 {
			utils.Error(ctx, status, code, msg)
			return
		}
		parentID = &pid
	}

	now := time.Now()
	comment := models.Comment{
		Content:    utils.Sanitize(req.Content),
		Author:     userID,
		BlogPost:   postID,
		Parent:     parentID,
		Replies:    []primitive.ObjectID{},
		IsApproved: true,
		Likes:      []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := c.comments().InsertOne(rctx, comment)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create comment")
		return
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)

	if parentID != nil {
		if _, err := c.comments().UpdateByID(rctx, *parentID,
			bson.M{"$push": bson.M{"replies": comment.ID}}); err != nil {
			utils.Sugar.Warnf("failed to register reply %s on parent %s: %v",
				comment.ID.Hex(), parentID.Hex(), err)
		}
	}
	if _, err := c.posts().UpdateByID(rctx, postID,
		bson.M{"$inc": bson.M{"commentsCount": 1}}); err != nil {
		utils.Sugar.Warnf("failed to increment comment count for post %s: %v", postID.Hex(), err)
	}

	view := models.CommentView{Comment: comment, Replies: []*models.CommentView{}}
	if summary := c.commentAuthor(rctx, userID); summary != nil {
		view.Author = summary
	}
	utils.Created(ctx, gin.H{"comment": view})
}

// ListCommentsByBlogPost returns the approved comment tree for a post.
// Top-level comments are paginated newest first; replies are nested to any
// depth, oldest first within a level.
func (c *CommentController) ListCommentsByBlogPost(ctx *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(ctx.Param("blogPostId"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid blog post id")
		return
	}

	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), 20)
	rctx := ctx.Request.Context()

	topQuery := bson.M{"blogPost": postID, "parent": nil, "isApproved": true}
	total, err := c.comments().CountDocuments(rctx, topQuery)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count comments")
		return
	}

	topOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := c.comments().Find(rctx, topQuery, topOpts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}
	var topLevel []models.Comment
	if err := cursor.All(rctx, &topLevel); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}

	// One pass over all approved replies for the post; nesting happens in
	// memory instead of issuing a query per node.
	replyCursor, err := c.comments().Find(rctx,
		bson.M{"blogPost": postID, "parent": bson.M{"$ne": nil}, "isApproved": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}
	var replies []models.Comment
	if err := replyCursor.All(rctx, &replies); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(topLevel)+len(replies))
	for _, cm := range topLevel {
		authorIDs = append(authorIDs, cm.Author)
	}
	for _, cm := range replies {
		authorIDs = append(authorIDs, cm.Author)
	}
	authors, err := loadAuthorSummaries(rctx, c.users(), authorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to resolve authors")
		return
	}

	tree := buildCommentTree(topLevel, replies, authors)

	utils.Success(ctx, gin.H{
		"comments":   tree,
		"pagination": paginationPayload(page, limit, total),
	})
}

// buildCommentTree nests replies under their parents. topLevel keeps its
// given order; replies must arrive sorted oldest first so sibling order is
// chronological. Replies whose parent fell outside the page are dropped.
func buildCommentTree(topLevel, replies []models.Comment, authors map[primitive.ObjectID]models.AuthorSummary) []*models.CommentView {
	nodes := make(map[primitive.ObjectID]*models.CommentView, len(topLevel)+len(replies))

	toView := func(cm models.Comment) *models.CommentView {
		view := &models.CommentView{Comment: cm, Replies: []*models.CommentView{}}
		if s, ok := authors[cm.Author]; ok {
			s := s
			view.Author = &s
		}
		return view
	}

	roots := make([]*models.CommentView, 0, len(topLevel))
	for _, cm := range topLevel {
		view := toView(cm)
		nodes[cm.ID] = view
		roots = append(roots, view)
	}
	for _, cm := range replies {
		nodes[cm.ID] = toView(cm)
	}
	for _, cm := range replies {
		if cm.Parent == nil {
			continue
		}
		parent, ok := nodes[*cm.Parent]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, nodes[cm.ID])
	}
	return roots
}

// UpdateComment edits a comment's content. Only the author or an
// administrator may edit; edits are marked with isEdited and a timestamp.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=1000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40043, utils.BindingErrors(err))
		return
	}

	commentID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid comment id")
		return
	}

	rctx := ctx.Request.Context()
	var comment models.Comment
	if err := c.comments().FindOne(rctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load comment")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if comment.Author != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40303, "access denied")
		return
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"content":   utils.Sanitize(req.Content),
		"isEdited":  true,
		"editedAt":  now,
		"updatedAt": now,
	}}
	if _, err := c.comments().UpdateByID(rctx, commentID, update); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to update comment")
		return
	}
	if err := c.comments().FindOne(rctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment and its whole reply subtree. Each node in
// the subtree decrements the post counter individually, so the counter stays
// consistent even when part of the cascade fails midway.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid comment id")
		return
	}

	rctx := ctx.Request.Context()
	var comment models.Comment
	if err := c.comments().FindOne(rctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load comment")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if comment.Author != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40303, "access denied")
		return
	}

	store := mongoCommentTree{comments: c.comments(), posts: c.posts()}
	if err := deleteCommentTree(rctx, store, comment); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to delete comment")
		return
	}

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// classifyParentLookup maps the outcome of a parent comment fetch. A missing
// parent or one belonging to a different post is a client error; any other
// fetch failure is a server error. A zero code means the parent is valid.
func classifyParentLookup(parent models.Comment, err error, postID primitive.ObjectID) (int, int, string) {
	if err == mongo.ErrNoDocuments {
		return http.StatusBadRequest, 40042, "invalid parent comment"
	}
	if err != nil {
		return http.StatusInternalServerError, 50043, "failed to load comment"
	}
	if parent.BlogPost != postID {
		return http.StatusBadRequest, 40042, "invalid parent comment"
	}
	return 0, 0, ""
}

// commentTreeStore is the narrow storage surface the cascade delete runs on,
// separated from the controller so the recursion can be exercised without a
// live database.
type commentTreeStore interface {
	childrenOf(ctx context.Context, parent primitive.ObjectID) ([]models.Comment, error)
	removeComment(ctx context.Context, id primitive.ObjectID) error
	decrementCommentCount(ctx context.Context, post primitive.ObjectID)
	unlinkReply(ctx context.Context, parent, child primitive.ObjectID)
}

// deleteCommentTree removes root and its whole reply subtree. The root is
// unlinked from its parent first; descendants are not, because their parents
// are deleted along with them. Every deleted node decrements the post counter
// individually, so the counter matches the rows actually removed even when
// the cascade fails midway.
func deleteCommentTree(ctx context.Context, store commentTreeStore, root models.Comment) error {
	if root.Parent != nil {
		store.unlinkReply(ctx, *root.Parent, root.ID)
	}
	return deleteSubtree(ctx, store, root)
}

func deleteSubtree(ctx context.Context, store commentTreeStore, node models.Comment) error {
	children, err := store.childrenOf(ctx, node.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := deleteSubtree(ctx, store, child); err != nil {
			return err
		}
	}

	if err := store.removeComment(ctx, node.ID); err != nil {
		return err
	}
	store.decrementCommentCount(ctx, node.BlogPost)
	return nil
}

// mongoCommentTree backs the cascade delete with the real collections.
type mongoCommentTree struct {
	comments *mongo.Collection
	posts    *mongo.Collection
}

func (m mongoCommentTree) childrenOf(ctx context.Context, parent primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := m.comments.Find(ctx, bson.M{"parent": parent})
	if err != nil {
		return nil, err
	}
	var children []models.Comment
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

func (m mongoCommentTree) removeComment(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.comments.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m mongoCommentTree) decrementCommentCount(ctx context.Context, post primitive.ObjectID) {
	if _, err := m.posts.UpdateByID(ctx, post,
		bson.M{"$inc": bson.M{"commentsCount": -1}}); err != nil {
		utils.Sugar.Warnf("failed to decrement comment count for post %s: %v", post.Hex(), err)
	}
}

func (m mongoCommentTree) unlinkReply(ctx context.Context, parent, child primitive.ObjectID) {
	if _, err := m.comments.UpdateByID(ctx, parent,
		bson.M{"$pull": bson.M{"replies": child}}); err != nil {
		utils.Sugar.Warnf("failed to unlink reply %s from parent %s: %v",
			child.Hex(), parent.Hex(), err)
	}
}

// ToggleCommentLike flips the caller's membership in the comment's like set.
func (c *CommentController) ToggleCommentLike(ctx *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid comment id")
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	rctx := ctx.Request.Context()
	var comment models.Comment
	if err := c.comments().FindOne(rctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load comment")
		return
	}

	newLikes, liked := toggleLikeSet(comment.Likes, userID)
	if _, err := c.comments().UpdateByID(rctx, commentID, toggleUpdate(userID, liked)); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to toggle like")
		return
	}

	utils.Success(ctx, gin.H{
		"likesCount": len(newLikes),
		"isLiked":    liked,
	})
}

// ListMyComments returns the caller's own comments, newest first.
func (c *CommentController) ListMyComments(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), 20)
	rctx := ctx.Request.Context()
	query := bson.M{"author": userID}

	total, err := c.comments().CountDocuments(rctx, query)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count comments")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := c.comments().Find(rctx, query, opts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}
	var comments []models.Comment
	if err := cursor.All(rctx, &comments); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list comments")
		return
	}

	utils.Success(ctx, gin.H{
		"comments":   comments,
		"pagination": paginationPayload(page, limit, total),
	})
}

func (c *CommentController) commentAuthor(ctx context.Context, id primitive.ObjectID) *models.AuthorSummary {
	var user models.User
	if err := c.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil
	}
	s := user.Summary()
	return &s
}
