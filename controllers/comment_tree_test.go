package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Nehimi/myBlog/models"
)

func newComment(post primitive.ObjectID, parent *primitive.ObjectID, author primitive.ObjectID, createdAt time.Time) models.Comment {
	return models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   "hello",
		Author:    author,
		BlogPost:  post,
		Parent:    parent,
		CreatedAt: createdAt,
	}
}

func TestBuildCommentTreeNestsReplies(t *testing.T) {
	post := primitive.NewObjectID()
	author := primitive.NewObjectID()
	now := time.Now()

	root := newComment(post, nil, author, now)
	reply1 := newComment(post, &root.ID, author, now.Add(time.Minute))
	reply2 := newComment(post, &root.ID, author, now.Add(2*time.Minute))
	nested := newComment(post, &reply1.ID, author, now.Add(3*time.Minute))

	authors := map[primitive.ObjectID]models.AuthorSummary{
		author: {ID: author, Username: "gopher"},
	}

	tree := buildCommentTree(
		[]models.Comment{root},
		[]models.Comment{reply1, reply2, nested},
		authors,
	)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, reply1.ID, tree[0].Replies[0].ID, "siblings stay oldest first")
	assert.Equal(t, reply2.ID, tree[0].Replies[1].ID)

	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, tree[0].Replies[0].Replies[0].ID)

	require.NotNil(t, tree[0].Author)
	assert.Equal(t, "gopher", tree[0].Author.Username)
}

func TestBuildCommentTreePreservesTopLevelOrder(t *testing.T) {
	post := primitive.NewObjectID()
	author := primitive.NewObjectID()
	now := time.Now()

	newer := newComment(post, nil, author, now.Add(time.Hour))
	older := newComment(post, nil, author, now)

	tree := buildCommentTree([]models.Comment{newer, older}, nil, nil)
	require.Len(t, tree, 2)
	assert.Equal(t, newer.ID, tree[0].ID)
	assert.Equal(t, older.ID, tree[1].ID)
}

func TestBuildCommentTreeDropsOrphanReplies(t *testing.T) {
	post := primitive.NewObjectID()
	author := primitive.NewObjectID()
	now := time.Now()

	root := newComment(post, nil, author, now)
	offPage := primitive.NewObjectID()
	orphan := newComment(post, &offPage, author, now.Add(time.Minute))

	tree := buildCommentTree([]models.Comment{root}, []models.Comment{orphan}, nil)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Replies)
}

func TestBuildCommentTreeUnknownAuthorStaysNil(t *testing.T) {
	post := primitive.NewObjectID()
	root := newComment(post, nil, primitive.NewObjectID(), time.Now())

	tree := buildCommentTree([]models.Comment{root}, nil, map[primitive.ObjectID]models.AuthorSummary{})
	require.Len(t, tree, 1)
	assert.Nil(t, tree[0].Author)
	assert.NotNil(t, tree[0].Replies, "replies render as an empty list, not null")
}
