package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/models"
)

// fakeCommentStore records every cascade operation so the recursion can be
// checked node by node.
type fakeCommentStore struct {
	childIndex map[primitive.ObjectID][]models.Comment
	deleted    []primitive.ObjectID
	decrements []primitive.ObjectID
	unlinked   [][2]primitive.ObjectID
	failDelete primitive.ObjectID
}

func (f *fakeCommentStore) childrenOf(_ context.Context, parent primitive.ObjectID) ([]models.Comment, error) {
	return f.childIndex[parent], nil
}

func (f *fakeCommentStore) removeComment(_ context.Context, id primitive.ObjectID) error {
	if id == f.failDelete {
		return errors.New("delete failed")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCommentStore) decrementCommentCount(_ context.Context, post primitive.ObjectID) {
	f.decrements = append(f.decrements, post)
}

func (f *fakeCommentStore) unlinkReply(_ context.Context, parent, child primitive.ObjectID) {
	f.unlinked = append(f.unlinked, [2]primitive.ObjectID{parent, child})
}

// replyTree builds: root (reply to offTree) -> {child1 -> {grandchild}, child2}.
func replyTree(post primitive.ObjectID) (models.Comment, models.Comment, models.Comment, models.Comment, *fakeCommentStore) {
	offTree := primitive.NewObjectID()
	author := primitive.NewObjectID()

	root := models.Comment{ID: primitive.NewObjectID(), Author: author, BlogPost: post, Parent: &offTree}
	child1 := models.Comment{ID: primitive.NewObjectID(), Author: author, BlogPost: post, Parent: &root.ID}
	child2 := models.Comment{ID: primitive.NewObjectID(), Author: author, BlogPost: post, Parent: &root.ID}
	grandchild := models.Comment{ID: primitive.NewObjectID(), Author: author, BlogPost: post, Parent: &child1.ID}

	store := &fakeCommentStore{childIndex: map[primitive.ObjectID][]models.Comment{
		root.ID:   {child1, child2},
		child1.ID: {grandchild},
	}}
	return root, child1, child2, grandchild, store
}

func TestDeleteCommentTreeRemovesEveryNodeWithPerNodeDecrements(t *testing.T) {
	post := primitive.NewObjectID()
	root, child1, child2, grandchild, store := replyTree(post)

	require.NoError(t, deleteCommentTree(context.Background(), store, root))

	require.Len(t, store.deleted, 4)
	assert.ElementsMatch(t,
		[]primitive.ObjectID{root.ID, child1.ID, child2.ID, grandchild.ID},
		store.deleted)

	// One -1 per deleted node, never a bulk subtraction.
	require.Len(t, store.decrements, 4)
	for _, p := range store.decrements {
		assert.Equal(t, post, p)
	}
}

func TestDeleteCommentTreeDeletesBottomUp(t *testing.T) {
	post := primitive.NewObjectID()
	root, child1, _, grandchild, store := replyTree(post)

	require.NoError(t, deleteCommentTree(context.Background(), store, root))

	position := map[primitive.ObjectID]int{}
	for i, id := range store.deleted {
		position[id] = i
	}
	assert.Less(t, position[grandchild.ID], position[child1.ID])
	assert.Equal(t, root.ID, store.deleted[len(store.deleted)-1], "root goes last")
}

func TestDeleteCommentTreeUnlinksRootOnly(t *testing.T) {
	post := primitive.NewObjectID()
	root, _, _, _, store := replyTree(post)

	require.NoError(t, deleteCommentTree(context.Background(), store, root))

	require.Len(t, store.unlinked, 1)
	assert.Equal(t, *root.Parent, store.unlinked[0][0])
	assert.Equal(t, root.ID, store.unlinked[0][1])
}

func TestDeleteCommentTreeTopLevelHasNoUnlink(t *testing.T) {
	post := primitive.NewObjectID()
	root := models.Comment{ID: primitive.NewObjectID(), BlogPost: post}
	store := &fakeCommentStore{childIndex: map[primitive.ObjectID][]models.Comment{}}

	require.NoError(t, deleteCommentTree(context.Background(), store, root))
	assert.Empty(t, store.unlinked)
	assert.Equal(t, []primitive.ObjectID{root.ID}, store.deleted)
}

func TestDeleteCommentTreePartialFailureKeepsCounterConsistent(t *testing.T) {
	post := primitive.NewObjectID()
	root, _, child2, _, store := replyTree(post)
	store.failDelete = child2.ID

	err := deleteCommentTree(context.Background(), store, root)
	require.Error(t, err)

	// Whatever was actually removed got exactly one decrement each.
	assert.Equal(t, len(store.deleted), len(store.decrements))
	assert.NotContains(t, store.deleted, root.ID, "root survives when a child delete fails")
}

func TestClassifyParentLookup(t *testing.T) {
	post := primitive.NewObjectID()
	parent := models.Comment{ID: primitive.NewObjectID(), BlogPost: post}

	status, code, _ := classifyParentLookup(models.Comment{}, mongo.ErrNoDocuments, post)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40042, code)

	status, code, msg := classifyParentLookup(models.Comment{}, errors.New("connection reset"), post)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 50043, code)
	assert.NotContains(t, msg, "parent", "transient failures must not read as a client mistake")

	otherPost := primitive.NewObjectID()
	status, code, _ = classifyParentLookup(parent, nil, otherPost)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40042, code)

	_, code, _ = classifyParentLookup(parent, nil, post)
	assert.Zero(t, code)
}
