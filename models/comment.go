package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxCommentLength bounds comment content size.
const MaxCommentLength = 1000

// Comment represents a comment on a blog post. A nil Parent marks a top-level
// comment; Replies holds exactly the ids of comments whose parent is this
// comment, maintained explicitly by the comment handlers.
type Comment struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Content    string               `bson:"content" json:"content"`
	Author     primitive.ObjectID   `bson:"author" json:"author"`
	BlogPost   primitive.ObjectID   `bson:"blogPost" json:"blogPost"`
	Parent     *primitive.ObjectID  `bson:"parent" json:"parent"`
	Replies    []primitive.ObjectID `bson:"replies" json:"replies"`
	IsApproved bool                 `bson:"isApproved" json:"isApproved"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	LikesCount int64                `bson:"likesCount" json:"likesCount"`
	IsEdited   bool                 `bson:"isEdited" json:"isEdited"`
	EditedAt   *time.Time           `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CommentView is a comment with its author resolved and replies nested,
// used only for JSON responses.
type CommentView struct {
	Comment
	Author  *AuthorSummary `json:"author"`
	Replies []*CommentView `json:"replies"`
}
