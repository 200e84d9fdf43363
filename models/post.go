package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post publication states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is a recognized post status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// SEO holds optional search-engine metadata for a post.
type SEO struct {
	MetaTitle       string   `bson:"metaTitle,omitempty" json:"metaTitle,omitempty"`
	MetaDescription string   `bson:"metaDescription,omitempty" json:"metaDescription,omitempty"`
	Keywords        []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
}

// BlogPost represents a blog entry. The slug is globally unique; the author
// reference is immutable after creation. PublishedAt is stamped once, on the
// first transition to the published status.
type BlogPost struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Slug          string               `bson:"slug" json:"slug"`
	Content       string               `bson:"content" json:"content,omitempty"`
	Excerpt       string               `bson:"excerpt,omitempty" json:"excerpt"`
	Category      string               `bson:"category" json:"category"`
	Tags          []string             `bson:"tags" json:"tags"`
	Status        string               `bson:"status" json:"status"`
	FeaturedImage string               `bson:"featuredImage,omitempty" json:"featuredImage"`
	SEO           SEO                  `bson:"seo,omitempty" json:"seo,omitempty"`
	Author        primitive.ObjectID   `bson:"author" json:"author"`
	Views         int64                `bson:"views" json:"views"`
	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`
	LikesCount    int64                `bson:"likesCount" json:"likesCount"`
	CommentsCount int64                `bson:"commentsCount" json:"commentsCount"`
	ReadTime      int                  `bson:"readTime" json:"readTime"`
	PublishedAt   *time.Time           `bson:"publishedAt,omitempty" json:"publishedAt"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PostView is a BlogPost with its author reference resolved, used only for
// JSON responses and never decoded from the store.
type PostView struct {
	BlogPost
	Author *AuthorSummary `json:"author"`
}

// WithAuthor pairs a post with its resolved author summary.
func (p BlogPost) WithAuthor(author *AuthorSummary) PostView {
	return PostView{BlogPost: p, Author: author}
}
