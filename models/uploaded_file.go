package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadedFile records an image stored by the upload endpoints so it can be
// looked up and removed by its public id later.
type UploadedFile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PublicID     string             `bson:"publicId" json:"publicId"`
	FilePath     string             `bson:"filePath" json:"-"`
	URL          string             `bson:"url" json:"url"`
	OriginalName string             `bson:"originalName" json:"originalName"`
	Size         int64              `bson:"size" json:"size"`
	Uploader     primitive.ObjectID `bson:"uploader" json:"uploader"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
