package controllers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/models"
	"github.com/Nehimi/myBlog/utils"
)

const maxBatchUploads = 5

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadController stores images on local disk and tracks them by public id.
type UploadController struct {
	db *mongo.Database
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(db *mongo.Database) *UploadController {
	return &UploadController{db: db}
}

func (u *UploadController) uploads() *mongo.Collection {
	return u.db.Collection(config.UploadsCollection)
}

// UploadImage accepts a single image in the "image" form field.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "no image file provided")
		return
	}

	record, code, msg := u.storeImage(ctx, header, userID)
	if code != 0 {
		utils.Error(ctx, statusForUploadCode(code), code, msg)
		return
	}

	utils.Created(ctx, gin.H{"image": record})
}

// UploadImages accepts up to five images in the "images" form field.
func (u *UploadController) UploadImages(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "no image files provided")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40050, "no image files provided")
		return
	}
	if len(files) > maxBatchUploads {
		utils.Error(ctx, http.StatusBadRequest, 40051, "too many files, maximum is 5")
		return
	}

	records := make([]models.UploadedFile, 0, len(files))
	for _, header := range files {
		record, code, msg := u.storeImage(ctx, header, userID)
		if code != 0 {
			utils.Error(ctx, statusForUploadCode(code), code, msg)
			return
		}
		records = append(records, record)
	}

	utils.Created(ctx, gin.H{"images": records})
}

// storeImage validates, persists and records one uploaded file. A zero code
// means success.
func (u *UploadController) storeImage(ctx *gin.Context, header *multipart.FileHeader, userID primitive.ObjectID) (models.UploadedFile, int, string) {
	cfg := config.Get()
	maxBytes := int64(cfg.UploadMaxSizeMB) << 20

	if header.Size > maxBytes {
		return models.UploadedFile{}, 40052, "file too large"
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return models.UploadedFile{}, 40053, "unsupported image type"
	}

	publicID := uuid.NewString()
	filename := publicID + ext
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return models.UploadedFile{}, 50060, "failed to store image"
	}
	path := filepath.Join(cfg.UploadDir, filename)
	if err := ctx.SaveUploadedFile(header, path); err != nil {
		return models.UploadedFile{}, 50060, "failed to store image"
	}

	record := models.UploadedFile{
		PublicID:     publicID,
		FilePath:     path,
		URL:          strings.TrimRight(cfg.UploadBaseURL, "/") + "/" + filename,
		OriginalName: filepath.Base(header.Filename),
		Size:         header.Size,
		Uploader:     userID,
		CreatedAt:    time.Now(),
	}

	res, err := u.uploads().InsertOne(ctx.Request.Context(), record)
	if err != nil {
		// Keep disk and database consistent.
		_ = os.Remove(path)
		return models.UploadedFile{}, 50061, "failed to record image"
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return record, 0, ""
}

// DeleteImage removes an uploaded file by public id. Only the uploader or an
// administrator may delete it.
func (u *UploadController) DeleteImage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	publicID := ctx.Param("publicId")
	rctx := ctx.Request.Context()

	var record models.UploadedFile
	if err := u.uploads().FindOne(rctx, bson.M{"publicId": publicID}).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Error(ctx, http.StatusNotFound, 40403, "image not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load image")
		return
	}

	if record.Uploader != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40304, "access denied")
		return
	}

	if _, err := u.uploads().DeleteOne(rctx, bson.M{"publicId": publicID}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to delete image")
		return
	}
	if err := os.Remove(record.FilePath); err != nil && !os.IsNotExist(err) {
		utils.Sugar.Warnf("failed to remove file %s: %v", record.FilePath, err)
	}

	utils.Success(ctx, gin.H{"message": "image deleted"})
}

func statusForUploadCode(code int) int {
	if code >= 50000 {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
