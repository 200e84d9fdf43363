package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/models"
	"github.com/Nehimi/myBlog/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles registration, login and profile endpoints.
type AuthController struct {
	db *mongo.Database
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *mongo.Database) *AuthController {
	return &AuthController{db: db}
}

func (a *AuthController) users() *mongo.Collection {
	return a.db.Collection(config.UsersCollection)
}

// Register creates a local account with a bcrypt hashed password and issues a JWT.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required,min=3,max=30"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		FirstName string `json:"firstName" binding:"max=50"`
		LastName  string `json:"lastName" binding:"max=50"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40001, utils.BindingErrors(err))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	rctx := ctx.Request.Context()

	// Pre-check both unique fields so the conflict response can name the
	// duplicated one. The unique indexes remain the source of truth under
	// concurrent registration.
	if err := a.users().FindOne(rctx, bson.M{"email": req.Email}).Err(); err == nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "email already exists")
		return
	}
	if err := a.users().FindOne(rctx, bson.M{"username": req.Username}).Err(); err == nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	now := time.Now()
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.RoleAuthor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := a.users().InsertOne(rctx, user)
	if err != nil {
		if field, ok := duplicateKeyField(err); ok {
			utils.Error(ctx, http.StatusBadRequest, 40012, field+" already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	token, err := utils.GenerateToken(user.ID.Hex(), user.Username, user.Role, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Created(ctx, gin.H{"token": token, "user": user})
}

// Login verifies credentials and issues a JWT. The failure message never
// reveals whether the email exists.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40002, utils.BindingErrors(err))
		return
	}

	var user models.User
	err := a.users().FindOne(ctx.Request.Context(), bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid credentials")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Username, user.Role, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.users().FindOne(ctx.Request.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile mutates the caller's profile fields.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		FirstName *string `json:"firstName" binding:"omitempty,max=50"`
		LastName  *string `json:"lastName" binding:"omitempty,max=50"`
		Bio       *string `json:"bio" binding:"omitempty,max=500"`
		Avatar    *string `json:"avatar" binding:"omitempty,url"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40003, utils.BindingErrors(err))
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.FirstName != nil {
		set["firstName"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		set["lastName"] = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		set["bio"] = utils.Sanitize(*req.Bio)
	}
	if req.Avatar != nil {
		set["avatar"] = strings.TrimSpace(*req.Avatar)
	}

	rctx := ctx.Request.Context()
	if _, err := a.users().UpdateByID(rctx, userID, bson.M{"$set": set}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to update profile")
		return
	}

	var user models.User
	if err := a.users().FindOne(rctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}
