package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/openalpha/api/internal/auth"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
)

type AuthHandler struct {
	db           *gorm.DB
	jwtSecret    string
	googleConfig *oauth2.Config
	frontendURL  string
	log          *zap.SugaredLogger
}

func NewAuthHandler(db *gorm.DB, jwtSecret string, googleConfig *oauth2.Config, frontendURL string, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		db:           db,
		jwtSecret:    jwtSecret,
		googleConfig: googleConfig,
		frontendURL:  frontendURL,
		log:          log,
	}
}

type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role" binding:"required,oneof=student parent"`
	GradeLevel  *int   `json:"gradeLevel" binding:"omitempty,gte=0,lte=12"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"role":        user.Role,
		"gradeLevel":  user.GradeLevel,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signup payload", "code": "validation"})
		return
	}

	if req.Role == model.RoleStudent && req.GradeLevel == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade level is required for students", "code": "validation"})
		return
	}

	var existing model.User
	err := h.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered", "code": "validation"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account", "code": "internal"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account", "code": "internal"})
		return
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		GradeLevel:   req.GradeLevel,
	}
	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}

	if err := h.db.Create(&user).Error; err != nil {
		h.log.Errorw("signup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account", "code": "internal"})
		return
	}

	token, err := auth.GenerateToken(&user, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account", "code": "internal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": userResponse(&user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login payload", "code": "validation"})
		return
	}

	var user model.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password", "code": "unauthenticated"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in", "code": "internal"})
		return
	}

	token, err := auth.GenerateToken(&user, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in", "code": "internal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(&user)})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Identity(c)

	var user model.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
		return
	}

	c.JSON(http.StatusOK, userResponse(&user))
}

// GoogleAuth redirects to Google's consent page. The requested role rides in
// a cookie next to the CSRF state; students linked through Google set their
// grade level afterwards.
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	state := generateState()
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)

	role := c.DefaultQuery("role", model.RoleStudent)
	if role != model.RoleStudent && role != model.RoleParent {
		role = model.RoleStudent
	}
	c.SetCookie("oauth_role", role, 600, "/", "", false, true)

	url := h.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	savedState, err := c.Cookie("oauth_state")
	if err != nil || state != savedState {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=invalid_state")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=no_code")
		return
	}

	token, err := h.googleConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.Errorw("google code exchange failed", "error", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=exchange_failed")
		return
	}

	userInfo, err := auth.GetGoogleUserInfo(c.Request.Context(), h.googleConfig, token)
	if err != nil {
		h.log.Errorw("google userinfo fetch failed", "error", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=user_info_failed")
		return
	}

	role, err := c.Cookie("oauth_role")
	if err != nil || (role != model.RoleStudent && role != model.RoleParent) {
		role = model.RoleStudent
	}
	c.SetCookie("oauth_role", "", -1, "/", "", false, true)

	var user model.User
	result := h.db.Where("provider = ? AND provider_id = ?", "google", userInfo.ID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		user = model.User{
			Email:      userInfo.Email,
			Role:       role,
			Provider:   "google",
			ProviderID: userInfo.ID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if userInfo.Name != "" {
			user.DisplayName = &userInfo.Name
		}
		if err := h.db.Create(&user).Error; err != nil {
			h.log.Errorw("google signup failed", "error", err)
			c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=create_user_failed")
			return
		}
	} else if result.Error != nil {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=db_error")
		return
	}

	jwtToken, err := auth.GenerateToken(&user, h.jwtSecret)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=token_failed")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?token="+jwtToken)
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
