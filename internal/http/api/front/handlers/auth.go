package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/personal-organizer/organizer/internal/config"
	dbutil "github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
	"github.com/personal-organizer/organizer/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	maxNameLength     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// errInvalidCredentials is shared by unknown email and wrong password.
const errInvalidCredentials = "invalid email or password"

// AuthHandler handles registration and login.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{db: db, jwtCfg: jwtCfg, now: now}
}

// registerRequest defines the request body for registration.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	if tooLong(name, maxNameLength) {
		respondError(c, http.StatusBadRequest, "name is too long")
		return
	}
	email := normalizeEmail(body.Email)
	if !emailPattern.MatchString(email) {
		respondError(c, http.StatusBadRequest, "invalid email")
		return
	}
	if msg := validatePassword(body.Password); msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	var existing int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; errCount != nil {
		log.WithError(errCount).Error("register: check email failed")
		respondError(c, http.StatusInternalServerError, "register failed")
		return
	}
	if existing > 0 {
		respondError(c, http.StatusBadRequest, "email already in use")
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		log.WithError(errHash).Error("register: hash password failed")
		respondError(c, http.StatusInternalServerError, "register failed")
		return
	}
	user := models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if errCreate := h.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			respondError(c, http.StatusBadRequest, "email already in use")
			return
		}
		log.WithError(errCreate).Error("register: create user failed")
		respondError(c, http.StatusInternalServerError, "register failed")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"id": user.ID, "name": user.Name, "email": user.Email})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	email := normalizeEmail(body.Email)
	if email == "" || body.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, errInvalidCredentials)
			return
		}
		log.WithError(errFind).Error("login: find user failed")
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		respondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, user.ID, h.jwtCfg.Expiry, h.now())
	if errToken != nil {
		log.WithError(errToken).Error("login: issue token failed")
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// validatePassword returns a client message for a weak password, or "".
func validatePassword(password string) string {
	if len(password) < minPasswordLength {
		return "password must be at least 6 characters"
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return "password must contain an uppercase letter and a digit"
	}
	return ""
}
