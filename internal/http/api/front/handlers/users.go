package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/models"
	"github.com/personal-organizer/organizer/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// updateMeRequest defines the request body for profile updates.
type updateMeRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Me returns the current user.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, formatUser(user))
}

// UpdateMe changes the current user's name, email or password.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	var body updateMeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := c.Request.Context()
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || tooLong(name, maxNameLength) {
			respondError(c, http.StatusBadRequest, "invalid name")
			return
		}
		updates["name"] = name
	}
	if body.Email != nil {
		email := normalizeEmail(*body.Email)
		if !emailPattern.MatchString(email) {
			respondError(c, http.StatusBadRequest, "invalid email")
			return
		}
		if email != user.Email {
			var taken int64
			errCount := h.db.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).
				Count(&taken).Error
			if errCount != nil {
				log.WithError(errCount).Error("update profile: check email failed")
				respondError(c, http.StatusInternalServerError, "update profile failed")
				return
			}
			if taken > 0 {
				respondError(c, http.StatusBadRequest, "email already in use")
				return
			}
		}
		updates["email"] = email
	}
	if body.Password != nil {
		if msg := validatePassword(*body.Password); msg != "" {
			respondError(c, http.StatusBadRequest, msg)
			return
		}
		hash, errHash := security.HashPassword(*body.Password)
		if errHash != nil {
			log.WithError(errHash).Error("update profile: hash password failed")
			respondError(c, http.StatusInternalServerError, "update profile failed")
			return
		}
		updates["password"] = hash
	}

	if errUpdate := h.db.WithContext(ctx).Model(&user).Updates(updates).Error; errUpdate != nil {
		if dbutil.IsUniqueViolation(errUpdate) {
			respondError(c, http.StatusBadRequest, "email already in use")
			return
		}
		log.WithError(errUpdate).Error("update profile failed")
		respondError(c, http.StatusInternalServerError, "update profile failed")
		return
	}
	if errReload := h.db.WithContext(ctx).First(&user, "id = ?", user.ID).Error; errReload != nil {
		log.WithError(errReload).Error("update profile: reload failed")
		respondError(c, http.StatusInternalServerError, "update profile failed")
		return
	}
	respondOK(c, http.StatusOK, formatUser(user))
}

func (h *UserHandler) load(c *gin.Context) (models.User, bool) {
	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", getUserID(c)).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return models.User{}, false
		}
		log.WithError(errFind).Error("load user failed")
		respondError(c, http.StatusInternalServerError, "load user failed")
		return models.User{}, false
	}
	return user, true
}
