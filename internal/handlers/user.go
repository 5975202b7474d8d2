package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

// GetMe returns the profile document behind the authenticated principal.
func GetMe(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"displayName": user.ResolveDisplayName(),
		"photoURL":    user.AvatarURL(),
	})
}

type UpdateProfileInput struct {
	FirstName   *string                `json:"firstname"`
	LastName    *string                `json:"lastname"`
	AccountName *string                `json:"accountname"`
	PhotoURL    *string                `json:"photoURL"`
	TeamMembers *models.TeamMemberList `json:"teamMembers"`
}

// UpdateProfile applies a partial update to the caller's own profile.
// Email and password are managed by the auth endpoints, not here.
func UpdateProfile(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.AccountName != nil {
		user.AccountName = strings.TrimSpace(*input.AccountName)
	}
	if input.PhotoURL != nil {
		if *input.PhotoURL != "" {
			if err := ValidatePhotoURL(*input.PhotoURL); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		user.PhotoURL = *input.PhotoURL
	}
	if input.TeamMembers != nil {
		roster := make(models.TeamMemberList, 0, len(*input.TeamMembers))
		for _, m := range *input.TeamMembers {
			if strings.TrimSpace(m.Email) != "" && strings.TrimSpace(m.Role) != "" {
				roster = append(roster, m)
			}
		}
		user.TeamMembers = roster
	}

	if err := database.DB.Save(&user).Error; err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("Profile update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetDirectory lists every registered user except the caller, optionally
// narrowed by a search query. Backs the recipient picker and people search.
func GetDirectory(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	dir := services.NewDirectory()
	dir.LoadAll(userId)

	entries := dir.Search(c.Query("search"))

	c.JSON(http.StatusOK, gin.H{"users": entries})
}
