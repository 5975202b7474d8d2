package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

const dashboardCacheTTL = 30 * time.Second

type dashboardStats struct {
	Conversations int   `json:"conversations"`
	UnreadTotal   int   `json:"unreadTotal"`
	Groups        int   `json:"groups"`
	Files         int64 `json:"files"`
	TeamSize      int   `json:"teamSize"`
}

// GetDashboard aggregates the home-screen numbers. Briefly cached per user;
// the counts tolerate a few seconds of staleness.
func GetDashboard(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	cacheKey := fmt.Sprintf("dashboard:%s", userId)

	var stats dashboardStats
	if database.Redis != nil {
		if err := database.CacheGet(cacheKey, &stats); err == nil {
			c.JSON(http.StatusOK, gin.H{"stats": stats, "cached": true})
			return
		}
	}

	messages, err := messageStore.ListForParticipant(userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	dir := services.NewDirectory()
	dir.LoadAll(userId)
	conversations := services.FoldConversations(userId, messages, dir)

	stats.Conversations = len(conversations)
	for _, conv := range conversations {
		stats.UnreadTotal += conv.UnreadCount
	}

	groups, err := services.ListGroups(userId)
	if err == nil {
		stats.Groups = len(groups)
		for _, g := range groups {
			stats.UnreadTotal += g.UnreadCounts[userId]
		}
	}

	database.DB.Model(&models.File{}).Count(&stats.Files)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userId).Error; err == nil {
		stats.TeamSize = len(user.TeamMembers)
	}

	if database.Redis != nil {
		if err := database.CacheSet(cacheKey, stats, dashboardCacheTTL); err != nil {
			logger.Debug().Err(err).Msg("Dashboard cache write skipped")
		}
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
