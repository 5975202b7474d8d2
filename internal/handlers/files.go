package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	appConfig "github.com/Akin1234dot/Fifthlasb/internal/config"
	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

// ListFiles returns the shared files browser, newest first, optionally
// filtered by a name search.
func ListFiles(c *gin.Context) {
	query := database.DB.Model(&models.File{}).Order("created_at DESC")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", utils.SanitizeSearchQuery(search))
	}

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// DeleteFile removes a file record and, best effort, the stored object.
// Only the uploader may delete.
func DeleteFile(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	fileID := c.Param("id")

	var file models.File
	if err := database.DB.First(&file, "id = ?", fileID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if file.UploaderID != userId {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own files"})
		return
	}

	if err := database.DB.Delete(&file).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	// The record is gone either way; an orphaned object is recoverable by a
	// bucket sweep, a dangling record is not.
	if client, err := getS3Client(); err == nil {
		_, err = client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
			Bucket: aws.String(appConfig.AppConfig.StorageBucketName),
			Key:    aws.String(file.StorageKey),
		})
		if err != nil {
			logger.Warn().Err(err).Str("key", file.StorageKey).Msg("Stored object delete failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": fileID})
}
