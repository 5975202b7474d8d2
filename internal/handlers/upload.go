package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	appConfig "github.com/Akin1234dot/Fifthlasb/internal/config"
	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

// -- Helpers -- //

func getS3Client() (*s3.Client, error) {
	cfg := appConfig.AppConfig
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.StorageAccountID),
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.StorageAccessKeyID, cfg.StorageSecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

func publicFileURL(key string) string {
	publicURL := appConfig.AppConfig.StoragePublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.r2.dev", appConfig.AppConfig.StorageBucketName)
	}
	return fmt.Sprintf("%s/%s", publicURL, key)
}

// putObject streams one multipart file into the bucket under key.
func putObject(c *gin.Context, folder string) (key, url, contentType, name string, size int64, err error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return "", "", "", "", 0, fmt.Errorf("no valid file field found")
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	key = fmt.Sprintf("%s/%s%s", folder, utils.GenerateID(), ext)

	client, err := getS3Client()
	if err != nil {
		return "", "", "", "", 0, err
	}

	_, err = client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(appConfig.AppConfig.StorageBucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(header.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", "", "", "", 0, err
	}

	return key, publicFileURL(key), header.Header.Get("Content-Type"), header.Filename, header.Size, nil
}

// -- Handlers -- //

// UploadAvatar stores a profile picture and points the caller's profile at
// it in one step.
func UploadAvatar(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	_, url, contentType, _, size, err := putObject(c, "fiveaside/profile-pics")
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("Avatar upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userId).Update("photo_url", url).Error; err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("Failed to save avatar URL")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"mimetype": contentType,
		"size":     size,
	})
}

// UploadSharedFile stores a document and registers it in the files browser.
func UploadSharedFile(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var uploader models.User
	if err := database.DB.First(&uploader, "id = ?", userId).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	key, url, contentType, name, size, err := putObject(c, "fiveaside/files")
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("File upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	record := models.File{
		Name:         name,
		ContentType:  contentType,
		Size:         size,
		StorageKey:   key,
		URL:          url,
		UploaderID:   userId,
		UploaderName: uploader.ResolveDisplayName(),
	}
	if err := database.DB.Create(&record).Error; err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to register uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": record})
}
