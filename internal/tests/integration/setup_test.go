package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Akin1234dot/Fifthlasb/internal/config"
	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/routes"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	logger.Init("test")
	config.AppConfig = &config.Config{
		JWTSecret:   "test_secret_key_12345",
		FrontendURL: "http://localhost:5173",
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	database.DB = db

	database.DB.Migrator().DropTable(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.File{},
	)
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.File{},
	); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}

	return db
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api")
	routes.RegisterAuthRoutes(api.Group("/auth"))
	routes.RegisterUserRoutes(api)
	routes.RegisterChatRoutes(api)
	routes.RegisterGroupRoutes(api)

	return r
}

func performRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerTestUser signs up one account through the public endpoint and
// returns its token and id.
func registerTestUser(t *testing.T, r *gin.Engine, email, first, last string) (token, id string) {
	w := performRequest(r, "POST", "/api/auth/register", map[string]interface{}{
		"email":     email,
		"password":  "secret12",
		"firstname": first,
		"lastname":  last,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Register failed for %s: %d %s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Token, resp.User.ID
}
