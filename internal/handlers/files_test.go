package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
)

func listFiles(userID, path string) (int, []models.File) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", path, nil)
	c.Set("userId", userID)
	ListFiles(c)

	var response struct {
		Files []models.File `json:"files"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	return w.Code, response.Files
}

func TestListFilesAndSearch(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, _, _ := seedChatUsers(t)

	database.DB.Create(&models.File{
		Name: "match-schedule.pdf", StorageKey: "fiveaside/files/a", UploaderID: alice.ID,
	})
	database.DB.Create(&models.File{
		Name: "team-photo.png", StorageKey: "fiveaside/files/b", UploaderID: alice.ID,
	})

	code, files := listFiles(alice.ID, "/api/files")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, files, 2)

	code, files = listFiles(alice.ID, "/api/files?search=match")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, files, 1)
	assert.Equal(t, "match-schedule.pdf", files[0].Name)

	// Uppercase query still matches; LIKE wildcards in the query are
	// treated as literals, not patterns.
	_, files = listFiles(alice.ID, "/api/files?search=MATCH")
	assert.Len(t, files, 1)

	_, files = listFiles(alice.ID, "/api/files?search=%25")
	assert.Len(t, files, 0)

	_, files = listFiles(alice.ID, "/api/files?search=nothing-here")
	assert.Len(t, files, 0)
}
