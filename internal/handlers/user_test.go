package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Akin1234dot/Fifthlasb/internal/services"
)

func getDirectory(userID, path string) []services.DirectoryEntry {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", path, nil)
	c.Set("userId", userID)
	GetDirectory(c)

	var response struct {
		Users []services.DirectoryEntry `json:"users"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	return response.Users
}

func TestGetDirectoryWithoutSearchReturnsEveryoneElse(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, _, _ := seedChatUsers(t)

	users := getDirectory(alice.ID, "/api/users")
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, alice.ID, u.ID)
	}
}

func TestGetDirectorySearchMatchesSubstring(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, _ := seedChatUsers(t)

	users := getDirectory(alice.ID, "/api/users?search=bob")
	assert.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
	assert.Equal(t, "Bob Brown", users[0].DisplayName)

	// Whitespace-only queries behave like no query at all.
	users = getDirectory(alice.ID, "/api/users?search=%20%20")
	assert.Len(t, users, 2)

	users = getDirectory(alice.ID, "/api/users?search=nobody")
	assert.Len(t, users, 0)
}
