package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
)

// Full direct-message flow: register two users, message back and forth,
// check the folded conversation list and mark-read from both sides.
func TestDirectMessageFlow_e2e(t *testing.T) {
	setupTestDB(t)
	r := setupRouter()

	aliceToken, aliceID := registerTestUser(t, r, "alice_e2e@example.com", "Alice", "Adams")
	bobToken, bobID := registerTestUser(t, r, "bob_e2e@example.com", "Bob", "Brown")

	// Alice finds Bob in the directory
	w := performRequest(r, "GET", "/api/users?search=bob", nil, aliceToken)
	assert.Equal(t, http.StatusOK, w.Code)
	var dirResp struct {
		Users []services.DirectoryEntry `json:"users"`
	}
	json.Unmarshal(w.Body.Bytes(), &dirResp)
	assert.Len(t, dirResp.Users, 1)
	assert.Equal(t, bobID, dirResp.Users[0].ID)

	// Alice messages Bob, Bob replies
	w = performRequest(r, "POST", "/api/chat/messages", map[string]interface{}{
		"recipientId": bobID,
		"content":     "hey bob",
	}, aliceToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, "POST", "/api/chat/messages", map[string]interface{}{
		"recipientId": aliceID,
		"content":     "hi alice",
	}, bobToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// Both ends see one deduplicated conversation
	convID := services.ConversationKey(aliceID, bobID)
	for _, token := range []string{aliceToken, bobToken} {
		w = performRequest(r, "GET", "/api/chat/conversations", nil, token)
		assert.Equal(t, http.StatusOK, w.Code)

		var convResp struct {
			Conversations []services.Conversation `json:"conversations"`
		}
		json.Unmarshal(w.Body.Bytes(), &convResp)
		assert.Len(t, convResp.Conversations, 1)
		assert.Equal(t, convID, convResp.Conversations[0].ID)
		assert.Equal(t, "hi alice", convResp.Conversations[0].LastMessage)
		assert.Equal(t, 1, convResp.Conversations[0].UnreadCount)
	}

	// Alice opens the thread and marks it read
	w = performRequest(r, "POST", "/api/chat/read/"+convID, nil, aliceToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, "GET", "/api/chat/conversations", nil, aliceToken)
	var afterRead struct {
		Conversations []services.Conversation `json:"conversations"`
	}
	json.Unmarshal(w.Body.Bytes(), &afterRead)
	assert.Equal(t, 0, afterRead.Conversations[0].UnreadCount)

	// Bob's unread is untouched
	w = performRequest(r, "GET", "/api/chat/conversations", nil, bobToken)
	var bobSide struct {
		Conversations []services.Conversation `json:"conversations"`
	}
	json.Unmarshal(w.Body.Bytes(), &bobSide)
	assert.Equal(t, 1, bobSide.Conversations[0].UnreadCount)
}

// Group flow: create, announce, message, creator-only delete.
func TestGroupFlow_e2e(t *testing.T) {
	setupTestDB(t)
	r := setupRouter()

	aliceToken, _ := registerTestUser(t, r, "alice_g@example.com", "Alice", "Adams")
	bobToken, bobID := registerTestUser(t, r, "bob_g@example.com", "Bob", "Brown")
	_, carolID := registerTestUser(t, r, "carol_g@example.com", "Carol", "Cruz")

	// Alice creates a group with Bob and Carol
	w := performRequest(r, "POST", "/api/groups", map[string]interface{}{
		"name":    "Saturday Squad",
		"members": []string{bobID, carolID},
	}, aliceToken)
	assert.Equal(t, http.StatusCreated, w.Code)

	var createResp struct {
		Group models.Group `json:"group"`
	}
	json.Unmarshal(w.Body.Bytes(), &createResp)
	groupID := createResp.Group.ID
	assert.Len(t, createResp.Group.Members, 3)

	// The announcement message is already in the log
	w = performRequest(r, "GET", "/api/chat/messages?conversationId="+groupID, nil, bobToken)
	assert.Equal(t, http.StatusOK, w.Code)
	var msgResp struct {
		Messages []models.Message `json:"messages"`
	}
	json.Unmarshal(w.Body.Bytes(), &msgResp)
	assert.Len(t, msgResp.Messages, 1)
	assert.True(t, msgResp.Messages[0].IsSystem)

	// Bob posts; the group's summary and list position update
	w = performRequest(r, "POST", "/api/chat/messages", map[string]interface{}{
		"groupId": groupID,
		"content": "pitch is booked",
	}, bobToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, "GET", "/api/groups", nil, aliceToken)
	var listResp struct {
		Groups []models.Group `json:"groups"`
	}
	json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.Len(t, listResp.Groups, 1)
	assert.Equal(t, "pitch is booked", listResp.Groups[0].LastMessage)

	// Only the creator may delete
	w = performRequest(r, "DELETE", "/api/groups/"+groupID, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(r, "DELETE", "/api/groups/"+groupID, nil, aliceToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// The log went with it
	countResp := performRequest(r, "GET", "/api/chat/messages?conversationId="+groupID, nil, aliceToken)
	var afterDelete struct {
		Messages []models.Message `json:"messages"`
	}
	json.Unmarshal(countResp.Body.Bytes(), &afterDelete)
	assert.Empty(t, afterDelete.Messages)
}
