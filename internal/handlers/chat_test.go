package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
)

func seedChatUsers(t *testing.T) (models.User, models.User, models.User) {
	t.Helper()

	alice := models.User{ID: "alice_h", Email: "alice_h@example.com", FirstName: "Alice", LastName: "Adams"}
	bob := models.User{ID: "bob_h", Email: "bob_h@example.com", FirstName: "Bob", LastName: "Brown"}
	carol := models.User{ID: "carol_h", Email: "carol_h@example.com", FirstName: "Carol", LastName: "Cruz"}
	database.DB.Create(&alice)
	database.DB.Create(&bob)
	database.DB.Create(&carol)
	return alice, bob, carol
}

func postJSON(handler gin.HandlerFunc, userID, path string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	payload, _ := json.Marshal(body)
	c.Request, _ = http.NewRequest("POST", path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userId", userID)
	handler(c)
	return w
}

func TestSendMessageDirect(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, _ := seedChatUsers(t)

	w := postJSON(SendMessage, alice.ID, "/api/chat/messages", gin.H{
		"recipientId": bob.ID,
		"content":     "hey bob",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Message models.Message `json:"message"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, services.ConversationKey(alice.ID, bob.ID), response.Message.ConversationID)
	assert.Equal(t, "Alice Adams", response.Message.SenderName)
	assert.Equal(t, models.KindDirect, response.Message.Kind)
	assert.NotNil(t, response.Message.Timestamp)

	var stored models.Message
	assert.NoError(t, database.DB.First(&stored, "id = ?", response.Message.ID).Error)
	assert.True(t, stored.Participants.Contains(alice.ID))
	assert.True(t, stored.Participants.Contains(bob.ID))
}

func TestSendMessageRejectsEmptyAndAmbiguous(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, _ := seedChatUsers(t)

	// Whitespace-only content
	w := postJSON(SendMessage, alice.ID, "/api/chat/messages", gin.H{
		"recipientId": bob.ID,
		"content":     "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Both targets at once
	w = postJSON(SendMessage, alice.ID, "/api/chat/messages", gin.H{
		"recipientId": bob.ID,
		"groupId":     "g1",
		"content":     "hi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	database.DB.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSendMessageGroupUpdatesSummary(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, carol := seedChatUsers(t)

	dir := services.NewDirectory()
	dir.LoadAll("")
	group, err := services.CreateGroup(services.CreateGroupInput{
		Name:      "Squad",
		CreatorID: alice.ID,
		MemberIDs: []string{bob.ID, carol.ID},
	}, messageStore, dir)
	assert.NoError(t, err)

	w := postJSON(SendMessage, bob.ID, "/api/chat/messages", gin.H{
		"groupId": group.ID,
		"content": "who's in for Saturday?",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Group
	assert.NoError(t, database.DB.First(&updated, "id = ?", group.ID).Error)
	assert.Equal(t, "who's in for Saturday?", updated.LastMessage)
	// Everyone but the sender gains an unread
	assert.Equal(t, 1, updated.UnreadCounts[alice.ID])
	assert.Equal(t, 0, updated.UnreadCounts[bob.ID])
	assert.Equal(t, 1, updated.UnreadCounts[carol.ID])
}

func TestSendMessageGroupRequiresMembership(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, carol := seedChatUsers(t)

	dir := services.NewDirectory()
	dir.LoadAll("")
	group, err := services.CreateGroup(services.CreateGroupInput{
		Name:      "Duo",
		CreatorID: alice.ID,
		MemberIDs: []string{bob.ID},
	}, messageStore, dir)
	assert.NoError(t, err)

	w := postJSON(SendMessage, carol.ID, "/api/chat/messages", gin.H{
		"groupId": group.ID,
		"content": "let me in",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetConversationsFoldsSnapshot(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, carol := seedChatUsers(t)

	for _, send := range []struct {
		from, to, content string
		minsAgo           int
	}{
		{alice.ID, bob.ID, "first", 30},
		{bob.ID, alice.ID, "second", 20},
		{carol.ID, alice.ID, "newest", 10},
	} {
		ts := time.Now().Add(-time.Duration(send.minsAgo) * time.Minute)
		database.DB.Create(&models.Message{
			ConversationID: services.ConversationKey(send.from, send.to),
			Content:        send.content,
			SenderID:       send.from,
			Participants:   models.StringList{send.from, send.to}.Sorted(),
			Timestamp:      &ts,
			Kind:           models.KindDirect,
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/conversations", nil)
	c.Set("userId", alice.ID)

	GetConversations(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Conversations []services.Conversation `json:"conversations"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Len(t, response.Conversations, 2)
	// Newest thread first
	assert.Equal(t, "newest", response.Conversations[0].LastMessage)
	assert.Equal(t, "Carol Cruz", response.Conversations[0].OtherParticipant.DisplayName)
	// Bob's reply is unread for Alice
	assert.Equal(t, "second", response.Conversations[1].LastMessage)
	assert.Equal(t, 1, response.Conversations[1].UnreadCount)
}

func TestGetMessagesFiltersNonParticipants(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, carol := seedChatUsers(t)

	ts := time.Now()
	database.DB.Create(&models.Message{
		ConversationID: services.ConversationKey(alice.ID, bob.ID),
		Content:        "private",
		SenderID:       alice.ID,
		Participants:   models.StringList{alice.ID, bob.ID}.Sorted(),
		Timestamp:      &ts,
		Kind:           models.KindDirect,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/messages?conversationId="+services.ConversationKey(alice.ID, bob.ID), nil)
	c.Request.URL.RawQuery = "conversationId=" + services.ConversationKey(alice.ID, bob.ID)
	c.Set("userId", carol.ID)

	GetMessages(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Messages []models.Message `json:"messages"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Empty(t, response.Messages)
}

func TestDeleteMessageOwnershipAndSummary(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, carol := seedChatUsers(t)

	dir := services.NewDirectory()
	dir.LoadAll("")
	group, err := services.CreateGroup(services.CreateGroupInput{
		Name:      "Squad",
		CreatorID: alice.ID,
		MemberIDs: []string{bob.ID, carol.ID},
	}, messageStore, dir)
	assert.NoError(t, err)

	// Push the creation announcement into the past so the surviving chat
	// message is the newest row after the delete.
	announcementAt := time.Now().Add(-time.Hour)
	database.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND is_system = ?", group.ID, true).
		Update("timestamp", &announcementAt)

	// Two messages; the newest will be deleted.
	earlier := time.Now().Add(-5 * time.Minute)
	keep := models.Message{
		ConversationID: group.ID,
		Content:        "keep me",
		SenderID:       alice.ID,
		Participants:   group.Members,
		Timestamp:      &earlier,
		Kind:           models.KindGroup,
	}
	database.DB.Create(&keep)

	postJSON(SendMessage, bob.ID, "/api/chat/messages", gin.H{
		"groupId": group.ID,
		"content": "delete me",
	})

	var newest models.Message
	database.DB.Where("content = ?", "delete me").First(&newest)

	// Alice cannot delete Bob's message
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("DELETE", "/api/chat/messages/"+newest.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: newest.ID}}
	c.Set("userId", alice.ID)
	DeleteMessage(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Bob can, and the summary falls back to the surviving message
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("DELETE", "/api/chat/messages/"+newest.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: newest.ID}}
	c.Set("userId", bob.ID)
	DeleteMessage(c)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Group
	database.DB.First(&updated, "id = ?", group.ID)
	assert.Equal(t, "keep me", updated.LastMessage)
}

func TestMarkReadFlagsOnlyOthersMessages(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	alice, bob, _ := seedChatUsers(t)

	convID := services.ConversationKey(alice.ID, bob.ID)
	ts := time.Now()
	mine := models.Message{
		ConversationID: convID,
		Content:        "mine",
		SenderID:       alice.ID,
		Participants:   models.StringList{alice.ID, bob.ID}.Sorted(),
		Timestamp:      &ts,
		Kind:           models.KindDirect,
	}
	theirs := models.Message{
		ConversationID: convID,
		Content:        "theirs",
		SenderID:       bob.ID,
		Participants:   models.StringList{alice.ID, bob.ID}.Sorted(),
		Timestamp:      &ts,
		Kind:           models.KindDirect,
	}
	database.DB.Create(&mine)
	database.DB.Create(&theirs)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/read/"+convID, nil)
	c.Params = gin.Params{{Key: "conversationId", Value: convID}}
	c.Set("userId", alice.ID)

	MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		MarkedRead int `json:"markedRead"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, 1, response.MarkedRead)

	var storedMine, storedTheirs models.Message
	database.DB.First(&storedMine, "id = ?", mine.ID)
	database.DB.First(&storedTheirs, "id = ?", theirs.ID)
	assert.False(t, storedMine.Read)
	assert.True(t, storedTheirs.Read)
}
