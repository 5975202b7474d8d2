package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

var messageStore services.MessageStore = services.GormMessageStore{}

// GetConversations folds the caller's full message snapshot into the
// deduplicated direct-conversation list, newest first.
func GetConversations(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	messages, err := messageStore.ListForParticipant(userId)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("Failed to load message snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	dir := services.NewDirectory()
	dir.LoadAll(userId)

	conversations := services.FoldConversations(userId, messages, dir)
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the ordered message log for one conversation.
// Pass ?userId= for a direct thread or ?conversationId= for a group.
func GetMessages(c *gin.Context) {
	currentUserID := c.MustGet("userId").(string)

	conversationID := c.Query("conversationId")
	if otherUserID := c.Query("userId"); otherUserID != "" {
		conversationID = services.ConversationKey(currentUserID, otherUserID)
	}
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId or conversationId required"})
		return
	}

	messages, err := messageStore.ListConversation(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	// Membership check piggybacks on the participants filter: a caller who
	// is not in the set sees nothing rather than an error.
	visible := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Participants.Contains(currentUserID) {
			visible = append(visible, m)
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": visible})
}

type SendMessageInput struct {
	RecipientID string `json:"recipientId"`
	GroupID     string `json:"groupId"`
	Content     string `json:"content" binding:"required"`
}

// SendMessage persists one message and fans it out to the participants'
// socket rooms. Exactly one of recipientId and groupId must be set.
func SendMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := utils.ValidateMessageContent(input.Content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (input.RecipientID == "") == (input.GroupID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of recipientId or groupId is required"})
		return
	}

	var sender models.User
	if err := database.DB.First(&sender, "id = ?", senderID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	msg := models.Message{
		Content:     input.Content,
		SenderID:    senderID,
		SenderName:  sender.ResolveDisplayName(),
		SenderPhoto: sender.AvatarURL(),
	}

	if input.GroupID != "" {
		group, err := services.GetGroup(input.GroupID)
		if err != nil {
			c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		if !group.Members.Contains(senderID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this group"})
			return
		}
		msg.ConversationID = group.ID
		msg.Participants = group.Members
		msg.Kind = models.KindGroup
	} else {
		msg.ConversationID = services.ConversationKey(senderID, input.RecipientID)
		msg.Participants = models.StringList{senderID, input.RecipientID}.Sorted()
		msg.Kind = models.KindDirect
	}

	if err := messageStore.Insert(&msg); err != nil {
		logger.Error().Err(err).Str("sender_id", senderID).Msg("Failed to send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if msg.Kind == models.KindGroup {
		// Best effort; the message itself is already committed.
		if err := messageStore.UpdateGroupSummary(msg.ConversationID, msg.Content, msg.Timestamp); err != nil {
			logger.Warn().Err(err).Str("group_id", msg.ConversationID).Msg("Group summary update failed")
		}
		services.BumpGroupUnread(msg.ConversationID, senderID)
	}

	EmitToUsers(msg.Participants, "receive_message", gin.H{"message": msg})

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage removes one of the caller's own messages. Deleting the
// newest message of a group refreshes the group's summary line.
func DeleteMessage(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	messageID := c.Param("id")

	var msg models.Message
	if err := database.DB.First(&msg, "id = ?", messageID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	if msg.SenderID != userId {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own messages"})
		return
	}

	if err := messageStore.Delete(messageID); err != nil {
		logger.Error().Err(err).Str("message_id", messageID).Msg("Failed to delete message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	if msg.Kind == models.KindGroup {
		refreshGroupSummary(msg.ConversationID)
	}

	EmitToUsers(msg.Participants, "message_deleted", gin.H{
		"messageId":      messageID,
		"conversationId": msg.ConversationID,
	})

	c.JSON(http.StatusOK, gin.H{"deleted": messageID})
}

// refreshGroupSummary recomputes the last-message line from whatever
// remains in the group's log.
func refreshGroupSummary(groupID string) {
	remaining, err := messageStore.ListConversation(groupID)
	if err != nil {
		logger.Warn().Err(err).Str("group_id", groupID).Msg("Summary refresh skipped")
		return
	}

	lastMessage := ""
	var lastAt *models.Message
	for i := range remaining {
		m := &remaining[i]
		if m.Timestamp == nil {
			continue
		}
		if lastAt == nil || m.Timestamp.After(*lastAt.Timestamp) {
			lastAt = m
		}
	}
	if lastAt != nil {
		lastMessage = lastAt.Content
		if err := messageStore.UpdateGroupSummary(groupID, lastMessage, lastAt.Timestamp); err != nil {
			logger.Warn().Err(err).Str("group_id", groupID).Msg("Group summary update failed")
		}
		return
	}
	if err := messageStore.UpdateGroupSummary(groupID, "", nil); err != nil {
		logger.Warn().Err(err).Str("group_id", groupID).Msg("Group summary update failed")
	}
}

// MarkRead flags every unread message addressed to the caller in one
// conversation. Fire and forget from the client's point of view; the
// response reports how many rows actually flipped.
func MarkRead(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	conversationID := c.Param("conversationId")

	messages, err := messageStore.ListConversation(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark read"})
		return
	}

	marked := 0
	for _, m := range messages {
		if m.Read || m.SenderID == userId || !m.Participants.Contains(userId) {
			continue
		}
		if err := messageStore.MarkRead(m.ID); err != nil {
			// Unmarked survivors are picked up by the next pass.
			logger.Warn().Err(err).Str("message_id", m.ID).Msg("Mark read failed")
			continue
		}
		marked++
	}

	// Group threads additionally keep a per-member unread counter.
	if len(messages) > 0 && messages[0].Kind == models.KindGroup {
		services.ClearGroupUnread(conversationID, userId)
	}

	// Tell the other side their messages were seen.
	if marked > 0 {
		EmitToUsers(messages[0].Participants, "message_read", gin.H{
			"conversationId": conversationID,
			"readerId":       userId,
		})
	}

	c.JSON(http.StatusOK, gin.H{"markedRead": marked})
}
