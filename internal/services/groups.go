package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

// CreateGroupInput carries the group-creation form.
type CreateGroupInput struct {
	Name        string
	Description string
	CreatorID   string
	MemberIDs   []string
}

// CreateGroup validates and persists a group conversation, then appends the
// system message announcing creation into the shared message feed, tagged
// with the group's conversation id.
func CreateGroup(input CreateGroupInput, store MessageStore, resolver ParticipantResolver) (*models.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("Group name is required")
	}

	// Dedupe and drop the creator from the selected member list.
	seen := map[string]bool{input.CreatorID: true}
	others := make([]string, 0, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
	}
	if len(others) < 1 {
		return nil, errors.Validation("Select at least one member besides yourself")
	}

	members := append(models.StringList{input.CreatorID}, others...).Sorted()

	details := make(models.MemberDetailList, 0, len(members))
	creatorName := "Unknown User"
	for _, id := range members {
		detail, ok := models.MemberDetail{}, false
		if resolver != nil {
			detail, ok = resolver.Resolve(id)
		}
		if !ok {
			detail = unknownParticipant(id)
		}
		if id == input.CreatorID {
			creatorName = detail.DisplayName
		}
		details = append(details, detail)
	}

	now := time.Now().UTC()
	announcement := fmt.Sprintf("%s created the group", creatorName)

	group := &models.Group{
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		CreatedBy:       input.CreatorID,
		Members:         members,
		MemberDetails:   details,
		LastMessage:     announcement,
		LastMessageTime: &now,
		UnreadCounts:    models.CountMap{},
	}
	if err := database.DB.Create(group).Error; err != nil {
		return nil, errors.TransientIO("Failed to create group")
	}

	system := &models.Message{
		ConversationID: group.ID,
		Content:        announcement,
		SenderID:       input.CreatorID,
		SenderName:     creatorName,
		Participants:   members,
		IsSystem:       true,
		Kind:           models.KindGroup,
	}
	if err := store.Insert(system); err != nil {
		// The group exists without its announcement; log and return the
		// group rather than unwinding the creation.
		logger.Warn().Err(err).Str("group", group.ID).Msg("System message append failed")
	}

	return group, nil
}

// ListGroups returns every group containing memberID, newest activity first.
func ListGroups(memberID string) ([]models.Group, error) {
	var groups []models.Group
	err := database.DB.
		Where("members LIKE ?", models.LikeToken(memberID)).
		Find(&groups).Error
	if err != nil {
		return nil, errors.TransientIO("Failed to fetch groups")
	}

	// Portable nulls-last ordering across postgres and sqlite.
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].LastMessageTime, groups[j].LastMessageTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return groups, nil
}

// GetGroup loads one group row.
func GetGroup(groupID string) (*models.Group, error) {
	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("Group not found")
		}
		return nil, errors.TransientIO("Failed to fetch group")
	}
	return &group, nil
}

// DeleteGroup removes a group and its messages. Creator only. The cascade
// is best-effort two-step: a partial message-deletion failure logs and the
// row delete still proceeds, trading strict cleanup for responsiveness.
func DeleteGroup(groupID, requesterID string) error {
	group, err := GetGroup(groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != requesterID {
		return errors.Permission("Only the group creator can delete the group")
	}

	if err := database.DB.Delete(&models.Message{}, "conversation_id = ?", groupID).Error; err != nil {
		logger.Warn().Err(err).Str("group", groupID).Msg("Cascade message delete failed, proceeding with group delete")
	}

	if err := database.DB.Delete(&models.Group{}, "id = ?", groupID).Error; err != nil {
		return errors.TransientIO("Failed to delete group")
	}

	database.PublishFeedEvent(database.FeedEvent{ConversationID: groupID, Kind: "deleted"})
	return nil
}

// BumpGroupUnread increments the advisory unread counter of every member
// except the sender. Best-effort, last write wins.
func BumpGroupUnread(groupID, senderID string) {
	group, err := GetGroup(groupID)
	if err != nil {
		return
	}
	if group.UnreadCounts == nil {
		group.UnreadCounts = models.CountMap{}
	}
	for _, id := range group.Members {
		if id != senderID {
			group.UnreadCounts[id]++
		}
	}
	if err := database.DB.Model(group).Update("unread_counts", group.UnreadCounts).Error; err != nil {
		logger.Warn().Err(err).Str("group", groupID).Msg("Unread counter bump failed")
	}
}

// ClearGroupUnread zeroes the reader's counter after the conversation is
// opened.
func ClearGroupUnread(groupID, readerID string) {
	group, err := GetGroup(groupID)
	if err != nil {
		return
	}
	if group.UnreadCounts == nil || group.UnreadCounts[readerID] == 0 {
		return
	}
	group.UnreadCounts[readerID] = 0
	if err := database.DB.Model(group).Update("unread_counts", group.UnreadCounts).Error; err != nil {
		logger.Warn().Err(err).Str("group", groupID).Msg("Unread counter clear failed")
	}
}
