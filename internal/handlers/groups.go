package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/services"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
)

type CreateGroupInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Members     []string `json:"members" binding:"required"`
}

// CreateGroup creates a group conversation with a fixed member set and
// posts the creation announcement into its log.
func CreateGroup(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var input CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Load the full roster, creator included, so the announcement and the
	// member detail snapshot carry real names.
	dir := services.NewDirectory()
	dir.LoadAll("")

	group, err := services.CreateGroup(services.CreateGroupInput{
		Name:        input.Name,
		Description: input.Description,
		CreatorID:   userId,
		MemberIDs:   input.Members,
	}, messageStore, dir)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	EmitToUsers(group.Members, "group_created", gin.H{"group": group})

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// ListGroups returns the caller's groups, most recently active first.
func ListGroups(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	groups, err := services.ListGroups(userId)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func GetGroup(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	group, err := services.GetGroup(c.Param("id"))
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !group.Members.Contains(userId) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// DeleteGroup removes a group and, best effort, its message log. Only the
// creator may delete.
func DeleteGroup(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	groupID := c.Param("id")

	group, err := services.GetGroup(groupID)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := services.DeleteGroup(groupID, userId); err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	EmitToUsers(group.Members, "group_deleted", gin.H{"groupId": groupID})

	c.JSON(http.StatusOK, gin.H{"deleted": groupID})
}
