package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/internal/services"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

var SocketServer *socketio.Server

// Presence tracking
var (
	onlineUsers   = make(map[string]string) // userId -> socketId
	onlineUsersMu sync.RWMutex
)

// Typing throttle: one emit per sender per interval.
var (
	lastTypingEmit         = make(map[string]time.Time)
	lastTypingMu           sync.RWMutex
	typingThrottleDuration = 3 * time.Second
)

// Live channel sessions: each socket holds at most one open conversation
// feed at a time. Opening a new one tears down the previous.
var (
	liveChannels   = make(map[string]*liveChannel) // socketId -> session
	liveChannelsMu sync.Mutex
)

type liveChannel struct {
	channel *services.Channel
	cancel  context.CancelFunc
}

// EmitToUsers fans an event out to each user's personal room. Safe to call
// before the socket server is up; it just drops the emit.
func EmitToUsers(userIDs models.StringList, event string, payload interface{}) {
	if SocketServer == nil {
		return
	}
	for _, id := range userIDs {
		SocketServer.BroadcastToRoom("/", id, event, payload)
	}
}

// GetOnlineUsers returns the ids of currently connected users.
func GetOnlineUsers() []string {
	onlineUsersMu.RLock()
	defer onlineUsersMu.RUnlock()

	users := make([]string, 0, len(onlineUsers))
	for userId := range onlineUsers {
		users = append(users, userId)
	}
	return users
}

func IsUserOnline(userId string) bool {
	onlineUsersMu.RLock()
	defer onlineUsersMu.RUnlock()
	_, exists := onlineUsers[userId]
	return exists
}

// BroadcastPresenceUpdate broadcasts user online/offline status to all clients
func BroadcastPresenceUpdate(userId string, isOnline bool) {
	if SocketServer != nil {
		SocketServer.BroadcastToRoom("/", "presence", "presence_update", map[string]interface{}{
			"userId":   userId,
			"isOnline": isOnline,
		})
	}
}

// closeLiveChannel tears down the live feed held by one socket, if any.
func closeLiveChannel(socketID string) {
	liveChannelsMu.Lock()
	session, ok := liveChannels[socketID]
	if ok {
		delete(liveChannels, socketID)
	}
	liveChannelsMu.Unlock()

	if ok {
		session.cancel()
		session.channel.Close()
	}
}

func InitSocketServer() *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		url := s.URL()

		token := url.Query().Get("token")
		if token == "" {
			token = url.Query().Get("auth_token")
		}
		if token == "" {
			logger.Warn().Str("socket_id", s.ID()).Msg("Socket connection rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			logger.Warn().Str("socket_id", s.ID()).Msg("Socket connection rejected: invalid token")
			return fmt.Errorf("invalid token")
		}

		userId := claims.UserID
		s.SetContext(userId)

		onlineUsersMu.Lock()
		onlineUsers[userId] = s.ID()
		onlineUsersMu.Unlock()

		// Personal room for targeted events, shared room for presence.
		s.Join(userId)
		s.Join("presence")

		BroadcastPresenceUpdate(userId, true)
		s.Emit("online_users", GetOnlineUsers())

		logger.Debug().Str("socket_id", s.ID()).Str("user_id", userId).Msg("Socket authenticated")
		return nil
	})

	// open_conversation starts a live feed for one thread: an immediate
	// snapshot, then a fresh snapshot on every change notification.
	server.OnEvent("/", "open_conversation", func(s socketio.Conn, data map[string]interface{}) {
		userId, _ := s.Context().(string)
		if userId == "" {
			return
		}

		var conversationID, kind string
		var participants models.StringList

		if groupID, _ := data["groupId"].(string); groupID != "" {
			group, err := services.GetGroup(groupID)
			if err != nil || !group.Members.Contains(userId) {
				s.Emit("conversation_error", map[string]interface{}{"error": "Group not available"})
				return
			}
			conversationID = group.ID
			kind = models.KindGroup
			participants = group.Members
		} else if otherID, _ := data["userId"].(string); otherID != "" {
			conversationID = services.ConversationKey(userId, otherID)
			kind = models.KindDirect
			participants = models.StringList{userId, otherID}.Sorted()
		} else {
			return
		}

		var sender models.User
		if err := database.DB.First(&sender, "id = ?", userId).Error; err != nil {
			s.Emit("conversation_error", map[string]interface{}{"error": "User not found"})
			return
		}

		closeLiveChannel(s.ID())

		channel := services.NewChannel(conversationID, kind, participants, services.Sender{
			ID:       userId,
			Name:     sender.ResolveDisplayName(),
			PhotoURL: sender.AvatarURL(),
		}, messageStore, services.RedisNotifier{})

		ctx, cancel := context.WithCancel(context.Background())
		if err := channel.Open(ctx); err != nil {
			cancel()
			s.Emit("conversation_error", map[string]interface{}{"error": "Failed to open conversation"})
			return
		}

		liveChannelsMu.Lock()
		liveChannels[s.ID()] = &liveChannel{channel: channel, cancel: cancel}
		liveChannelsMu.Unlock()

		emitSnapshot := func() {
			s.Emit("conversation_snapshot", map[string]interface{}{
				"conversationId": conversationID,
				"messages":       channel.Messages(),
			})
		}
		emitSnapshot()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-channel.Updates():
					if !ok {
						return
					}
					emitSnapshot()
				}
			}
		}()
	})

	server.OnEvent("/", "close_conversation", func(s socketio.Conn, msg string) {
		closeLiveChannel(s.ID())
	})

	// send_message posts through the live channel, so the sender's own feed
	// reflects the message immediately and reconciles on the next snapshot.
	server.OnEvent("/", "send_message", func(s socketio.Conn, data map[string]interface{}) {
		userId, _ := s.Context().(string)
		content, _ := data["content"].(string)
		if userId == "" {
			return
		}

		liveChannelsMu.Lock()
		session := liveChannels[s.ID()]
		liveChannelsMu.Unlock()
		if session == nil {
			s.Emit("send_error", map[string]interface{}{"error": "No open conversation"})
			return
		}

		msg, err := session.channel.Send(content)
		if err != nil {
			s.Emit("send_error", map[string]interface{}{"error": err.Error()})
			return
		}

		if msg.Kind == models.KindGroup {
			services.BumpGroupUnread(msg.ConversationID, userId)
		}
		EmitToUsers(msg.Participants, "receive_message", map[string]interface{}{"message": msg})
	})

	server.OnEvent("/", "delete_message", func(s socketio.Conn, data map[string]interface{}) {
		userId, _ := s.Context().(string)
		messageID, _ := data["messageId"].(string)
		if userId == "" || messageID == "" {
			return
		}

		liveChannelsMu.Lock()
		session := liveChannels[s.ID()]
		liveChannelsMu.Unlock()
		if session == nil {
			return
		}

		if err := session.channel.Delete(messageID); err != nil {
			s.Emit("send_error", map[string]interface{}{"error": err.Error()})
		}
	})

	server.OnEvent("/", "typing", func(s socketio.Conn, data map[string]interface{}) {
		recipientID, ok := data["recipientId"].(string)
		if !ok || recipientID == "" {
			return
		}

		senderID, _ := s.Context().(string)
		if senderID == "" {
			return
		}

		lastTypingMu.RLock()
		lastTime, exists := lastTypingEmit[senderID]
		lastTypingMu.RUnlock()
		if exists && time.Since(lastTime) < typingThrottleDuration {
			return
		}

		lastTypingMu.Lock()
		lastTypingEmit[senderID] = time.Now()
		lastTypingMu.Unlock()

		server.BroadcastToRoom("/", recipientID, "user_typing", map[string]interface{}{
			"userId":    senderID,
			"expiresAt": time.Now().Add(4 * time.Second).Unix(),
		})
	})

	server.OnEvent("/", "get_online_users", func(s socketio.Conn, msg string) {
		s.Emit("online_users", GetOnlineUsers())
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		closeLiveChannel(s.ID())

		onlineUsersMu.Lock()
		var disconnectedUserId string
		for userId, socketId := range onlineUsers {
			if socketId == s.ID() {
				disconnectedUserId = userId
				delete(onlineUsers, userId)
				break
			}
		}
		onlineUsersMu.Unlock()

		if disconnectedUserId != "" {
			BroadcastPresenceUpdate(disconnectedUserId, false)
		}
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("Socket error")
	})

	go server.Serve()
	SocketServer = server
	return server
}

// Gin handler to wrap socket.io.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
