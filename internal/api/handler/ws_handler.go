package handler

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/pkg/consts"
	"ConectaYa/internal/pkg/redis"
	"ConectaYa/internal/pkg/response"
	"ConectaYa/internal/pkg/security"
	"ConectaYa/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// 客户端入站帧类型
const (
	frameChatMessage = "chat_message"
	frameTyping      = "typing"
)

// inboundFrame 客户端上行帧：{type, data}
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type chatMessageFrame struct {
	ConversationID uint64 `json:"conversation_id"`
	MsgType        string `json:"msg_type"`
	Content        string `json:"content"`
	FileURL        string `json:"file_url"`
}

type WsHandler struct {
	chatService service.ChatService
}

func NewWsHandler(chatService service.ChatService) *WsHandler {
	return &WsHandler{chatService: chatService}
}

// Connect WebSocket 入口：鉴权、升级、订阅个人频道，
// 读循环处理上行帧，写循环把 Redis 事件泵到连接上。
// 同一用户可开多条连接，每条各自订阅同一频道互不干扰。
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// 订阅用户个人频道
	channel := consts.IMUserKey + strconv.FormatUint(userID, 10)
	pubsub := redis.Subscribe(context.Background(), channel)
	defer func() {
		_ = pubsub.Close()
	}()

	log.Info("用户 WS 连接已建立", "userID", userID)

	greeting, _ := json.Marshal(&dto.RealtimeEvent{
		Type: service.EventConnEstablished,
		Data: gin.H{"user_id": userID},
	})
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, greeting); err != nil {
		log.Error("WS 问候帧发送失败", "userID", userID, "err", err)
		return
	}

	stopChan := make(chan struct{})

	// 读循环：处理上行帧，连接断开时退出
	go func() {
		defer close(stopChan)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleInbound(c.Request.Context(), userID, payload)
		}
	}()

	// 写循环：监听 Redis 并推送至客户端
	redisCh := pubsub.Channel()
	for {
		select {
		case msg := <-redisCh:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
			if err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}

// handleInbound 分发上行帧，单帧失败不影响连接存活
func (s *WsHandler) handleInbound(ctx context.Context, userID uint64, payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.WarnContext(ctx, "WS 上行帧解析失败", "userID", userID, "err", err)
		return
	}

	switch frame.Type {
	case frameChatMessage:
		var data chatMessageFrame
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		req := &dto.SendMessageReq{
			MsgType: data.MsgType,
			Content: data.Content,
			FileURL: data.FileURL,
		}
		if _, err := s.chatService.SendMessage(ctx, userID, data.ConversationID, req); err != nil {
			log.WarnContext(ctx, "WS 消息发送失败", "userID", userID, "conv", data.ConversationID, "err", err)
		}
	case frameTyping:
		var data dto.TypingReq
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		if err := s.chatService.Typing(ctx, userID, &data); err != nil {
			log.WarnContext(ctx, "WS 输入状态转发失败", "userID", userID, "err", err)
		}
	default:
		log.WarnContext(ctx, "WS 未知帧类型", "userID", userID, "type", frame.Type)
	}
}
