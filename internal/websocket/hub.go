package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/projector"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 展示端投影器，按会话键保留，断线重连时复用
	projectors map[string]*projector.Projector
	projMu     sync.Mutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 日志
	logger *zap.Logger
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`           // 消息类型
	ClientID  string          `json:"client_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"` // 消息数据
	Timestamp int64           `json:"timestamp"`      // 时间戳
}

// EventPayload 输入事件载荷
//
// joystick_event入站与gpio_event出站共用同一结构：
// type为joystick时带direction，为select时带choice。
type EventPayload struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	Choice    string `json:"choice,omitempty"`
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnectionEstablished = "connection_established"
	MessageTypePing                  = "ping"
	MessageTypePong                  = "pong"
	MessageTypeError                 = "error"

	// 输入事件消息
	MessageTypeJoystickEvent = "joystick_event"
	MessageTypeGPIOEvent     = "gpio_event"
	MessageTypeCardDetected  = "card_detected"
)

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		projectors: make(map[string]*projector.Projector),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	// 启动心跳检测
	go h.runHeartbeat()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// projectorFor 取出或创建会话对应的投影器
//
// 同一展示端重连时复用旧投影器，保留重连计数：
// 连续失败超限后进入禁用态，不因重建连接而复位。
func (h *Hub) projectorFor(sessionKey string) *projector.Projector {
	h.projMu.Lock()
	defer h.projMu.Unlock()

	if proj, ok := h.projectors[sessionKey]; ok {
		proj.HandleReconnect()
		return proj
	}

	proj := projector.New(&broadcastEffects{hub: h}, h.logger)
	h.projectors[sessionKey] = proj
	return proj
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.String("session", client.SessionKey))

	// 下发连接确认，携带分配的客户端ID
	msg := &Message{
		Type:      MessageTypeConnectionEstablished,
		ClientID:  client.ID,
		Timestamp: time.Now().Unix(),
	}
	h.SendToClient(client.ID, msg)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()
	if !ok {
		// 已注销过（Close与ReadPump退出都会触发注销）
		return
	}

	// 记一次断线，投影器保留以便重连复用
	client.proj.HandleDisconnect()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.String("session", client.SessionKey))
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// 发送缓冲区满，丢弃本条消息
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", client.ID))
		}
	}
	h.clientsMu.RUnlock()
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	client, ok := h.clients[clientID]
	h.clientsMu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// BroadcastEvent 广播输入事件
func (h *Hub) BroadcastEvent(msgType string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("序列化事件载荷失败", zap.Error(err))
		return
	}

	h.broadcast <- &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// BroadcastCardDetected 广播读卡事件
func (h *Hub) BroadcastCardDetected(payload json.RawMessage) {
	h.broadcast <- &Message{
		Type:      MessageTypeCardDetected,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	}
}

// GetOnlineCount 获取在线客户端数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// runHeartbeat 运行心跳检测
func (h *Hub) runHeartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C
		ping := &Message{
			Type:      MessageTypePing,
			Timestamp: time.Now().Unix(),
		}
		h.broadcast <- ping
	}
}

// Broadcast 广播消息（公开方法）
func (h *Hub) Broadcast(message *Message) {
	h.broadcast <- message
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// broadcastEffects 把投影器动作转成广播
//
// 聚焦与确认广播给所有展示端；失焦由新聚焦隐含，不单独下发。
type broadcastEffects struct {
	hub *Hub
}

func (e *broadcastEffects) Focus(dir gateway.Direction) {
	e.hub.BroadcastEvent(MessageTypeGPIOEvent, EventPayload{
		Type:      "joystick",
		Direction: string(dir),
	})
}

func (e *broadcastEffects) Blur(dir gateway.Direction) {
	e.hub.logger.Debug("选项失焦", zap.String("direction", string(dir)))
}

func (e *broadcastEffects) Activate(choice gateway.Direction) {
	e.hub.BroadcastEvent(MessageTypeGPIOEvent, EventPayload{
		Type:   "select",
		Choice: string(choice),
	})
}
