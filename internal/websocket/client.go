package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/projector"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
	ErrInvalidMessage = errors.New("无效的消息格式")
)

// WebSocket配置
const (
	// 写超时
	writeWait = 10 * time.Second

	// 读取pong超时
	pongWait = 60 * time.Second

	// ping发送周期（必须小于pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小（输入事件都很小）
	maxMessageSize = 4 * 1024
)

// Client WebSocket客户端
type Client struct {
	ID         string               // 客户端ID
	SessionKey string               // 会话键，重连时复用投影器
	Hub        *Hub                 // Hub引用
	Conn       *websocket.Conn      // WebSocket连接
	Send       chan []byte          // 发送通道
	proj       *projector.Projector // 该展示端的输入投影器
}

// NewClient 创建新客户端
//
// sessionKey标识展示端身份（通常取远端地址），同一展示端
// 重连时复用其投影器。传空则每个连接独立。
func NewClient(hub *Hub, conn *websocket.Conn, sessionKey string) *Client {
	id := uuid.New().String()
	if sessionKey == "" {
		sessionKey = id
	}

	return &Client{
		ID:         id,
		SessionKey: sessionKey,
		Hub:        hub,
		Conn:       conn,
		Send:       make(chan []byte, 256),
		proj:       hub.projectorFor(sessionKey),
	}
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		// 处理接收到的消息
		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 批量发送队列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Error("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError("消息格式错误")
		// 断开发送无效JSON的连接
		c.Close()
		return
	}

	// 验证消息类型不为空
	if msg.Type == "" {
		c.Hub.logger.Warn("收到空消息类型",
			zap.String("client_id", c.ID))
		c.sendError("消息类型不能为空")
		c.Close()
		return
	}

	// 根据消息类型处理
	switch msg.Type {
	case MessageTypePong:
		// 客户端响应ping
		c.Hub.logger.Debug("收到pong",
			zap.String("client_id", c.ID))

	case MessageTypeJoystickEvent:
		c.handleJoystickEvent(msg.Data)

	default:
		// 不支持的消息类型
		c.Hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError("不支持的消息类型: " + msg.Type)
		c.Close()
	}
}

// handleJoystickEvent 把展示端键盘事件送入投影器
//
// 投影器决定是否产生焦点移动或选中，视觉效果经由
// broadcastEffects回到所有展示端。重复投递是无害的：
// 悬停幂等，锁定窗口内的确认会被丢弃。
func (c *Client) handleJoystickEvent(data json.RawMessage) {
	var payload EventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.Hub.logger.Warn("解析输入事件失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError("输入事件格式错误")
		return
	}

	switch payload.Type {
	case "joystick":
		dir, err := gateway.ParseDirection(payload.Direction)
		if err != nil {
			c.Hub.logger.Warn("无效的方向",
				zap.String("client_id", c.ID),
				zap.String("direction", payload.Direction))
			return
		}
		c.proj.HandleDirection(dir)

	case "select":
		// choice可省略，投影器使用当前焦点
		choice := gateway.Direction(payload.Choice)
		c.proj.HandleSelect(choice)

	default:
		c.Hub.logger.Warn("未知的输入事件类型",
			zap.String("client_id", c.ID),
			zap.String("type", payload.Type))
	}
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	errorMsg := &Message{
		Type:      MessageTypeError,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	c.Hub.SendToClient(c.ID, errorMsg)
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.Hub.unregister <- c
}
