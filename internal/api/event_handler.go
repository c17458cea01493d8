package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/stream"
	ws "github.com/wfunc/privacy-kiosk/internal/websocket"
	"go.uber.org/zap"
)

// EventHandler 输入事件处理器
//
// 适配器的推送入口与展示端的事件流出口。
type EventHandler struct {
	gw     *gateway.Gateway
	hub    *ws.Hub
	tick   time.Duration
	logger *zap.Logger
}

// NewEventHandler 创建事件处理器
func NewEventHandler(gw *gateway.Gateway, hub *ws.Hub, tick time.Duration, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		gw:     gw,
		hub:    hub,
		tick:   tick,
		logger: logger,
	}
}

// HealthCheck 健康检查
func (h *EventHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"queues":    h.gw.Stats(),
	})
}

// pushButtonRequest 按键推送请求
type pushButtonRequest struct {
	Choice string `json:"choice"`
}

// PushButton 接收适配器推送的按键事件
func (h *EventHandler) PushButton(c *gin.Context) {
	var req pushButtonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
		return
	}

	if err := h.gw.PushButton(req.Choice); err != nil {
		h.logger.Warn("拒绝无效按键事件",
			zap.String("choice", req.Choice),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "choice必须为left或right"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PushCard 接收适配器推送的读卡事件
//
// 载荷原样入队并广播，网关只做JSON合法性校验，
// 内容由展示端解释。
func (h *EventHandler) PushCard(c *gin.Context) {
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
		return
	}

	if err := h.gw.PushCard(payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "卡片载荷格式错误"})
		return
	}

	// 同步广播到WebSocket通道
	h.hub.BroadcastCardDetected(payload)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StreamEvents 事件流订阅（SSE）
//
// 连接保持到客户端断开，期间按节拍下发事件或心跳。
func (h *EventHandler) StreamEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	publisher := stream.NewPublisher(h.gw, h.tick, h.logger)
	if err := publisher.Serve(c.Request.Context(), c.Writer); err != nil {
		h.logger.Info("事件流连接结束", zap.Error(err))
	}
}
