package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/navigation"
	"go.uber.org/zap"
)

// NavigationHandler 导航处理器
type NavigationHandler struct {
	resolver *navigation.Resolver
	logger   *zap.Logger
}

// NewNavigationHandler 创建导航处理器
func NewNavigationHandler(resolver *navigation.Resolver, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// navigationRequest 导航请求
type navigationRequest struct {
	CurrentPage string `json:"current_page"`
	Choice      string `json:"choice"`
}

// HandleNavigation 解析页面跳转
//
// redirect为null表示停留在当前页面，与跳转首页是两种结果。
func (h *NavigationHandler) HandleNavigation(c *gin.Context) {
	var req navigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
		return
	}
	if req.CurrentPage == "" || req.Choice == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少current_page或choice参数"})
		return
	}

	target, ok := h.resolver.Resolve(req.CurrentPage, gateway.Direction(req.Choice))

	h.logger.Info("导航解析",
		zap.String("current_page", req.CurrentPage),
		zap.String("choice", req.Choice),
		zap.String("target", target),
		zap.Bool("navigate", ok))

	if !ok {
		c.JSON(http.StatusOK, gin.H{"redirect": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": target})
}
