package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/privacy-kiosk/internal/service"
	"go.uber.org/zap"
)

// QuizHandler 问答处理器
type QuizHandler struct {
	quiz         service.QuizService
	defaultSetID int
	logger       *zap.Logger
}

// NewQuizHandler 创建问答处理器
func NewQuizHandler(quiz service.QuizService, defaultSetID int, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		quiz:         quiz,
		defaultSetID: defaultSetID,
		logger:       logger,
	}
}

// FetchQuestions 获取一组题目
//
// 返回裸数组，展示端直接按下标驱动答题状态机。
func (h *QuizHandler) FetchQuestions(c *gin.Context) {
	setID := h.defaultSetID
	if raw := c.Query("set_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "set_id必须为整数"})
			return
		}
		setID = parsed
	}

	questions, err := h.quiz.FetchQuestions(c.Request.Context(), setID)
	if err != nil {
		h.logger.Error("获取题目失败", zap.Int("set_id", setID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取题目失败"})
		return
	}

	c.JSON(http.StatusOK, questions)
}

// submitResponseRequest 作答提交请求
type submitResponseRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID uint   `json:"question_id"`
	Choice     string `json:"choice"`
}

// SubmitResponse 提交作答
func (h *QuizHandler) SubmitResponse(c *gin.Context) {
	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
		return
	}
	if req.QuestionID == 0 || req.Choice == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少question_id或choice参数"})
		return
	}

	sessionID, err := h.quiz.SubmitResponse(c.Request.Context(), req.SessionID, req.QuestionID, req.Choice)
	if err != nil {
		h.logger.Error("记录作答失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "记录作答失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"session_id": sessionID,
	})
}
