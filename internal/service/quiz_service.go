package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/errors"
	"github.com/wfunc/privacy-kiosk/internal/models"
	"github.com/wfunc/privacy-kiosk/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 默认参数
const (
	DefaultQuestionLimit = 5
)

// QuizService 问答服务接口
type QuizService interface {
	// FetchQuestions 获取一组题目
	FetchQuestions(ctx context.Context, setID int) ([]*models.Question, error)
	// SubmitResponse 提交作答，返回会话ID
	SubmitResponse(ctx context.Context, sessionID string, questionID uint, choice string) (string, error)
}

// quizService 问答服务实现
type quizService struct {
	questionRepo repository.QuestionRepository
	responseRepo repository.ResponseRepository
	limit        int
	logger       *zap.Logger
}

// NewQuizService 创建问答服务
func NewQuizService(db *gorm.DB, cfg *config.QuizConfig, logger *zap.Logger) QuizService {
	limit := DefaultQuestionLimit
	if cfg != nil && cfg.QuestionLimit > 0 {
		limit = cfg.QuestionLimit
	}

	return &quizService{
		questionRepo: repository.NewQuestionRepository(db),
		responseRepo: repository.NewResponseRepository(db),
		limit:        limit,
		logger:       logger,
	}
}

// FetchQuestions 获取一组题目
//
// 按id升序返回，数量不超过配置上限。题目不足一轮时照常返回，
// 只记一条警告。
func (s *quizService) FetchQuestions(ctx context.Context, setID int) ([]*models.Question, error) {
	questions, err := s.questionRepo.FindBySetID(ctx, setID, s.limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	if len(questions) < s.limit {
		s.logger.Warn("题目数量不足一轮",
			zap.Int("set_id", setID),
			zap.Int("count", len(questions)),
			zap.Int("expected", s.limit))
	}

	return questions, nil
}

// SubmitResponse 提交作答
//
// 会话ID缺省时生成新的uuid，同一轮后续作答复用该ID。
// 作答记录只追加，时间戳由数据库写入后不再变更。
func (s *quizService) SubmitResponse(ctx context.Context, sessionID string, questionID uint, choice string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
		s.logger.Info("新问答会话", zap.String("session_id", sessionID))
	}

	response := &models.Response{
		SessionID:  sessionID,
		QuestionID: questionID,
		Choice:     choice,
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		return "", errors.Wrap(err, errors.ErrDatabaseInsert)
	}

	s.logger.Info("作答已记录",
		zap.String("session_id", sessionID),
		zap.Uint("question_id", questionID),
		zap.String("choice", choice))

	return sessionID, nil
}
