package repository

import (
	"context"

	"github.com/wfunc/privacy-kiosk/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository 题目仓储接口
type QuestionRepository interface {
	BaseRepository
	// FindBySetID 按组查询题目，按id升序，最多limit条
	FindBySetID(ctx context.Context, setID int, limit int) ([]*models.Question, error)
	// FindByID 根据ID查找题目
	FindByID(ctx context.Context, id uint) (*models.Question, error)
	// CountBySetID 统计某组题目数量
	CountBySetID(ctx context.Context, setID int) (int64, error)
}

// questionRepo 题目仓储实现
type questionRepo struct {
	*BaseRepo
}

// NewQuestionRepository 创建题目仓储
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindBySetID 按组查询题目
//
// 固定按id升序返回，保证展示端题目顺序稳定。
func (r *questionRepo) FindBySetID(ctx context.Context, setID int, limit int) ([]*models.Question, error) {
	var questions []*models.Question
	query := r.db.WithContext(ctx).
		Where("set_id = ?", setID).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// FindByID 根据ID查找题目
func (r *questionRepo) FindByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// CountBySetID 统计某组题目数量
func (r *questionRepo) CountBySetID(ctx context.Context, setID int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("set_id = ?", setID).
		Count(&count).Error
	return count, err
}
