package repository

import (
	"context"

	"github.com/wfunc/privacy-kiosk/internal/models"
	"gorm.io/gorm"
)

// ResponseRepository 作答记录仓储接口
//
// 只追加：记录一旦写入不提供更新或删除。
type ResponseRepository interface {
	BaseRepository
	// Create 追加一条作答记录
	Create(ctx context.Context, response *models.Response) error
	// FindBySessionID 查询某次会话的全部作答
	FindBySessionID(ctx context.Context, sessionID string) ([]*models.Response, error)
	// CountBySessionID 统计某次会话的作答数量
	CountBySessionID(ctx context.Context, sessionID string) (int64, error)
}

// responseRepo 作答记录仓储实现
type responseRepo struct {
	*BaseRepo
}

// NewResponseRepository 创建作答记录仓储
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 追加一条作答记录
func (r *responseRepo) Create(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

// FindBySessionID 查询某次会话的全部作答
func (r *responseRepo) FindBySessionID(ctx context.Context, sessionID string) ([]*models.Response, error) {
	var responses []*models.Response
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// CountBySessionID 统计某次会话的作答数量
func (r *responseRepo) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
