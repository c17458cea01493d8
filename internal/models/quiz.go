package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Question 问答题目表
//
// 题目按set_id分组，每组构成一轮问答。左右两个选项
// 对应实体按键的左右方向。
type Question struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Question    string `gorm:"size:500;not null" json:"question"`
	LeftChoice  string `gorm:"size:255;not null" json:"left_choice"`
	RightChoice string `gorm:"size:255;not null" json:"right_choice"`
	SetID       int    `gorm:"index;not null" json:"set_id"`
}

// TableName 指定表名
func (Question) TableName() string {
	return "questions"
}

// Response 问答作答记录表
//
// 只追加不修改：created_at由服务端写入，之后不再变更。
type Response struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"index;size:64;not null" json:"session_id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	Choice     string    `gorm:"size:255;not null" json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (Response) TableName() string {
	return "responses"
}
