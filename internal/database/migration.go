package database

import (
	"fmt"

	"github.com/wfunc/privacy-kiosk/internal/logger"
	"github.com/wfunc/privacy-kiosk/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据表
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	err := DB.AutoMigrate(
		&models.Question{},
		&models.Response{},
	)
	if err != nil {
		return fmt.Errorf("数据表迁移失败: %w", err)
	}

	logger.Info("数据表迁移完成")
	return nil
}

// seedQuestions 内置示例题目
//
// 两组各五道，一组讲应用权限与安全，一组讲社交媒体与数据追踪。
var seedQuestions = []models.Question{
	// 第一组：应用权限与安全
	{Question: "A flashlight app asks for camera and microphone access.",
		LeftChoice:  "Accept—it probably needs them.",
		RightChoice: "Deny and check if the permissions make sense.", SetID: 1},
	{Question: "Your phone's software update notification pops up.",
		LeftChoice:  "Postpone it indefinitely.",
		RightChoice: "Update to ensure security patches are applied.", SetID: 1},
	{Question: "Your gaming app asks for location access, even though it's not necessary.",
		LeftChoice:  "Allow it to avoid app issues.",
		RightChoice: "Check why it needs this access before allowing.", SetID: 1},
	{Question: "A fitness app shares data with advertisers by default.",
		LeftChoice:  "Accept because it's common.",
		RightChoice: "Review settings and disable unnecessary data sharing.", SetID: 1},
	{Question: "Your app store suggests an unknown app with few reviews.",
		LeftChoice:  "Download it and try it out.",
		RightChoice: "Research reviews and developer credibility first.", SetID: 1},

	// 第二组：社交媒体与数据追踪
	{Question: "You get a notification: 'Your friend just joined! Allow access to your contacts to connect.'",
		LeftChoice:  "Allow access so you can find friends.",
		RightChoice: "Deny access and add friends manually.", SetID: 2},
	{Question: "An app asks for microphone permission while it's not in use.",
		LeftChoice:  "Accept; it's probably harmless.",
		RightChoice: "Deny and check app settings.", SetID: 2},
	{Question: "You search for sneakers online. Later, all your ads are for shoes.",
		LeftChoice:  "Accept it as normal and ignore it.",
		RightChoice: "Review and limit app tracking in settings.", SetID: 2},
	{Question: "A post goes viral offering 'Free concert tickets—just enter your details!'",
		LeftChoice:  "Sign up quickly before it's gone!",
		RightChoice: "Verify the source before entering any data.", SetID: 2},
	{Question: "A new social media app forces you to allow location access to sign up.",
		LeftChoice:  "Allow it since you need the app.",
		RightChoice: "Check if location sharing is necessary for app features.", SetID: 2},
}

// SeedQuestions 写入示例题目
//
// 幂等：已有题目时跳过，不会重复插入。
func SeedQuestions() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}
	return SeedQuestionsWith(DB)
}

// SeedQuestionsWith 在指定连接上写入示例题目
func SeedQuestionsWith(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return fmt.Errorf("检查题目数量失败: %w", err)
	}
	if count > 0 {
		logger.Info("题目已存在，跳过初始化", zap.Int64("count", count))
		return nil
	}

	questions := make([]models.Question, len(seedQuestions))
	copy(questions, seedQuestions)
	if err := db.Create(&questions).Error; err != nil {
		return fmt.Errorf("写入示例题目失败: %w", err)
	}

	logger.Info("示例题目初始化完成", zap.Int("count", len(questions)))
	return nil
}
