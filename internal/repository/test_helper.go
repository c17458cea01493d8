package repository

import (
	"github.com/wfunc/privacy-kiosk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Question{},
		&models.Response{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestQuestions 创建测试题目
//
// 两组题目：第一组五道，第二组三道（用于覆盖题目不足的场景）。
func SeedTestQuestions(db *gorm.DB) []models.Question {
	questions := []models.Question{
		{Question: "题目1", LeftChoice: "左1", RightChoice: "右1", SetID: 1},
		{Question: "题目2", LeftChoice: "左2", RightChoice: "右2", SetID: 1},
		{Question: "题目3", LeftChoice: "左3", RightChoice: "右3", SetID: 1},
		{Question: "题目4", LeftChoice: "左4", RightChoice: "右4", SetID: 1},
		{Question: "题目5", LeftChoice: "左5", RightChoice: "右5", SetID: 1},
		{Question: "题目6", LeftChoice: "左6", RightChoice: "右6", SetID: 2},
		{Question: "题目7", LeftChoice: "左7", RightChoice: "右7", SetID: 2},
		{Question: "题目8", LeftChoice: "左8", RightChoice: "右8", SetID: 2},
	}
	if err := db.Create(&questions).Error; err != nil {
		panic(err)
	}
	return questions
}
