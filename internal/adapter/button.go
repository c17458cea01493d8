package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/errors"
	"go.uber.org/zap"
)

// 默认参数
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultDebounceTime = 500 * time.Millisecond
)

// PinReader 按键引脚读取接口
//
// 返回true表示按下。实体按键接上拉电阻，电平逻辑由实现处理。
type PinReader interface {
	// Setup 初始化引脚
	Setup(pin int) error
	// Read 读取引脚状态
	Read(pin int) (bool, error)
	// Close 释放资源
	Close() error
}

// SysfsPinReader 基于sysfs的GPIO读取实现
//
// 通过/sys/class/gpio文件接口读取，不依赖特定开发板的驱动库。
// 值为"0"表示按下（上拉输入，按键接地）。
type SysfsPinReader struct {
	base string
}

// NewSysfsPinReader 创建sysfs读取器
func NewSysfsPinReader() *SysfsPinReader {
	return &SysfsPinReader{base: "/sys/class/gpio"}
}

// Setup 导出引脚并设置为输入方向
func (r *SysfsPinReader) Setup(pin int) error {
	pinDir := filepath.Join(r.base, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		exportPath := filepath.Join(r.base, "export")
		if err := os.WriteFile(exportPath, []byte(fmt.Sprintf("%d", pin)), 0644); err != nil {
			return errors.Wrap(err, errors.ErrGPIOSetup)
		}
		// 等待内核创建设备目录
		time.Sleep(100 * time.Millisecond)
	}

	directionPath := filepath.Join(pinDir, "direction")
	if err := os.WriteFile(directionPath, []byte("in"), 0644); err != nil {
		return errors.Wrap(err, errors.ErrGPIOSetup)
	}
	return nil
}

// Read 读取引脚电平
func (r *SysfsPinReader) Read(pin int) (bool, error) {
	valuePath := filepath.Join(r.base, fmt.Sprintf("gpio%d", pin), "value")
	data, err := os.ReadFile(valuePath)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrHardwareRead)
	}
	// 上拉输入：低电平为按下
	return strings.TrimSpace(string(data)) == "0", nil
}

// Close 释放资源
func (r *SysfsPinReader) Close() error {
	return nil
}

// buttonState 单个按键的消抖状态
type buttonState struct {
	pin      int
	choice   string
	pressed  bool      // 上一轮电平
	lastFire time.Time // 上次触发时间
}

// ButtonPoller 按键轮询器
//
// 按固定间隔轮询两个引脚，边沿触发加消抖：
// 仅在电平由松开变为按下、且距上次触发超过消抖窗口时上报。
// 按住不放不会重复触发。
type ButtonPoller struct {
	client       *ServerClient
	pins         PinReader
	left         *buttonState
	right        *buttonState
	pollInterval time.Duration
	debounce     time.Duration
	logger       *zap.Logger

	// 时钟可注入以便测试
	now func() time.Time
}

// NewButtonPoller 创建按键轮询器
func NewButtonPoller(client *ServerClient, pins PinReader, cfg *config.ButtonConfig, logger *zap.Logger) *ButtonPoller {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	debounce := cfg.DebounceTime
	if debounce <= 0 {
		debounce = DefaultDebounceTime
	}

	return &ButtonPoller{
		client:       client,
		pins:         pins,
		left:         &buttonState{pin: cfg.LeftPin, choice: "left"},
		right:        &buttonState{pin: cfg.RightPin, choice: "right"},
		pollInterval: pollInterval,
		debounce:     debounce,
		logger:       logger,
		now:          time.Now,
	}
}

// Setup 初始化两个按键引脚
func (b *ButtonPoller) Setup() error {
	if err := b.pins.Setup(b.left.pin); err != nil {
		return err
	}
	if err := b.pins.Setup(b.right.pin); err != nil {
		return err
	}
	b.logger.Info("按键引脚初始化完成",
		zap.Int("left_pin", b.left.pin),
		zap.Int("right_pin", b.right.pin))
	return nil
}

// Run 轮询主循环，阻塞直到ctx取消
func (b *ButtonPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	b.logger.Info("按键轮询启动",
		zap.Duration("poll_interval", b.pollInterval),
		zap.Duration("debounce", b.debounce))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("按键轮询停止")
			return ctx.Err()
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick 执行一轮轮询
func (b *ButtonPoller) Tick(ctx context.Context) {
	// 断连期间照常读取引脚更新消抖状态，只是不推送
	available := b.client.MaybeProbe(ctx)

	b.poll(ctx, b.left, available)
	b.poll(ctx, b.right, available)
}

// poll 读取单个按键并判定是否触发
func (b *ButtonPoller) poll(ctx context.Context, st *buttonState, available bool) {
	pressed, err := b.pins.Read(st.pin)
	if err != nil {
		b.logger.Error("引脚读取失败", zap.Int("pin", st.pin), zap.Error(err))
		return
	}

	// 上升沿检测
	rising := pressed && !st.pressed
	st.pressed = pressed
	if !rising {
		return
	}

	now := b.now()
	if now.Sub(st.lastFire) < b.debounce {
		return
	}
	st.lastFire = now

	if !available {
		// 推送通道不可用时直接丢弃，不排队重放
		return
	}
	if err := b.client.PushButton(ctx, st.choice); err != nil {
		b.logger.Error("按键事件推送失败",
			zap.String("choice", st.choice),
			zap.Error(err))
	}
}
