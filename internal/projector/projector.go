package projector

import (
	"sync"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"go.uber.org/zap"
)

// State 投影器状态枚举
type State string

const (
	StateIdle     State = "idle"     // 无焦点
	StateFocused  State = "focused"  // 已悬停某方向
	StateLocked   State = "locked"   // 选中动画播放中，丢弃所有输入
	StateDisabled State = "disabled" // 重连耗尽后的终态
)

// 默认参数
const (
	DefaultLockWindow           = 200 * time.Millisecond
	DefaultMaxReconnectAttempts = 5
)

// Effects 投影器输出回调（焦点/选中的视觉效果）
//
// 所有回调在触发事件的goroutine上同步执行，必须快速返回。
type Effects interface {
	// Focus 方向获得焦点
	Focus(dir gateway.Direction)
	// Blur 方向失去焦点
	Blur(dir gateway.Direction)
	// Activate 方向被选中（等价于点击对应按钮）
	Activate(dir gateway.Direction)
}

// NopEffects 空实现，用于未绑定显示端的场合
type NopEffects struct{}

func (NopEffects) Focus(gateway.Direction)    {}
func (NopEffects) Blur(gateway.Direction)     {}
func (NopEffects) Activate(gateway.Direction) {}

// Projector 悬停/选中输入投影器
//
// 两段式输入模型：方向事件移动焦点，确认事件触发选中。
// 选中后进入锁定窗口，窗口内所有输入静默丢弃，窗口结束回到Idle。
// 连续断连超过上限后进入Disabled终态，之后所有事件均为空操作。
type Projector struct {
	mu    sync.Mutex
	state State
	focus gateway.Direction

	lockWindow  time.Duration
	maxAttempts int
	attempts    int // 连续断连次数

	effects Effects
	logger  *zap.Logger

	// 锁定窗口定时器，可注入以便测试
	scheduleUnlock func(time.Duration, func())
}

// Option 投影器选项
type Option func(*Projector)

// WithLockWindow 设置锁定窗口时长
func WithLockWindow(d time.Duration) Option {
	return func(p *Projector) { p.lockWindow = d }
}

// WithMaxReconnectAttempts 设置最大重连次数
func WithMaxReconnectAttempts(n int) Option {
	return func(p *Projector) { p.maxAttempts = n }
}

// WithUnlockScheduler 注入锁定窗口调度器（测试用）
func WithUnlockScheduler(fn func(time.Duration, func())) Option {
	return func(p *Projector) { p.scheduleUnlock = fn }
}

// New 创建投影器
func New(effects Effects, logger *zap.Logger, opts ...Option) *Projector {
	if effects == nil {
		effects = NopEffects{}
	}

	p := &Projector{
		state:       StateIdle,
		lockWindow:  DefaultLockWindow,
		maxAttempts: DefaultMaxReconnectAttempts,
		effects:     effects,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.scheduleUnlock == nil {
		p.scheduleUnlock = func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}
	}

	return p
}

// HandleDirection 处理方向事件，返回是否产生了焦点变化
func (p *Projector) HandleDirection(dir gateway.Direction) bool {
	if dir != gateway.DirectionLeft && dir != gateway.DirectionRight {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateLocked, StateDisabled:
		// 锁定/禁用期间静默丢弃
		return false

	case StateFocused:
		if p.focus == dir {
			return false
		}
		p.effects.Blur(p.focus)
		fallthrough

	default: // StateIdle
		p.state = StateFocused
		p.focus = dir
		p.effects.Focus(dir)

		p.logger.Debug("焦点移动", zap.String("direction", string(dir)))
		return true
	}
}

// HandleSelect 处理确认事件，返回是否触发了选中
//
// choice为空时选中当前焦点方向。仅在Focused状态下生效，
// Idle没有可选对象、Locked/Disabled丢弃输入。
func (p *Projector) HandleSelect(choice gateway.Direction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateFocused {
		return false
	}

	dir := choice
	if dir == gateway.DirectionNone {
		dir = p.focus
	}

	p.state = StateLocked
	p.effects.Activate(dir)

	p.logger.Debug("选中触发",
		zap.String("direction", string(dir)),
		zap.Duration("lock_window", p.lockWindow))

	// 动画窗口结束后解锁回Idle
	p.scheduleUnlock(p.lockWindow, p.unlock)
	return true
}

// unlock 锁定窗口到期，清除焦点回到Idle
func (p *Projector) unlock() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 窗口期间可能已进入Disabled
	if p.state != StateLocked {
		return
	}

	p.effects.Blur(p.focus)
	p.state = StateIdle
	p.focus = gateway.DirectionNone
}

// HandleDisconnect 记录一次流断连
//
// 连续断连达到上限后进入Disabled终态并清除所有焦点状态。
func (p *Projector) HandleDisconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateDisabled {
		return
	}

	p.attempts++
	p.logger.Warn("事件流断连",
		zap.Int("attempt", p.attempts),
		zap.Int("max", p.maxAttempts))

	if p.attempts >= p.maxAttempts {
		if p.focus != gateway.DirectionNone {
			p.effects.Blur(p.focus)
		}
		p.state = StateDisabled
		p.focus = gateway.DirectionNone

		p.logger.Error("重连次数耗尽，投影器已禁用")
	}
}

// HandleReconnect 记录一次重连成功，清零断连计数
func (p *Projector) HandleReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Disabled是终态，重连不恢复
	if p.state == StateDisabled {
		return
	}

	p.attempts = 0
}

// State 当前状态
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Focus 当前焦点方向
func (p *Projector) Focus() gateway.Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focus
}
