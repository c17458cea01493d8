package projector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"go.uber.org/zap"
)

// recordingEffects 记录回调调用顺序的测试桩
type recordingEffects struct {
	calls []string
}

func (r *recordingEffects) Focus(dir gateway.Direction) {
	r.calls = append(r.calls, "focus:"+string(dir))
}

func (r *recordingEffects) Blur(dir gateway.Direction) {
	r.calls = append(r.calls, "blur:"+string(dir))
}

func (r *recordingEffects) Activate(dir gateway.Direction) {
	r.calls = append(r.calls, "activate:"+string(dir))
}

// manualScheduler 手动触发的解锁调度器
type manualScheduler struct {
	pending []func()
}

func (m *manualScheduler) schedule(_ time.Duration, fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *manualScheduler) fire() {
	for _, fn := range m.pending {
		fn()
	}
	m.pending = nil
}

func newTestProjector(t *testing.T) (*Projector, *recordingEffects, *manualScheduler) {
	t.Helper()
	effects := &recordingEffects{}
	sched := &manualScheduler{}
	p := New(effects, zap.NewNop(), WithUnlockScheduler(sched.schedule))
	return p, effects, sched
}

// 测试方向事件的焦点切换
func TestProjector_DirectionFocus(t *testing.T) {
	p, effects, _ := newTestProjector(t)

	assert.Equal(t, StateIdle, p.State())

	// Idle → Focused
	assert.True(t, p.HandleDirection(gateway.DirectionLeft))
	assert.Equal(t, StateFocused, p.State())
	assert.Equal(t, gateway.DirectionLeft, p.Focus())

	// 同方向重复事件无变化
	assert.False(t, p.HandleDirection(gateway.DirectionLeft))

	// 切换方向：先清除旧焦点，再设置新焦点
	assert.True(t, p.HandleDirection(gateway.DirectionRight))
	assert.Equal(t, gateway.DirectionRight, p.Focus())
	assert.Equal(t, []string{"focus:left", "blur:left", "focus:right"}, effects.calls)
}

// 测试完整的悬停→选中→解锁流程
func TestProjector_SelectCycle(t *testing.T) {
	p, effects, sched := newTestProjector(t)

	require.True(t, p.HandleDirection(gateway.DirectionLeft))
	require.True(t, p.HandleSelect(gateway.DirectionNone))

	// 选中后进入锁定
	assert.Equal(t, StateLocked, p.State())
	assert.Contains(t, effects.calls, "activate:left")

	// 锁定窗口到期回到Idle并清除焦点
	sched.fire()
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, gateway.DirectionNone, p.Focus())
}

// 测试锁定期间所有输入静默丢弃
func TestProjector_LockedDropsInput(t *testing.T) {
	p, effects, sched := newTestProjector(t)

	require.True(t, p.HandleDirection(gateway.DirectionRight))
	require.True(t, p.HandleSelect(gateway.DirectionNone))
	require.Equal(t, StateLocked, p.State())

	before := len(effects.calls)

	// 方向和再次确认都不产生任何效果
	assert.False(t, p.HandleDirection(gateway.DirectionLeft))
	assert.False(t, p.HandleDirection(gateway.DirectionRight))
	assert.False(t, p.HandleSelect(gateway.DirectionNone))

	assert.Equal(t, StateLocked, p.State())
	assert.Len(t, effects.calls, before)

	// 解锁后恢复接收输入
	sched.fire()
	assert.True(t, p.HandleDirection(gateway.DirectionLeft))
}

// 测试Idle状态下确认事件无效
func TestProjector_SelectWithoutFocus(t *testing.T) {
	p, effects, _ := newTestProjector(t)

	assert.False(t, p.HandleSelect(gateway.DirectionNone))
	assert.False(t, p.HandleSelect(gateway.DirectionLeft))
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, effects.calls)
}

// 测试显式choice优先于当前焦点
func TestProjector_SelectExplicitChoice(t *testing.T) {
	p, effects, _ := newTestProjector(t)

	require.True(t, p.HandleDirection(gateway.DirectionLeft))
	require.True(t, p.HandleSelect(gateway.DirectionRight))

	assert.Contains(t, effects.calls, "activate:right")
}

// 测试重连次数耗尽后进入终态
func TestProjector_DisabledAfterMaxReconnects(t *testing.T) {
	effects := &recordingEffects{}
	p := New(effects, zap.NewNop(), WithMaxReconnectAttempts(3))

	require.True(t, p.HandleDirection(gateway.DirectionLeft))

	p.HandleDisconnect()
	p.HandleDisconnect()
	assert.NotEqual(t, StateDisabled, p.State())

	// 第三次断连达到上限
	p.HandleDisconnect()
	assert.Equal(t, StateDisabled, p.State())
	assert.Equal(t, gateway.DirectionNone, p.Focus())
	assert.Contains(t, effects.calls, "blur:left")

	// 终态下所有事件均为空操作
	assert.False(t, p.HandleDirection(gateway.DirectionRight))
	assert.False(t, p.HandleSelect(gateway.DirectionNone))

	// 终态不可恢复
	p.HandleReconnect()
	assert.Equal(t, StateDisabled, p.State())
}

// 测试重连成功清零断连计数
func TestProjector_ReconnectResetsAttempts(t *testing.T) {
	p := New(nil, zap.NewNop(), WithMaxReconnectAttempts(2))

	p.HandleDisconnect()
	p.HandleReconnect()
	p.HandleDisconnect()
	assert.NotEqual(t, StateDisabled, p.State())

	// 计数清零后需要重新累计到上限
	p.HandleDisconnect()
	assert.Equal(t, StateDisabled, p.State())
}

// 测试非法方向被忽略
func TestProjector_InvalidDirection(t *testing.T) {
	p, effects, _ := newTestProjector(t)

	assert.False(t, p.HandleDirection(gateway.DirectionNone))
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, effects.calls)
}
