package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"go.uber.org/zap"
)

// safeBuffer 并发安全的写缓冲
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failingWriter 第N次写入后开始报错的写入器
type failingWriter struct {
	mu       sync.Mutex
	successN int
	writes   int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if w.writes > w.successN {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

// 测试事件在一个节拍内到达流
func TestPublisher_EventWithinOneTick(t *testing.T) {
	gw := gateway.New(zap.NewNop())
	require.NoError(t, gw.PushButton("left"))

	pub := NewPublisher(gw, 5*time.Millisecond, zap.NewNop())

	buf := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pub.Serve(ctx, buf) }()

	// 等待若干节拍后断开
	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "data: {\"choice\": \"left\"}\n\n")
	}, time.Second, 2*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

// 测试队列为空时持续发送心跳
func TestPublisher_HeartbeatWhenIdle(t *testing.T) {
	gw := gateway.New(zap.NewNop())
	pub := NewPublisher(gw, 5*time.Millisecond, zap.NewNop())

	buf := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pub.Serve(ctx, buf) }()

	assert.Eventually(t, func() bool {
		return strings.Count(buf.String(), "data: {\"type\": \"heartbeat\"}\n\n") >= 3
	}, time.Second, 2*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

// 测试事件顺序与推送顺序一致
func TestPublisher_PreservesOrder(t *testing.T) {
	gw := gateway.New(zap.NewNop())
	choices := []string{"left", "right", "right", "left"}
	for _, c := range choices {
		require.NoError(t, gw.PushButton(c))
	}

	pub := NewPublisher(gw, time.Millisecond, zap.NewNop())

	buf := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pub.Serve(ctx, buf) }()

	assert.Eventually(t, func() bool {
		return strings.Count(buf.String(), "\"choice\"") == len(choices)
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// 心跳帧可以穿插，但事件帧必须保持FIFO
	var got []string
	for _, frame := range strings.Split(buf.String(), "\n\n") {
		if strings.Contains(frame, "left") {
			got = append(got, "left")
		} else if strings.Contains(frame, "right") {
			got = append(got, "right")
		}
	}
	assert.Equal(t, choices, got)
}

// 测试客户端断开时循环终止
func TestPublisher_ClientDisconnect(t *testing.T) {
	gw := gateway.New(zap.NewNop())
	pub := NewPublisher(gw, time.Millisecond, zap.NewNop())

	w := &failingWriter{successN: 2}

	done := make(chan error, 1)
	go func() { done <- pub.Serve(context.Background(), w) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("写入失败后循环未终止")
	}

	// 网关不受影响，仍可正常入队出队
	require.NoError(t, gw.PushButton("right"))
	ev, ok := gw.PopGPIO()
	assert.True(t, ok)
	assert.Equal(t, gateway.DirectionRight, ev.Direction)
}

// 测试非法节拍回退为默认值
func TestPublisher_DefaultTick(t *testing.T) {
	pub := NewPublisher(gateway.New(zap.NewNop()), 0, zap.NewNop())
	assert.Equal(t, DefaultTickInterval, pub.tick)
}
