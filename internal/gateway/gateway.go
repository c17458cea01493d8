package gateway

import (
	"encoding/json"
	"sync"

	"github.com/wfunc/privacy-kiosk/internal/errors"
	"github.com/wfunc/privacy-kiosk/internal/logger"
	"go.uber.org/zap"
)

// Queue 互斥锁保护的FIFO事件队列
//
// Push/Pop均为原子操作；Pop是破坏性的，每个事件至多被取出一次，
// 即使在重连窗口内短暂出现第二个消费者。
type Queue struct {
	mu    sync.Mutex
	items []InputEvent
}

// NewQueue 创建事件队列
func NewQueue() *Queue {
	return &Queue{}
}

// Push 入队（不阻塞调用方）
func (q *Queue) Push(ev InputEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
}

// Pop 非阻塞出队，队列为空时返回false（心跳场景）
func (q *Queue) Pop() (InputEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return InputEvent{}, false
	}

	ev := q.items[0]
	q.items = q.items[1:]
	return ev, true
}

// Len 当前队列长度
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Gateway 事件网关
//
// 进程内唯一的共享事件资源：适配器只持有推送句柄（HTTP层），
// 队列本身由网关独占。不做持久化，进程崩溃丢弃未消费事件。
type Gateway struct {
	gpio   *Queue // 按键/摇杆事件队列
	nfc    *Queue // 读卡事件队列
	logger *zap.Logger
}

// New 创建事件网关
func New(logger *zap.Logger) *Gateway {
	return &Gateway{
		gpio:   NewQueue(),
		nfc:    NewQueue(),
		logger: logger,
	}
}

// PushButton 接收按键事件
func (g *Gateway) PushButton(choice string) error {
	dir, err := ParseDirection(choice)
	if err != nil {
		return err
	}

	g.gpio.Push(NewButtonEvent(dir))

	logger.LogInputEvent(string(KindButton), string(dir), "adapter")
	g.logger.Debug("按键事件入队",
		zap.String("choice", choice),
		zap.Int("queue_len", g.gpio.Len()))
	return nil
}

// PushCard 接收读卡事件（载荷必须是合法JSON）
func (g *Gateway) PushCard(payload json.RawMessage) error {
	if !json.Valid(payload) {
		return errors.New(errors.ErrMalformedPayload, "读卡载荷不是合法JSON")
	}

	g.nfc.Push(NewCardEvent(payload))

	logger.LogInputEvent(string(KindCardDetected), "", "adapter")
	g.logger.Debug("读卡事件入队",
		zap.Int("payload_size", len(payload)),
		zap.Int("queue_len", g.nfc.Len()))
	return nil
}

// PopGPIO 取出一个按键事件
func (g *Gateway) PopGPIO() (InputEvent, bool) {
	return g.gpio.Pop()
}

// PopNFC 取出一个读卡事件
func (g *Gateway) PopNFC() (InputEvent, bool) {
	return g.nfc.Pop()
}

// Stats 队列状态（用于健康检查）
func (g *Gateway) Stats() map[string]int {
	return map[string]int{
		"gpio": g.gpio.Len(),
		"nfc":  g.nfc.Len(),
	}
}
