package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/errors"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"go.uber.org/zap"
)

// DefaultTickInterval 默认出队/心跳节拍
const DefaultTickInterval = 100 * time.Millisecond

// 心跳帧，保持连接不被代理/浏览器判定为空闲
var heartbeatFrame = []byte("data: {\"type\": \"heartbeat\"}\n\n")

// Publisher SSE事件流发布器
//
// 每个连接的显示端对应一个Serve循环：每个节拍尝试从网关出队，
// 有事件则序列化为一帧，否则发送心跳帧。事件从入队到显示端的
// 延迟上界为一个节拍加出队耗时。
type Publisher struct {
	gw     *gateway.Gateway
	tick   time.Duration
	logger *zap.Logger
}

// NewPublisher 创建发布器
func NewPublisher(gw *gateway.Gateway, tick time.Duration, logger *zap.Logger) *Publisher {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Publisher{
		gw:     gw,
		tick:   tick,
		logger: logger,
	}
}

// Serve 向单个显示端持续推送事件流
//
// 写入失败视为客户端断开，循环终止并释放连接资源；
// 网关本身不受影响。ctx取消时正常退出。
func (p *Publisher) Serve(ctx context.Context, w io.Writer) error {
	flusher, _ := w.(http.Flusher)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	p.logger.Info("事件流已连接", zap.Duration("tick", p.tick))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("事件流已断开")
			return nil

		case <-ticker.C:
			frame := heartbeatFrame
			if ev, ok := p.gw.PopGPIO(); ok {
				frame = formatFrame(ev)
			}

			if _, err := w.Write(frame); err != nil {
				p.logger.Info("事件流写入失败，客户端已断开", zap.Error(err))
				return errors.Wrap(err, errors.ErrStreamClosed)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// formatFrame 序列化单个事件帧
func formatFrame(ev gateway.InputEvent) []byte {
	switch ev.Kind {
	case gateway.KindButton, gateway.KindJoystick:
		return []byte(fmt.Sprintf("data: {\"choice\": \"%s\"}\n\n", ev.Direction))
	default:
		// 其他类型走WebSocket通道，此处兜底为心跳
		return heartbeatFrame
	}
}
