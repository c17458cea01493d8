package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/tarm/serial"
	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/errors"
	"github.com/wfunc/privacy-kiosk/internal/logger"
	"go.uber.org/zap"
)

// TagReader 标签读取接口
//
// ReadTag阻塞等待下一张卡片，返回标签文本记录的原始内容。
// 无记录的标签返回ErrTagNoRecord。
type TagReader interface {
	// ReadTag 读取下一张标签
	ReadTag(ctx context.Context) ([]byte, error)
	// Close 关闭读卡器
	Close() error
}

// SerialTagReader 串口读卡器实现
//
// 读卡模块按行输出标签内容，一张卡一行。
type SerialTagReader struct {
	port    *serial.Port
	scanner *bufio.Scanner
	logger  *zap.Logger
}

// NewSerialTagReader 打开串口读卡器
func NewSerialTagReader(cfg *config.NFCConfig, log *zap.Logger) (*SerialTagReader, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSerialPortOpen)
	}

	log.Info("读卡器串口已打开",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate))

	return &SerialTagReader{
		port:    port,
		scanner: bufio.NewScanner(port),
		logger:  log,
	}, nil
}

// ReadTag 读取下一行标签内容
//
// 串口ReadTimeout较短，超时后Scan返回false但无错误，
// 循环重试直到读到内容或ctx取消。
func (r *SerialTagReader) ReadTag(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if r.scanner.Scan() {
			line := bytes.TrimSpace(r.scanner.Bytes())
			if len(line) == 0 {
				return nil, errors.New(errors.ErrTagNoRecord, "标签无文本记录")
			}
			out := make([]byte, len(line))
			copy(out, line)
			return out, nil
		}
		if err := r.scanner.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrSerialPortRead)
		}
		// 读超时，继续等待
	}
}

// Close 关闭串口
func (r *SerialTagReader) Close() error {
	return r.port.Close()
}

// NFCPoller 读卡轮询器
//
// 循环等待卡片，校验载荷后推送到事件服务。
// 格式不合法的载荷记日志后丢弃，不中断循环。
type NFCPoller struct {
	client       *ServerClient
	reader       TagReader
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewNFCPoller 创建读卡轮询器
func NewNFCPoller(client *ServerClient, reader TagReader, cfg *config.NFCConfig, log *zap.Logger) *NFCPoller {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &NFCPoller{
		client:       client,
		reader:       reader,
		pollInterval: pollInterval,
		logger:       log,
	}
}

// Run 轮询主循环，阻塞直到ctx取消
func (p *NFCPoller) Run(ctx context.Context) error {
	p.logger.Info("读卡轮询启动", zap.Duration("poll_interval", p.pollInterval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("读卡轮询停止")
			return ctx.Err()
		default:
		}

		payload, err := p.reader.ReadTag(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, errors.ErrTagNoRecord) {
				p.logger.Warn("标签无文本记录，已忽略")
				continue
			}
			p.logger.Error("标签读取失败", zap.Error(err))
			time.Sleep(p.pollInterval)
			continue
		}

		p.handleTag(ctx, payload)

		// 同一张卡贴住读卡器时避免连续重复上报
		time.Sleep(p.pollInterval)
	}
}

// handleTag 校验并推送单张标签
func (p *NFCPoller) handleTag(ctx context.Context, payload []byte) {
	if !json.Valid(payload) {
		logger.LogTagRead(string(payload), false)
		p.logger.Warn("标签载荷不是合法JSON，已丢弃",
			zap.String("payload", string(payload)))
		return
	}

	if !p.client.MaybeProbe(ctx) {
		p.logger.Warn("事件服务不可用，读卡事件已丢弃")
		return
	}

	if err := p.client.PushCard(ctx, payload); err != nil {
		p.logger.Error("读卡事件推送失败", zap.Error(err))
		return
	}
	logger.LogTagRead(string(payload), true)
}
