package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/errors"
	"go.uber.org/zap"
)

// 默认参数
const (
	DefaultPushTimeout   = 2 * time.Second
	DefaultProbeInterval = 5 * time.Second
	DefaultLogEveryN     = 5
)

// ServerClient 事件服务推送句柄
//
// 适配器与网关之间唯一的通道：适配器不持有队列引用，
// 只通过HTTP接口推送。内部维护连接状态机：
// Disconnected --健康探测成功--> Connected --发送失败--> Disconnected。
// 断连期间探测按probeInterval节流，日志每logEveryN次输出一次。
type ServerClient struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger

	mu            sync.Mutex
	available     bool
	failures      int       // 连续探测失败次数（仅用于日志节流）
	lastProbe     time.Time // 上次探测时间
	probeInterval time.Duration
	logEveryN     int

	// 时钟可注入以便测试
	now func() time.Time
}

// NewServerClient 创建推送句柄
func NewServerClient(cfg *config.AdapterConfig, logger *zap.Logger) *ServerClient {
	timeout := cfg.PushTimeout
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	probeInterval := cfg.ProbeInterval
	if probeInterval <= 0 {
		probeInterval = DefaultProbeInterval
	}
	logEveryN := cfg.LogEveryN
	if logEveryN <= 0 {
		logEveryN = DefaultLogEveryN
	}

	return &ServerClient{
		baseURL:       cfg.ServerURL,
		httpc:         &http.Client{Timeout: timeout},
		logger:        logger,
		probeInterval: probeInterval,
		logEveryN:     logEveryN,
		now:           time.Now,
	}
}

// Available 当前连接状态
func (c *ServerClient) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

// Probe 执行一次健康探测并更新连接状态
func (c *ServerClient) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.markUnavailable(err)
		return false
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.markUnavailable(err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.markUnavailable(fmt.Errorf("健康检查返回状态码 %d", resp.StatusCode))
		return false
	}

	c.mu.Lock()
	wasDown := !c.available
	c.available = true
	c.failures = 0
	c.mu.Unlock()

	if wasDown {
		c.logger.Info("事件服务连接建立", zap.String("server", c.baseURL))
	}
	return true
}

// MaybeProbe 断连状态下按节流间隔探测
//
// 已连接时直接返回true；断连时至多每probeInterval探测一次，
// 避免每个轮询节拍都冲击服务端。
func (c *ServerClient) MaybeProbe(ctx context.Context) bool {
	c.mu.Lock()
	if c.available {
		c.mu.Unlock()
		return true
	}
	if c.now().Sub(c.lastProbe) < c.probeInterval {
		c.mu.Unlock()
		return false
	}
	c.lastProbe = c.now()
	c.mu.Unlock()

	return c.Probe(ctx)
}

// markUnavailable 记录失败并转入断连状态
func (c *ServerClient) markUnavailable(cause error) {
	c.mu.Lock()
	wasUp := c.available
	c.available = false
	c.failures++
	failures := c.failures
	c.mu.Unlock()

	if wasUp {
		c.logger.Error("事件服务连接丢失", zap.Error(cause))
	} else if failures%c.logEveryN == 0 {
		// 断连日志节流，避免刷屏
		c.logger.Warn("仍在尝试连接事件服务",
			zap.Int("attempts", failures),
			zap.Error(cause))
	}
}

// PushButton 推送按键事件
//
// 失败时丢弃事件并转入断连状态：过期的按键比丢失的按键更糟，
// 不做重试队列。
func (c *ServerClient) PushButton(ctx context.Context, choice string) error {
	body := map[string]string{"choice": choice}
	if err := c.post(ctx, "/gpio-button-press", body); err != nil {
		return err
	}

	c.logger.Info("按键事件已推送", zap.String("choice", choice))
	return nil
}

// PushCard 推送读卡事件
func (c *ServerClient) PushCard(ctx context.Context, payload json.RawMessage) error {
	if err := c.postRaw(ctx, "/nfc-event", payload); err != nil {
		return err
	}

	c.logger.Info("读卡事件已推送", zap.Int("payload_size", len(payload)))
	return nil
}

// post 序列化并发送JSON请求
func (c *ServerClient) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrMalformedPayload)
	}
	return c.postRaw(ctx, path, data)
}

// postRaw 发送原始JSON请求，失败时转入断连状态
func (c *ServerClient) postRaw(ctx context.Context, path string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, errors.ErrTransportUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.markUnavailable(err)
		return errors.Wrap(err, errors.ErrTransportUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("服务端返回状态码 %d", resp.StatusCode)
		c.markUnavailable(err)
		return errors.Wrap(err, errors.ErrTransportUnavailable)
	}

	return nil
}
