package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/privacy-kiosk/internal/projector"
	"go.uber.org/zap"
)

// newTestHub 启动一个Hub用于测试
func newTestHub() *Hub {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	return hub
}

// recvMessage 从客户端发送通道读取一条消息
func recvMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("等待消息超时")
		return nil
	}
}

// recvEvent 读取一条消息并解析事件载荷
func recvEvent(t *testing.T, c *Client) (string, EventPayload) {
	t.Helper()
	msg := recvMessage(t, c)
	var payload EventPayload
	if len(msg.Data) > 0 {
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
	}
	return msg.Type, payload
}

func TestHub_RegisterSendsConnectionEstablished(t *testing.T) {
	hub := newTestHub()
	client := NewClient(hub, nil, "display-1")
	hub.Register(client)

	msg := recvMessage(t, client)
	assert.Equal(t, MessageTypeConnectionEstablished, msg.Type)
	assert.Equal(t, client.ID, msg.ClientID)

	assert.Eventually(t, func() bool {
		return hub.GetOnlineCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub()
	a := NewClient(hub, nil, "display-a")
	b := NewClient(hub, nil, "display-b")
	hub.Register(a)
	hub.Register(b)
	recvMessage(t, a)
	recvMessage(t, b)

	hub.BroadcastCardDetected(json.RawMessage(`{"set_id": 2}`))

	for _, c := range []*Client{a, b} {
		msg := recvMessage(t, c)
		assert.Equal(t, MessageTypeCardDetected, msg.Type)
		assert.JSONEq(t, `{"set_id": 2}`, string(msg.Data))
	}
}

func TestClient_JoystickEventProjectsToBroadcast(t *testing.T) {
	hub := newTestHub()
	display := NewClient(hub, nil, "display")
	hub.Register(display)
	recvMessage(t, display)

	// 方向事件：聚焦并广播悬停
	display.handleMessage([]byte(`{"type":"joystick_event","data":{"type":"joystick","direction":"left"}}`))

	msgType, payload := recvEvent(t, display)
	assert.Equal(t, MessageTypeGPIOEvent, msgType)
	assert.Equal(t, "joystick", payload.Type)
	assert.Equal(t, "left", payload.Direction)

	// 确认事件：选中当前焦点并广播
	display.handleMessage([]byte(`{"type":"joystick_event","data":{"type":"select"}}`))

	msgType, payload = recvEvent(t, display)
	assert.Equal(t, MessageTypeGPIOEvent, msgType)
	assert.Equal(t, "select", payload.Type)
	assert.Equal(t, "left", payload.Choice)
}

func TestClient_InvalidDirectionDropped(t *testing.T) {
	hub := newTestHub()
	display := NewClient(hub, nil, "display")
	hub.Register(display)
	recvMessage(t, display)

	display.handleMessage([]byte(`{"type":"joystick_event","data":{"type":"joystick","direction":"up"}}`))

	select {
	case data := <-display.Send:
		t.Fatalf("无效方向不应产生广播: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ProjectorReusedAcrossReconnect(t *testing.T) {
	hub := newTestHub()

	first := NewClient(hub, nil, "display-1")
	second := NewClient(hub, nil, "display-1")
	other := NewClient(hub, nil, "display-2")

	// 同一会话键复用投影器，不同会话键各自独立
	assert.Same(t, first.proj, second.proj)
	assert.NotSame(t, first.proj, other.proj)
}

func TestHub_DisconnectExhaustionDisablesProjector(t *testing.T) {
	hub := NewHub(zap.NewNop())

	// 不经过Run循环，直接驱动注销逻辑；期间没有成功重连，
	// 断连计数不会被复位
	client := NewClient(hub, nil, "flaky-display")
	for i := 0; i < projector.DefaultMaxReconnectAttempts; i++ {
		hub.registerClient(client)
		hub.unregisterClient(client)
		// 注销会关闭发送通道，为下一轮注册重建
		client.Send = make(chan []byte, 256)
	}

	assert.Equal(t, projector.StateDisabled, client.proj.State())

	// 禁用后重连不再复位
	revived := NewClient(hub, nil, "flaky-display")
	assert.Equal(t, projector.StateDisabled, revived.proj.State())
}
