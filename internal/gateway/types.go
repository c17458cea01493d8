package gateway

import (
	"encoding/json"
	"time"

	"github.com/wfunc/privacy-kiosk/internal/errors"
)

// EventKind 输入事件类型
type EventKind string

const (
	KindButton       EventKind = "button"        // GPIO物理按键
	KindJoystick     EventKind = "joystick"      // 摇杆方向
	KindSelect       EventKind = "select"        // 摇杆确认
	KindCardDetected EventKind = "card_detected" // NFC读卡
)

// Direction 按键方向
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionNone  Direction = ""
)

// ParseDirection 解析方向字符串
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return DirectionLeft, nil
	case "right":
		return DirectionRight, nil
	default:
		return DirectionNone, errors.Newf(errors.ErrInvalidChoice, "choice=%s", s)
	}
}

// InputEvent 标准化输入事件（创建后不可变）
type InputEvent struct {
	Kind      EventKind       `json:"kind"`
	Direction Direction       `json:"direction,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"` // 仅card_detected携带
	CreatedAt time.Time       `json:"created_at"`
}

// NewButtonEvent 创建按键事件
func NewButtonEvent(dir Direction) InputEvent {
	return InputEvent{
		Kind:      KindButton,
		Direction: dir,
		CreatedAt: time.Now(),
	}
}

// NewCardEvent 创建读卡事件
func NewCardEvent(payload json.RawMessage) InputEvent {
	return InputEvent{
		Kind:      KindCardDetected,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
