package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
)

// 测试默认流程的右键前进链
func TestResolver_ForwardChain(t *testing.T) {
	r := NewResolver(nil)

	chain := []struct {
		from string
		to   string
	}{
		{"/", "/conditions"},
		{"/conditions", "/terms"},
		{"/terms", "/insert_card"},
		{"/insert_card", "/loading"},
	}

	for _, step := range chain {
		target, ok := r.Resolve(step.from, gateway.DirectionRight)
		assert.True(t, ok, step.from)
		assert.Equal(t, step.to, target)
	}
}

// 测试未配置方向不导航（与跳转首页是两种结果）
func TestResolver_NoTarget(t *testing.T) {
	r := NewResolver(nil)

	target, ok := r.Resolve("/terms", gateway.DirectionLeft)
	assert.False(t, ok)
	assert.Empty(t, target)

	// 终点页两个方向都不导航
	for _, dir := range []gateway.Direction{gateway.DirectionLeft, gateway.DirectionRight} {
		_, ok := r.Resolve("/loading", dir)
		assert.False(t, ok)
	}
}

// 测试未知页面兜底回首页
func TestResolver_UnknownPage(t *testing.T) {
	r := NewResolver(nil)

	target, ok := r.Resolve("/unknown-page", gateway.DirectionRight)
	assert.True(t, ok)
	assert.Equal(t, HomeScreen, target)

	target, ok = r.Resolve("/does-not-exist", gateway.DirectionLeft)
	assert.True(t, ok)
	assert.Equal(t, HomeScreen, target)
}

// 测试问卷页永不导航，即使导航图被改写
func TestResolver_QuizAlwaysTerminal(t *testing.T) {
	// 故意给问卷页配置跳转目标
	graph := ScreenGraph{
		"/quiz": {Template: "quiz.html", Left: "/", Right: "/group01"},
	}
	r := NewResolver(graph)

	for _, dir := range []gateway.Direction{gateway.DirectionLeft, gateway.DirectionRight} {
		target, ok := r.Resolve("/quiz", dir)
		assert.False(t, ok)
		assert.Empty(t, target)
	}
}

// 测试.html后缀被剥离
func TestResolver_StripHTMLSuffix(t *testing.T) {
	r := NewResolver(nil)

	target, ok := r.Resolve("/terms.html", gateway.DirectionRight)
	assert.True(t, ok)
	assert.Equal(t, "/insert_card", target)

	_, ok = r.Resolve("/quiz.html", gateway.DirectionRight)
	assert.False(t, ok)
}

// 测试问卷结果页的双向导航
func TestResolver_ResultPages(t *testing.T) {
	r := NewResolver(nil)

	for _, page := range []string{"/0", "/1", "/2", "/3", "/4", "/5"} {
		target, ok := r.Resolve(page, gateway.DirectionLeft)
		assert.True(t, ok)
		assert.Equal(t, "/insert_card", target)

		target, ok = r.Resolve(page, gateway.DirectionRight)
		assert.True(t, ok)
		assert.Equal(t, "/group01", target)
	}
}
