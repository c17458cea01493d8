package navigation

import (
	"strings"

	"github.com/wfunc/privacy-kiosk/internal/gateway"
)

// HomeScreen 根页面，所有未知页面的兜底跳转目标
const HomeScreen = "/"

// QuizScreen 问卷页面，由页内状态机驱动，永远不走左右导航
const QuizScreen = "/quiz"

// Screen 单个页面的导航配置
type Screen struct {
	Template string // 渲染模板名
	Left     string // 左键跳转目标，空表示无动作
	Right    string // 右键跳转目标，空表示无动作
}

// ScreenGraph 页面导航图
//
// 启动时构建一次，之后只读共享，无需加锁。
type ScreenGraph map[string]Screen

// DefaultGraph 默认的展亭页面流程
func DefaultGraph() ScreenGraph {
	graph := ScreenGraph{
		"/":            {Template: "Welcome-Home.html", Right: "/conditions"},
		"/conditions":  {Template: "conditions.html", Right: "/terms"},
		"/terms":       {Template: "terms.html", Right: "/insert_card"},
		"/insert_card": {Template: "insert-card.html", Right: "/loading"},
		"/loading":     {Template: "loading.html"},
		"/quiz":        {Template: "quiz.html"},
		"/group01":     {Template: "group01.html"},
	}

	// 问卷结果页0-5：左键返回刷卡页，右键进入分组页
	for _, id := range []string{"/0", "/1", "/2", "/3", "/4", "/5"} {
		graph[id] = Screen{
			Template: strings.TrimPrefix(id, "/") + ".html",
			Left:     "/insert_card",
			Right:    "/group01",
		}
	}

	return graph
}

// Resolver 导航解析器（纯函数，无副作用）
type Resolver struct {
	graph ScreenGraph
}

// NewResolver 创建导航解析器
func NewResolver(graph ScreenGraph) *Resolver {
	if graph == nil {
		graph = DefaultGraph()
	}
	return &Resolver{graph: graph}
}

// Resolve 解析导航目标
//
// 返回值语义：(目标路径, true) 表示跳转；("", false) 表示不导航，
// 与"跳转到首页"是两种不同的结果。未知页面兜底回首页，永不报错。
func (r *Resolver) Resolve(currentPage string, choice gateway.Direction) (string, bool) {
	page := strings.TrimSuffix(currentPage, ".html")

	// 问卷页由页内多题状态机推进，左右键不触发页面跳转
	if page == QuizScreen {
		return "", false
	}

	screen, ok := r.graph[page]
	if !ok {
		// 未知页面兜底回首页
		return HomeScreen, true
	}

	var target string
	switch choice {
	case gateway.DirectionLeft:
		target = screen.Left
	case gateway.DirectionRight:
		target = screen.Right
	}

	if target == "" {
		return "", false
	}
	return target, true
}

// Graph 返回导航图（只读）
func (r *Resolver) Graph() ScreenGraph {
	return r.graph
}
