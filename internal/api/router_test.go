package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/navigation"
	"github.com/wfunc/privacy-kiosk/internal/repository"
	ws "github.com/wfunc/privacy-kiosk/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter 构建测试路由器
func newTestRouter(t *testing.T) (*Router, *gateway.Gateway, *gorm.DB) {
	t.Helper()

	db := repository.SetupTestDB()
	t.Cleanup(func() { repository.CleanupTestDB(db) })
	repository.SeedTestQuestions(db)

	log := zap.NewNop()
	gw := gateway.New(log)
	hub := ws.NewHub(log)
	go hub.Run()

	router := NewRouter(&RouterConfig{
		Gateway:      gw,
		Hub:          hub,
		Resolver:     navigation.NewResolver(nil),
		DB:           db,
		Quiz:         &config.QuizConfig{QuestionLimit: 5, DefaultSetID: 1},
		TickInterval: 10 * time.Millisecond,
	}, log)

	return router, gw, db
}

// doJSON 发送JSON请求
func doJSON(router *Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotNil(t, body["timestamp"])
	assert.NotNil(t, body["queues"])
}

func TestPushButton(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/gpio-button-press", `{"choice":"left"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	event, ok := gw.PopGPIO()
	require.True(t, ok)
	assert.Equal(t, gateway.DirectionLeft, event.Direction)
}

func TestPushButton_InvalidChoice(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	for _, body := range []string{`{"choice":"up"}`, `{}`, `not-json`} {
		w := doJSON(router, http.MethodPost, "/gpio-button-press", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
	}

	_, ok := gw.PopGPIO()
	assert.False(t, ok, "无效事件不应入队")
}

func TestPushCard(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/nfc-event", `{"set_id": 2}`)
	assert.Equal(t, http.StatusOK, w.Code)

	event, ok := gw.PopNFC()
	require.True(t, ok)
	assert.Equal(t, gateway.KindCardDetected, event.Kind)
	assert.JSONEq(t, `{"set_id": 2}`, string(event.Payload))
}

func TestPushCard_Malformed(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/nfc-event", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleNavigation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name     string
		body     string
		status   int
		redirect interface{}
	}{
		{"前进一步", `{"current_page":"/","choice":"right"}`, 200, "/conditions"},
		{"带html后缀", `{"current_page":"/conditions.html","choice":"right"}`, 200, "/terms"},
		{"无目标方向", `{"current_page":"/conditions","choice":"left"}`, 200, nil},
		{"未知页面回首页", `{"current_page":"/nowhere","choice":"left"}`, 200, "/"},
		{"问卷页不导航", `{"current_page":"/quiz","choice":"right"}`, 200, nil},
		{"缺少参数", `{"choice":"left"}`, 400, nil},
		{"缺少choice", `{"current_page":"/"}`, 400, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/handle-navigation", tt.body)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.redirect, body["redirect"])
		})
	}
}

func TestFetchQuestions(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/fetch_questions?set_id=1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var questions []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.Len(t, questions, 5)
	assert.Equal(t, "题目1", questions[0]["question"])

	// 缺省set_id使用配置默认组
	w = doJSON(router, http.MethodGet, "/fetch_questions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.Len(t, questions, 5)

	// 非法set_id
	w = doJSON(router, http.MethodGet, "/fetch_questions?set_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitResponse(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/submit_response", `{"question_id":1,"choice":"左1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	sessionID, _ := body["session_id"].(string)
	assert.NotEmpty(t, sessionID)

	// 复用会话ID
	w = doJSON(router, http.MethodPost, "/submit_response",
		`{"session_id":"`+sessionID+`","question_id":2,"choice":"右2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, sessionID, body["session_id"])

	// 缺少必填参数
	w = doJSON(router, http.MethodPost, "/submit_response", `{"choice":"左1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(router, http.MethodPost, "/submit_response", `{"question_id":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestStreamEvents_EndToEnd 按键推送到事件流下发的端到端路径
func TestStreamEvents_EndToEnd(t *testing.T) {
	router, _, _ := newTestRouter(t)

	srv := httptest.NewServer(router.Engine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/gpio-events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// 订阅建立后推送按键
	w := doJSON(router, http.MethodPost, "/gpio-button-press", `{"choice":"right"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 事件应在若干节拍内出现在流里
	reader := bufio.NewReader(resp.Body)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("等待事件帧超时")
		default:
		}

		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(line, `"choice": "right"`) {
			return
		}
	}
}

// newTestRouterWithPages 构建带页面目录的测试路由器
func newTestRouterWithPages(t *testing.T, templateDir string) *Router {
	t.Helper()

	db := repository.SetupTestDB()
	t.Cleanup(func() { repository.CleanupTestDB(db) })

	log := zap.NewNop()
	hub := ws.NewHub(log)
	go hub.Run()

	var router *Router
	require.NotPanics(t, func() {
		router = NewRouter(&RouterConfig{
			Gateway:      gateway.New(log),
			Hub:          hub,
			Resolver:     navigation.NewResolver(nil),
			DB:           db,
			Quiz:         &config.QuizConfig{QuestionLimit: 5, DefaultSetID: 1},
			TickInterval: 10 * time.Millisecond,
			TemplateDir:  templateDir,
		}, log)
	})
	return router
}

// 测试模板目录缺失时跳过页面路由而不是中断启动
func TestNewRouter_MissingTemplateDir(t *testing.T) {
	router := newTestRouterWithPages(t, "./web/templates-missing")

	// API路由不受影响
	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// 页面路由未注册
	w = doJSON(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// 测试模板目录为空时同样跳过页面路由
func TestNewRouter_EmptyTemplateDir(t *testing.T) {
	router := newTestRouterWithPages(t, t.TempDir())

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// 测试模板目录存在时按导航图注册页面路由
func TestNewRouter_PageRoutes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Welcome-Home.html", "conditions.html", "terms.html",
		"insert-card.html", "loading.html", "quiz.html", "group01.html",
		"0.html", "1.html", "2.html", "3.html", "4.html", "5.html",
	} {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, name),
			[]byte("<html><body>"+name+"</body></html>"), 0644))
	}

	router := newTestRouterWithPages(t, dir)

	w := doJSON(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome-Home.html")

	w = doJSON(router, http.MethodGet, "/quiz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz.html")
}
