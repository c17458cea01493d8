package api

import (
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/gateway"
	"github.com/wfunc/privacy-kiosk/internal/middleware"
	"github.com/wfunc/privacy-kiosk/internal/navigation"
	"github.com/wfunc/privacy-kiosk/internal/service"
	ws "github.com/wfunc/privacy-kiosk/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine      *gin.Engine
	gw          *gateway.Gateway
	hub         *ws.Hub
	resolver    *navigation.Resolver
	quizService service.QuizService

	eventHandler *EventHandler
	navHandler   *NavigationHandler
	quizHandler  *QuizHandler
	wsHandler    *WebSocketHandler

	templateDir string
	staticDir   string
	log         *zap.Logger
}

// RouterConfig 路由器依赖
type RouterConfig struct {
	Gateway      *gateway.Gateway
	Hub          *ws.Hub
	Resolver     *navigation.Resolver
	DB           *gorm.DB
	Quiz         *config.QuizConfig
	TickInterval time.Duration // 事件流下发节拍
	TemplateDir  string
	StaticDir    string
}

// NewRouter 创建路由器
func NewRouter(cfg *RouterConfig, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())

	// 创建服务
	quizService := service.NewQuizService(cfg.DB, cfg.Quiz, log)

	defaultSetID := 1
	if cfg.Quiz != nil && cfg.Quiz.DefaultSetID > 0 {
		defaultSetID = cfg.Quiz.DefaultSetID
	}

	router := &Router{
		engine:       engine,
		gw:           cfg.Gateway,
		hub:          cfg.Hub,
		resolver:     cfg.Resolver,
		quizService:  quizService,
		eventHandler: NewEventHandler(cfg.Gateway, cfg.Hub, cfg.TickInterval, log),
		navHandler:   NewNavigationHandler(cfg.Resolver, log),
		quizHandler:  NewQuizHandler(quizService, defaultSetID, log),
		wsHandler:    NewWebSocketHandler(cfg.Hub, log),
		templateDir:  cfg.TemplateDir,
		staticDir:    cfg.StaticDir,
		log:          log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.eventHandler.HealthCheck)

	// 输入事件入口（适配器推送）
	r.engine.POST("/gpio-button-press", r.eventHandler.PushButton)
	r.engine.POST("/nfc-event", r.eventHandler.PushCard)

	// 事件流出口（展示端订阅）
	r.engine.GET("/gpio-events", r.eventHandler.StreamEvents)
	r.engine.GET("/ws", r.wsHandler.Serve)

	// 导航
	r.engine.POST("/handle-navigation", r.navHandler.HandleNavigation)

	// 问答
	r.engine.GET("/fetch_questions", r.quizHandler.FetchQuestions)
	r.engine.POST("/submit_response", r.quizHandler.SubmitResponse)

	// 页面与静态资源
	r.setupPageRoutes()
}

// setupPageRoutes 设置页面路由
//
// 页面集合来自导航图：图里的每个页面渲染同名模板。
// 未配置模板目录时跳过（纯API部署，页面由外部托管）。
func (r *Router) setupPageRoutes() {
	if r.staticDir != "" {
		r.engine.Static("/static", r.staticDir)
	}

	if r.templateDir == "" {
		return
	}

	// LoadHTMLGlob在模板目录缺失或为空时会panic，先探测再加载
	pattern := filepath.Join(r.templateDir, "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		r.log.Warn("模板目录不可用，跳过页面路由",
			zap.String("dir", r.templateDir),
			zap.Error(err),
		)
		return
	}
	r.engine.LoadHTMLGlob(pattern)

	for path, screen := range r.resolver.Graph() {
		template := screen.Template
		r.engine.GET(path, func(c *gin.Context) {
			c.HTML(200, template, nil)
		})
	}
}

// Engine 获取Gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run 启动HTTP服务
func (r *Router) Run(addr string) error {
	r.log.Info("HTTP服务启动", zap.String("addr", addr))
	return r.engine.Run(addr)
}
