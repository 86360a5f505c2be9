package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRelayRoutes 注册设备上报、平台回调与健康检查路由
func (r *Router) RegisterRelayRoutes(iot *TelemetryHandler, hook *WebhookHandler) {
	r.Handle("/iot", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			r.notFound(w, req)
			return
		}
		iot.ServeHTTP(w, req)
	})

	r.Handle("/webhook", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			r.notFound(w, req)
			return
		}
		hook.ServeHTTP(w, req)
	})

	r.Handle("/health", r.health)
	// "/" 同时兜底所有未注册路径
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			r.notFound(w, req)
			return
		}
		r.health(w, req)
	})
}

// RegisterMetricsRoute 注册 Prometheus 指标
func (r *Router) RegisterMetricsRoute(h http.Handler) {
	r.HandleHandler("/metrics", h)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		r.notFound(w, req)
		return
	}
	writeText(w, http.StatusOK, "SmartCane Worker running")
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	r.logger.Debug("No route matched",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	writeText(w, http.StatusNotFound, "Not found")
}
