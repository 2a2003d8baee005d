// Package server 以 JSON over HTTP 暴露推荐引擎。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
	"github.com/rushteam/listingrec/recommend"
)

// Engine 是 HTTP 层依赖的引擎能力，recommend.Engine 实现此接口
type Engine interface {
	Search(ctx context.Context, query string, limit int) ([]core.Summary, error)
	Recommend(ctx context.Context, req recommend.Request) ([]recommend.Result, error)
	ListingDetail(ctx context.Context, id int64) (*core.Listing, error)
	Weights() core.Weights
	SetWeights(candidate map[string]any) (core.Weights, error)
	RefreshCatalog(ctx context.Context) (int, error)
	CatalogStats(ctx context.Context) ([]feature.Stats, error)
}

var _ Engine = (*recommend.Engine)(nil)

// Config HTTP 服务参数
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server 是推荐服务的 HTTP 服务器
type Server struct {
	engine  Engine
	cfg     Config
	logger  *slog.Logger
	handler http.Handler
	http    *http.Server
}

// Option 配置 Server
type Option func(*Server)

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New 创建服务器并注册路由
func New(engine Engine, cfg Config, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler 返回根 handler（测试用）
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 启动监听，ctx 结束时优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
