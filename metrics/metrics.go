// Package metrics serves collected validation metrics over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 暴露 /metrics 的 HTTP 服务
type Server struct {
	srv  *http.Server
	errc chan error
}

// NewHandler 返回指定 gatherer 的 /metrics mux
func NewHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string, g prometheus.Gatherer) *Server {
	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(g),
			ReadHeaderTimeout: 5 * time.Second,
		},
		errc: make(chan error, 1),
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errc <- err
		}
		close(s.errc)
	}()
	return s
}

// Err 返回监听失败的错误通道
func (s *Server) Err() <-chan error {
	return s.errc
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
