package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Register(r *gin.Engine)
}

type GinServer struct {
	Engine *gin.Engine
	Addr   string

	srv *http.Server
}

// Start 阻塞直到服务关闭
func (s *GinServer) Start() error {
	s.srv = &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 等待处理中的请求结束
func (s *GinServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
