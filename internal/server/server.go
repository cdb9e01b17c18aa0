package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmorgan81/barroco/internal/handle"
	"github.com/dmorgan81/barroco/internal/page"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
)

type Handlers struct {
	Image *handle.ImageHandler
	Html  *handle.HtmlHandler
	Feed  *handle.FeedHandler
}

// NewEngine builds the gin engine with middleware and routes.
func NewEngine(logger *slog.Logger, h Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(logger), CORS())

	engine.GET("/", h.Html.Handle)
	engine.POST("/", h.Html.Submit)
	engine.POST("/generate_image/", h.Image.Handle)
	engine.GET("/feed.xml", h.Feed.Handle)
	engine.StaticFS("/static", http.FS(page.Static()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return engine
}

type Server struct {
	engine          *gin.Engine
	addr            string
	shutdownTimeout time.Duration
	log             *slog.Logger
}

func NewServer(i *do.Injector) (*Server, error) {
	gin.SetMode(do.MustInvokeNamed[string](i, "gin_mode"))
	logger := do.MustInvoke[*slog.Logger](i)

	engine := NewEngine(logger, Handlers{
		Image: do.MustInvoke[*handle.ImageHandler](i),
		Html:  do.MustInvoke[*handle.HtmlHandler](i),
		Feed:  do.MustInvoke[*handle.FeedHandler](i),
	})
	return &Server{
		engine:          engine,
		addr:            do.MustInvokeNamed[string](i, "addr"),
		shutdownTimeout: do.MustInvokeNamed[time.Duration](i, "shutdown_timeout"),
		log:             logger.WithGroup("server"),
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("context cancelled, shutting down http server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
