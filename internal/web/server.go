// Package web serves the JSON API behind the Telegram mini-app.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"day-planner/internal/model"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

const (
	ctxUser  = "planner.user"
	ctxStore = "planner.store"
)

// UserRecorder remembers the identity a workspace owner presented.
type UserRecorder interface {
	Upsert(ctx context.Context, identity model.User) (*model.User, error)
}

// Options configure the API server.
type Options struct {
	Token          string
	InitDataMaxAge time.Duration
	Users          UserRecorder
}

// Server is the mini-app API server.
type Server struct {
	registry   *store.Registry
	tasks      *service.TaskService
	categories *service.CategoryService
	opts       Options
	now        func() time.Time
	router     *gin.Engine
}

// NewServer wires routes over the given workspaces and services.
func NewServer(registry *store.Registry, tasks *service.TaskService, categories *service.CategoryService, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		registry:   registry,
		tasks:      tasks,
		categories: categories,
		opts:       opts,
		now:        time.Now,
		router:     router,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api", s.authenticate)
	{
		api.GET("/session", s.handleSession)

		api.GET("/categories", s.handleListCategories)
		api.POST("/categories", s.handleCreateCategory)

		api.GET("/days/:date", s.handleDay)
		api.GET("/days/:date/ics", s.handleDayICS)

		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/toggle", s.handleToggleTask)
		api.POST("/tasks/:id/move", s.handleMoveTask)
	}

	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[info] api listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// authenticate resolves the caller from init data and opens their workspace.
func (s *Server) authenticate(c *gin.Context) {
	user, err := ValidateInitData(c.GetHeader(InitDataHeader), s.opts.Token, s.opts.InitDataMaxAge, s.now())
	if err != nil {
		log.Printf("[warn] rejected init data: %v", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set(ctxUser, user)
	c.Set(ctxStore, s.registry.Open(c.Request.Context(), store.UserNamespace(user.ID)))
	c.Next()
}

func currentUser(c *gin.Context) WebAppUser {
	return c.MustGet(ctxUser).(WebAppUser)
}

func currentStore(c *gin.Context) *store.Store {
	return c.MustGet(ctxStore).(*store.Store)
}
