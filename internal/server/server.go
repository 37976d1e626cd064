// Package server exposes the league history sections over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/omarshaarawi/legacybot/internal/analytics/drafts"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/analytics/records"
	"github.com/omarshaarawi/legacybot/internal/analytics/trajectory"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/service"
)

// History is the subset of *service.HistoryService the routes need.
type History interface {
	GetLineages(ctx context.Context, username string) (service.User, []lineage.Lineage, error)
	GetOverview(ctx context.Context, username, name string) (*service.Overview, error)
	GetRecords(ctx context.Context, username, name string) (records.Book, error)
	GetLuck(ctx context.Context, username, name string) (*service.LuckReport, error)
	GetTrades(ctx context.Context, username, name string) (*service.TradeReport, error)
	GetDrafts(ctx context.Context, username, name string) (drafts.LineageDrafts, error)
	GetTrajectory(ctx context.Context, username, name string) ([]trajectory.Trajectory, error)
	GetOutlook(ctx context.Context, username, name string) (*service.OutlookReport, error)
	GetWeeklyRecap(ctx context.Context, username, name string) (*service.WeeklyRecap, error)
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type Server struct {
	history History
	engine  *gin.Engine
	srv     *http.Server
}

func New(cfg config.Server, history History) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), RequestLogger())

	s := &Server{
		history: history,
		engine:  engine,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.health)
	s.engine.GET("/healthz", s.health)

	users := s.engine.Group("/users/:username")
	users.GET("/lineages", s.lineages)

	l := users.Group("/lineages/:name")
	l.GET("/overview", section(s.history.GetOverview, service.FormatOverview))
	l.GET("/records", section(s.history.GetRecords, service.FormatRecords))
	l.GET("/luck", section(s.history.GetLuck, service.FormatLuck))
	l.GET("/trades", section(s.history.GetTrades, service.FormatTrades))
	l.GET("/drafts", section(s.history.GetDrafts, service.FormatDrafts))
	l.GET("/trajectory", section(s.history.GetTrajectory, service.FormatTrajectory))
	l.GET("/outlook", section(s.history.GetOutlook, service.FormatOutlook))
	l.GET("/recap", section(s.history.GetWeeklyRecap, service.FormatRecap))
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

func (s *Server) lineages(c *gin.Context) {
	user, lineages, err := s.history.GetLineages(c.Request.Context(), c.Param("username"))
	if err != nil {
		sendError(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.String(http.StatusOK, service.FormatLineages(user, lineages))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "lineages": lineages})
}

// section serves one lazily computed section as JSON, or as the chat
// Markdown rendering with ?format=markdown.
func section[T any](fetch func(context.Context, string, string) (T, error), format func(T) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := fetch(c.Request.Context(), c.Param("username"), c.Param("name"))
		if err != nil {
			sendError(c, err)
			return
		}
		if c.Query("format") == "markdown" {
			c.String(http.StatusOK, format(result))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func sendError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrLineageNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrUpstreamUnavailable):
		code = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.JSON(code, ErrorResponse{
		Error:     http.StatusText(code),
		Message:   err.Error(),
		Code:      code,
		RequestID: c.GetString(requestIDKey),
	})
}
