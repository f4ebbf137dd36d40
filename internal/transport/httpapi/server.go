package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/model"
	"ZoneBacktester/internal/recorder"
	"ZoneBacktester/internal/report"
	"ZoneBacktester/internal/scheduler"

	"github.com/gin-gonic/gin"
)

const defaultListLimit = 50

// Runner triggers a backtest run.
type Runner interface {
	RunOnce(ctx context.Context) (*scheduler.Outcome, error)
}

// Server exposes stored runs and an on-demand run trigger over HTTP.
type Server struct {
	addr   string
	runs   recorder.Reader
	runner Runner
	router *gin.Engine
}

// NewServer builds the router. runner may be nil, in which case POST /api/runs is not registered.
func NewServer(addr string, runs recorder.Reader, runner Runner) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{addr: addr, runs: runs, runner: runner, router: router}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	api := s.router.Group("/api")
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/trades", s.handleRunTrades)
	api.GET("/runs/:id/equity", s.handleRunEquity)
	api.GET("/runs/:id/chart", s.handleRunChart)
	if s.runner != nil {
		api.POST("/runs", s.handleRunStart)
	}
}

func (s *Server) handleRunList(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunTrades(c *gin.Context) {
	trades, err := s.runs.Trades(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	rows := make([]model.TradeRecord, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, t.Record())
	}
	c.JSON(http.StatusOK, gin.H{"trades": rows})
}

func (s *Server) handleRunEquity(c *gin.Context) {
	equity, err := s.runs.Equity(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equity": report.EquityPoints(equity)})
}

func (s *Server) handleRunChart(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	equity, err := s.runs.Equity(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	res := &model.Result{
		Symbol:         run.Symbol,
		RiskReward:     run.RiskReward,
		InitialBalance: run.InitialBalance,
		FinalBalance:   run.FinalBalance,
		Equity:         equity,
	}
	var buf bytes.Buffer
	if err := report.RenderPage(&buf, res, nil); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleRunStart runs a backtest synchronously and returns its summary.
func (s *Server) handleRunStart(c *gin.Context) {
	out, err := s.runner.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"run_id": out.RunID, "summary": out.Summary, "files": out.Files})
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, recorder.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logger.Errorf("http %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("http api listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
