// Package api is the HTTP boundary of the search service: request schema
// validation, routing and response shaping around the engine and catalog.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "provision-search/internal/common/errors"
	"provision-search/internal/common/logger"
	"provision-search/internal/common/observability"
	"provision-search/internal/models"
)

const requestIDHeader = "X-Request-ID"

// SearchService is the engine contract required by the HTTP API.
type SearchService interface {
	ProcessSearchRequest(ctx context.Context, req *models.SearchRequest) *models.ConsolidatedResult
	Connectivity(ctx context.Context) *models.HealthStatus
	Info() *models.SystemInfo
}

// CatalogService serves the selector value lists.
type CatalogService interface {
	Localities(ctx context.Context) ([]string, error)
	AccessNodes(ctx context.Context) ([]string, error)
	Nodes(ctx context.Context) ([]string, error)
	Queues() []string
}

// Server exposes the search engine over HTTP.
type Server struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	search       SearchService
	catalog      CatalogService
	obs          *observability.Observability
	log          logger.Logger
	server       *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	startTime    time.Time
}

// NewServer creates the HTTP API server.
func NewServer(addr string, readTimeout, writeTimeout time.Duration, search SearchService, catalog CatalogService, obs *observability.Observability, log logger.Logger) *Server {
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         addr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		search:       search,
		catalog:      catalog,
		obs:          obs,
		log:          log.WithFields(map[string]interface{}{"component": "api"}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.POST("/api/search", s.handleSearch)

	r.GET("/api/catalog/localities", s.catalogHandler(s.catalog.Localities))
	r.GET("/api/catalog/access-nodes", s.catalogHandler(s.catalog.AccessNodes))
	r.GET("/api/catalog/nodes", s.catalogHandler(s.catalog.Nodes))
	r.GET("/api/catalog/queues", s.handleQueues)

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/info", s.handleInfo)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.log.Info("http server listening", map[string]interface{}{"addr": s.addr})

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestID assigns each request an identifier that is echoed back to the
// caller and available to handlers for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) handleSearch(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, commonerrors.NewInvalidRequestFormatError("unreadable request body"))
		return
	}

	if stdErr := validateSearchPayload(body); stdErr != nil {
		s.respondError(c, stdErr)
		return
	}

	var req models.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondError(c, commonerrors.NewInvalidRequestFormatError(err.Error()))
		return
	}

	result := s.search.ProcessSearchRequest(c.Request.Context(), &req)

	status := "success"
	if !result.Success {
		status = "failed"
	}
	if s.obs != nil {
		s.obs.RecordSearchProcessed(c.Request.Context(), string(req.SearchType), status)
		s.obs.RecordSearchDuration(c.Request.Context(), time.Since(start), status)
	}

	code := http.StatusOK
	if !result.Success && len(result.Errors) > 0 {
		code = commonerrors.HTTPStatus(commonerrors.ErrorCode(result.Errors[0].Code))
	}
	c.JSON(code, result)
}

// catalogHandler adapts one catalog lookup into a list response.
func (s *Server) catalogHandler(lookup func(ctx context.Context) ([]string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := lookup(c.Request.Context())
		if err != nil {
			if stdErr, ok := err.(*commonerrors.StandardError); ok {
				s.respondError(c, stdErr)
				return
			}
			s.respondError(c, commonerrors.NewCatalogLookupFailedError("catalog", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"values": values, "count": len(values)})
	}
}

func (s *Server) handleQueues(c *gin.Context) {
	values := s.catalog.Queues()
	c.JSON(http.StatusOK, gin.H{"values": values, "count": len(values)})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.search.Connectivity(c.Request.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"healthy": status.Healthy,
		"checks":  status.Checks,
		"uptime":  time.Since(s.startTime).String(),
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.search.Info())
}

func (s *Server) respondError(c *gin.Context, stdErr *commonerrors.StandardError) {
	s.log.Warn("request failed", map[string]interface{}{
		"path":      c.Request.URL.Path,
		"code":      stdErr.Code,
		"requestID": c.GetString("requestID"),
	})
	c.JSON(commonerrors.HTTPStatus(stdErr.Code), gin.H{
		"success": false,
		"error": gin.H{
			"code":    stdErr.Code,
			"message": stdErr.Message,
			"details": stdErr.Details,
		},
	})
}
