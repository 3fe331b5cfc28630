// Package server exposes the collections and the analytical query catalog
// over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/catalog"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/model"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/pipeline"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Server serves paginated collection listings and the analytics catalog.
type Server struct {
	store    store.Store
	log      logr.Logger
	router   *gin.Engine
	validate *validator.Validate
}

func New(st store.Store, log logr.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:    st,
		log:      log,
		router:   gin.New(),
		validate: validator.New(),
	}

	s.router.Use(gin.Recovery())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.GET("/collections/:name", s.listCollection)
	api.GET("/analytics", s.listQueries)
	api.GET("/analytics/:name", s.runQuery)

	return s
}

// Router returns the underlying gin engine, mostly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Start serves HTTP on the given address and blocks.
func (s *Server) Start(addr string) error {
	s.log.Info("serving HTTP", "addr", addr)
	return s.router.Run(addr)
}

// queryParams are the caller-supplied arguments of a catalog query. The
// date window must be RFC 3339.
type queryParams struct {
	From  string `form:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To    string `form:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit int64  `form:"limit" validate:"omitempty,min=0,max=1000"`
}

func (s *Server) listCollection(c *gin.Context) {
	name := c.Param("name")
	if !knownCollection(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection " + name})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 || limit > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}

	docs, err := store.ReadAll(c.Request.Context(), s.store, name)
	if err != nil {
		s.log.Error(err, "collection scan failed", "collection", name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	start := (page - 1) * limit
	if start > len(docs) {
		start = len(docs)
	}
	end := start + limit
	if end > len(docs) {
		end = len(docs)
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": name,
		"page":       page,
		"limit":      limit,
		"total":      len(docs),
		"data":       docs[start:end],
	})
}

func (s *Server) listQueries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queries": catalog.Names()})
}

func (s *Server) runQuery(c *gin.Context) {
	name := c.Param("name")

	params := queryParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.Struct(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := catalog.Build(name, catalog.Params{
		From:  params.From,
		To:    params.To,
		Limit: params.Limit,
	})
	if err != nil {
		status, body := errorResponse(err)
		if status == http.StatusInternalServerError {
			status = http.StatusNotFound
		}
		c.JSON(status, body)
		return
	}

	res, err := p.Execute(c.Request.Context(), s.store, s.log)
	if err != nil {
		s.log.Error(err, "query failed", "query", name)
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   name,
		"count":   len(res),
		"results": res,
	})
}

// errorResponse maps a pipeline error onto an HTTP status and a structured
// body. Range problems are the caller's fault; everything else is ours.
func errorResponse(err error) (int, gin.H) {
	var ire *pipeline.InvalidRangeError
	if errors.As(err, &ire) {
		return http.StatusBadRequest, gin.H{"error": ire.Error(), "stage": ire.Stage}
	}

	var tme *pipeline.TypeMismatchError
	if errors.As(err, &tme) {
		return http.StatusInternalServerError, gin.H{
			"error": tme.Error(),
			"field": tme.Field,
		}
	}

	var se *pipeline.StageError
	if errors.As(err, &se) {
		return http.StatusInternalServerError, gin.H{
			"error": se.Error(),
			"stage": se.Stage,
			"index": se.Index,
		}
	}

	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func knownCollection(name string) bool {
	for _, c := range model.Collections() {
		if c == name {
			return true
		}
	}
	return false
}
