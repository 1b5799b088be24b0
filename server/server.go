// Package server exposes the HTTP surface: document submission/query/
// delete, the per-channel generation endpoints, and health.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/scribe/generator"
	"github.com/scribeworks/scribe/llm"
	"github.com/scribeworks/scribe/logger"
	"github.com/scribeworks/scribe/memory"
)

// Server wires the HTTP routes to the memory and generation services.
type Server struct {
	mem    *memory.Service
	gen    *generator.Service
	engine *gin.Engine
}

// New creates the server and registers all routes.
func New(mem *memory.Service, gen *generator.Service) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{mem: mem, gen: gen, engine: engine}

	engine.GET("/health", s.health)

	memoryRoutes := engine.Group("/memory")
	memoryRoutes.POST("/save", s.saveDocument)
	memoryRoutes.POST("/query", s.queryDocuments)
	memoryRoutes.DELETE("/documents/:id", s.deleteDocument)

	generateRoutes := engine.Group("/generate")
	generateRoutes.POST("/blog", s.generateBlog)
	generateRoutes.POST("/social", s.generateSocial)

	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type saveRequest struct {
	ID          string            `json:"id"`
	Content     string            `json:"content" binding:"required"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata"`
	Embed       []float32         `json:"embed"`
}

func (s *Server) saveDocument(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	if req.ContentType != "" {
		metadata["content_type"] = req.ContentType
	}

	id, err := s.mem.Save(c.Request.Context(), req.ID, req.Content, metadata, req.Embed)
	if err != nil {
		s.fail(c, "save memory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  *int   `json:"top_k"`
}

type queryResponse struct {
	Results []memory.QueryResult `json:"results"`
}

func (s *Server) queryDocuments(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topK := 5
	if req.TopK != nil {
		if *req.TopK < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_k must not be negative"})
			return
		}
		topK = *req.TopK
	}

	results, err := s.mem.Query(c.Request.Context(), req.Query, topK)
	if err != nil {
		s.fail(c, "query memory", err)
		return
	}
	if results == nil {
		results = []memory.QueryResult{}
	}
	c.JSON(http.StatusOK, queryResponse{Results: results})
}

func (s *Server) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.mem.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "delete memory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type blogRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	Prompt      string   `json:"prompt" binding:"required"`
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	WordCount   int      `json:"word_count"`
}

func (s *Server) generateBlog(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.gen.Blog(c.Request.Context(), generator.BlogRequest{
		UserID:      req.UserID,
		Prompt:      req.Prompt,
		WordCount:   req.WordCount,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.fail(c, "generate blog", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type socialRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	Prompt      string   `json:"prompt" binding:"required"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Count       int      `json:"count"`
	Platform    string   `json:"platform"`
}

func (s *Server) generateSocial(c *gin.Context) {
	var req socialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.gen.Social(c.Request.Context(), generator.SocialRequest{
		UserID:      req.UserID,
		Prompt:      req.Prompt,
		Count:       req.Count,
		Platform:    req.Platform,
		Model:       req.Model,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.fail(c, "generate social", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// fail maps the error taxonomy onto status codes: storage unavailability
// is 503, upstream generation failure is 502, anything else 500.
func (s *Server) fail(c *gin.Context, op string, err error) {
	logger.Errorf("[SERVER] %s: %v", op, err)

	status := http.StatusInternalServerError
	var storageErr *memory.StorageError
	var generationErr *llm.GenerationError
	switch {
	case errors.As(err, &storageErr):
		status = http.StatusServiceUnavailable
	case errors.As(err, &generationErr):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
