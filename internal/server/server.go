// Package server exposes the narration-service HTTP API: page analysis, book
// audio synthesis, book persistence and listing.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/book-expert/narration-service/internal/audio"
	"github.com/book-expert/narration-service/internal/book"
	"github.com/book-expert/narration-service/internal/vision"
)

const readinessTimeout = 2 * time.Second

// healthChecker reports whether a downstream service is reachable.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires the analysis, synthesis and persistence components behind the
// HTTP API.
type Server struct {
	analyzer *vision.Analyzer
	pipeline *audio.Pipeline
	books    *book.Repo
	tts      healthChecker
	log      *logger.Logger
}

// New creates a Server.
func New(
	analyzer *vision.Analyzer,
	pipeline *audio.Pipeline,
	books *book.Repo,
	tts healthChecker,
	log *logger.Logger,
) *Server {
	return &Server{
		analyzer: analyzer,
		pipeline: pipeline,
		books:    books,
		tts:      tts,
		log:      log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/health", s.health)
	router.GET("/ready", s.ready)

	api := router.Group("/api")
	api.POST("/analyze", s.analyze)
	api.POST("/synthesize", s.synthesize)
	api.POST("/save", s.save)
	api.GET("/books", s.listBooks)

	return router
}

// corsMiddleware allows the browser frontend to call the API from any
// origin, including preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)

			return
		}

		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	err := s.tts.HealthCheck(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"tts_error": err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

type analyzeRequest struct {
	Image   string   `json:"image"`
	Images  []string `json:"images"`
	PageNum int      `json:"page_num"`
}

// analyze handles one page image per call; a legacy "images" array is
// accepted with only its first element used.
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})

		return
	}

	image := req.Image
	if image == "" && len(req.Images) > 0 {
		image = req.Images[0]
	}

	if image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no image provided"})

		return
	}

	page := s.analyzer.AnalyzePage(c.Request.Context(), image, req.PageNum)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"page":     page,
		"page_num": req.PageNum,
	})
}

type synthesizeRequest struct {
	Pages  []book.PageAnalysis `json:"pages"`
	BookID string              `json:"book_id"`
}

func (s *Server) synthesize(c *gin.Context) {
	var req synthesizeRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})

		return
	}

	if len(req.Pages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no pages provided"})

		return
	}

	bookID := req.BookID
	if bookID == "" {
		bookID = uuid.NewString()
	}

	manifests, err := s.pipeline.SynthesizeBook(c.Request.Context(), bookID, req.Pages)
	if err != nil {
		s.log.Error("Synthesis failed for book %s: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"book_id":    bookID,
		"audio_urls": manifests,
	})
}

type saveRequest struct {
	BookID     string                   `json:"book_id"`
	Title      string                   `json:"title"`
	CoverImage string                   `json:"cover_image"`
	Pages      []book.PageAnalysis      `json:"pages"`
	AudioURLs  []book.PageAudioManifest `json:"audio_urls"`
	CreatedAt  string                   `json:"created_at"`
}

func (s *Server) save(c *gin.Context) {
	var req saveRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})

		return
	}

	if req.BookID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "book id is required"})

		return
	}

	if len(req.Pages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "pages are required"})

		return
	}

	doc := &book.Book{
		ID:         req.BookID,
		Title:      req.Title,
		CoverImage: req.CoverImage,
		Pages:      req.Pages,
		AudioURLs:  req.AudioURLs,
		PageCount:  len(req.Pages),
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  "",
	}

	err = s.books.Save(c.Request.Context(), doc)
	if err != nil {
		s.log.Error("Save failed for book %s: %v", req.BookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"book_id": req.BookID,
		"message": "Book saved successfully",
	})
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.books.List(c.Request.Context())
	if err != nil {
		s.log.Error("Listing books failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"books":   books,
		"count":   len(books),
	})
}
