package ui

import (
	"container/list"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"biotriage/app"
	"biotriage/domain/core"
	"biotriage/domain/enrichment"
	"biotriage/domain/triage"
	"biotriage/internal/errors"
	"biotriage/internal/report"
)

// resultCacheSize bounds the in-memory result cache. Results exist for the
// request/report cycle; the Postgres archive is the durable store.
const resultCacheSize = 128

// Server exposes the triage pipeline over HTTP.
type Server struct {
	triage      *app.TriageService
	reportsDir  string
	maxUploadMB int64

	mu      sync.Mutex
	results map[core.AnalysisID]*triage.Result
	order   *list.List // AnalysisID eviction order, oldest at front
}

// NewServer creates the API server.
func NewServer(triageSvc *app.TriageService, reportsDir string, maxUploadMB int64) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &Server{
		triage:      triageSvc,
		reportsDir:  reportsDir,
		maxUploadMB: maxUploadMB,
		results:     make(map[core.AnalysisID]*triage.Result),
		order:       list.New(),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = s.maxUploadMB << 20

	r.GET("/health", s.handleHealth)
	r.POST("/analyze", s.handleAnalyze)
	r.GET("/analyses/:id/programs", s.handlePrograms)
	r.GET("/analyses/:id/top-terms", s.handleTopTerms)
	r.GET("/analyses/:id/raw", s.handleRaw)
	r.POST("/analyses/:id/report", s.handleReport)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAnalyze accepts a multipart upload (field "file") plus experiment
// context fields and runs the full triage pipeline synchronously.
func (s *Server) handleAnalyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > s.maxUploadMB<<20 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File size (%.1f MB) exceeds the %dMB limit",
				float64(header.Size)/(1024*1024), s.maxUploadMB),
		})
		return
	}

	ectx := enrichment.Context{
		Organism:     c.PostForm("organism"),
		Tissue:       c.PostForm("tissue"),
		CellType:     c.PostForm("cell_type"),
		Assay:        enrichment.NormalizeAssay(c.PostForm("assay")),
		Perturbation: c.PostForm("perturbation"),
		Timepoint:    c.PostForm("timepoint"),
		Phenotype:    c.PostForm("phenotype"),
	}

	result, err := s.triage.Analyze(c.Request.Context(), file, header.Filename, ectx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.cache(result)
	c.JSON(http.StatusOK, gin.H{
		"analysis_id":   result.AnalysisID,
		"programs":      len(result.Programs),
		"top_terms":     len(result.TopTerms),
		"disagreements": len(result.Disagreements),
		"warnings":      result.Warnings,
	})
}

func (s *Server) handlePrograms(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis_id": result.AnalysisID,
		"programs":    result.Programs,
		"narrative":   result.Narrative,
		"warnings":    result.Warnings,
	})
}

func (s *Server) handleTopTerms(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis_id": result.AnalysisID,
		"top_terms":   result.TopTerms,
	})
}

func (s *Server) handleRaw(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleReport renders the HTML report to the reports directory and returns
// the file name the sidecar serves.
func (s *Server) handleReport(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	name, err := report.WriteReport(s.reportsDir, result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to write report: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": name, "path": "/reports/" + name})
}

func (s *Server) lookup(c *gin.Context) (*triage.Result, bool) {
	id, err := core.ParseAnalysisID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis id"})
		return nil, false
	}

	s.mu.Lock()
	result, ok := s.results[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
		return nil, false
	}
	return result, true
}

func (s *Server) cache(result *triage.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result.AnalysisID] = result
	s.order.PushBack(result.AnalysisID)
	for len(s.results) > resultCacheSize {
		front := s.order.Front()
		s.order.Remove(front)
		delete(s.results, front.Value.(core.AnalysisID))
	}
}

// writeError maps pipeline error codes to HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeMalformedInput, errors.CodeEmptyDataset:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
