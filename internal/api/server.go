// Package api exposes the import pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/pipeline"
)

const maxBodyBytes = 10 << 20

// Importer runs documents and descriptions through the pipeline.
type Importer interface {
	Import(ctx context.Context, doc detector.Document) (*pipeline.Report, error)
	CategorizeOne(ctx context.Context, description string) (models.CategorizationResult, error)
}

// Confirmer records user-confirmed categorizations.
type Confirmer interface {
	Confirm(ctx context.Context, description, pattern, categoryID string) (models.CategorizationPattern, error)
}

// Categories serves the category tree and validates category ids.
type Categories interface {
	Tree(ctx context.Context) ([]*models.Category, error)
	Resolve(ctx context.Context, categoryID string) (models.TransactionCategory, error)
}

// Patterns manages the pattern store.
type Patterns interface {
	List() []models.CategorizationPattern
	Add(ctx context.Context, pattern, categoryID string, priority int) (models.CategorizationPattern, error)
	Remove(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	// ExposeStack adds a stack trace to 5xx error bodies.
	ExposeStack bool
}

// Server holds the HTTP handlers.
type Server struct {
	importer    Importer
	confirmer   Confirmer
	categories  Categories
	patterns    Patterns
	exposeStack bool
	logger      logging.Logger
}

// NewServer creates a Server.
func NewServer(importer Importer, confirmer Confirmer, categories Categories, patterns Patterns, opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Server{
		importer:    importer,
		confirmer:   confirmer,
		categories:  categories,
		patterns:    patterns,
		exposeStack: opts.ExposeStack,
		logger:      logger,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/categorize", s.handleCategorize)
	mux.HandleFunc("POST /api/categorize/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/patterns", s.handleListPatterns)
	mux.HandleFunc("POST /api/patterns", s.handleAddPattern)
	mux.HandleFunc("DELETE /api/patterns/{id}", s.handleRemovePattern)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return s.Recovery(Logger(s.logger)(RequestID(mux)))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

type categorizeRequest struct {
	Description string `json:"description"`
}

type categorizeResponse struct {
	Category       models.TransactionCategory `json:"category"`
	Label          string                     `json:"label"`
	CategoryID     string                     `json:"category_id,omitempty"`
	Source         string                     `json:"source"`
	Confidence     float64                    `json:"confidence"`
	MatchedPattern string                     `json:"matched_pattern,omitempty"`
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", errors.New("description is required"))
		return
	}

	result, err := s.importer.CategorizeOne(r.Context(), req.Description)
	if err != nil {
		s.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, categorizeResponse{
		Category:       result.Category,
		Label:          result.Category.Label(),
		CategoryID:     result.CategoryID,
		Source:         result.Source,
		Confidence:     result.Confidence,
		MatchedPattern: result.MatchedPattern,
	})
}

type confirmRequest struct {
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	CategoryID  string `json:"category_id"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.CategoryID) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", errors.New("description and category_id are required"))
		return
	}

	p, err := s.confirmer.Confirm(r.Context(), req.Description, req.Pattern, req.CategoryID)
	if err != nil {
		s.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

type importRequest struct {
	Text     string `json:"text"`
	Format   string `json:"format"`
	Filename string `json:"filename"`
}

type importResponse struct {
	*pipeline.Report
	Summary string `json:"summary"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}
	format, err := detector.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_format", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", errors.New("text is required"))
		return
	}

	report, err := s.importer.Import(r.Context(), detector.Document{Text: req.Text, Filename: req.Filename, Format: format})
	if err != nil {
		s.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, importResponse{Report: report, Summary: report.Summary()})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := s.categories.Tree(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tree)
}

func (s *Server) handleListPatterns(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.patterns.List())
}

type patternRequest struct {
	Pattern    string `json:"pattern"`
	CategoryID string `json:"category_id"`
	Priority   int    `json:"priority"`
}

func (s *Server) handleAddPattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.categories.Resolve(r.Context(), req.CategoryID); err != nil {
		s.fail(w, fmt.Errorf("category %q: %w", req.CategoryID, err))
		return
	}

	p, err := s.patterns.Add(r.Context(), req.Pattern, req.CategoryID, req.Priority)
	if err != nil {
		s.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRemovePattern(w http.ResponseWriter, r *http.Request) {
	if err := s.patterns.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
