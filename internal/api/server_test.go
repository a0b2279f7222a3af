package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-categorizer/internal/categorizer"
	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/hierarchy"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/patterns"
	"fjacquet/stmt-categorizer/internal/pipeline"
	"fjacquet/stmt-categorizer/internal/stmtparser"
)

type staticSource []models.Category

func (s staticSource) ListCategories(context.Context) ([]models.Category, error) { return s, nil }

type noKeywords struct{}

func (noKeywords) LoadKeywordRules() ([]models.KeywordRule, error) {
	return []models.KeywordRule{{Category: models.CategoryFood, Keywords: []string{"LIDL"}}}, nil
}

type fixture struct {
	handler  http.Handler
	ai       *categorizer.MockAIClient
	patterns *patterns.Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	logger := logging.NewMockLogger()
	ctx := context.Background()

	source := staticSource{
		{ID: "bills", Name: "Factures", Code: models.CategoryServices},
		{ID: "food", Name: "Alimentation", Code: models.CategoryFood},
		{ID: "other", Name: "Autre", Code: models.CategoryOther},
		{ID: "phone", Name: "Téléphone", ParentID: "bills"},
	}
	categories := hierarchy.NewService(hierarchy.NewCache(source, 0, nil), logger)

	store, err := patterns.NewStore(ctx, patterns.NewMemoryRepository(), logger)
	require.NoError(t, err)

	ai := &categorizer.MockAIClient{Response: "LEISURE"}
	cat := categorizer.NewCategorizer(store, categories, noKeywords{}, ai,
		categorizer.Options{RequestsPerMinute: 0, Timeout: time.Second}, logger)
	importer := pipeline.NewImporter(detector.New(logger), stmtparser.New(logger), cat, pipeline.Options{}, logger)

	srv := NewServer(importer, cat, categories, store, opts, logger)
	return &fixture{handler: srv.Handler(), ai: ai, patterns: store}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCategorize(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/categorize", `{"description":"CB LIDL 1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp categorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.CategoryFood, resp.Category)
	assert.Equal(t, models.SourceKeyword, resp.Source)
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Equal(t, 0, f.ai.CallCount())
}

func TestCategorize_BadRequests(t *testing.T) {
	f := newFixture(t, Options{})

	for _, body := range []string{``, `{"description":""}`, `{"description":"x","extra":1}`, `not json`} {
		rec := f.do(t, http.MethodPost, "/api/categorize", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := f.do(t, http.MethodGet, "/api/categorize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCategorize_ClassifierFailures(t *testing.T) {
	tests := []struct {
		name   string
		ai     func(*categorizer.MockAIClient)
		status int
		code   string
	}{
		{"invalid output", func(m *categorizer.MockAIClient) { m.Response = "PIZZA" }, http.StatusInternalServerError, "invalid_classification"},
		{"remote down", func(m *categorizer.MockAIClient) { m.Err = errors.New("503") }, http.StatusInternalServerError, "classification_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			tt.ai(f.ai)

			rec := f.do(t, http.MethodPost, "/api/categorize", `{"description":"CB INCONNU"}`)
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Error)
			assert.NotEmpty(t, resp.Details)
			assert.Empty(t, resp.Stack)
		})
	}
}

func TestCategorize_ExposeStack(t *testing.T) {
	f := newFixture(t, Options{ExposeStack: true})
	f.ai.Response = "PIZZA"

	rec := f.do(t, http.MethodPost, "/api/categorize", `{"description":"CB INCONNU"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec).Stack)
}

func TestConfirmThenCategorize(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/categorize/confirm",
		`{"description":"PRLV FREE MOBILE 06","pattern":"FREE MOBILE","category_id":"phone"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/categorize", `{"description":"PRLV FREE MOBILE 07"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp categorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.CategoryServices, resp.Category)
	assert.Equal(t, "phone", resp.CategoryID)
	assert.Equal(t, 0, f.ai.CallCount())

	rec = f.do(t, http.MethodPost, "/api/categorize/confirm",
		`{"description":"PRLV FREE","pattern":"SFR","category_id":"phone"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func statementText() string {
	row := func(d, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-33s%10s%12s", d, desc, debit, credit), " ")
	}
	return strings.Join([]string{
		row("Date", "Libellé", "Débit", "Crédit"),
		row("03/03/2024", "CB LIDL 1234", "23,10", ""),
		"04/03/2024  CB PHARMACIE",
		row("28/03/2024", "CINEMA PATHE", "11,50", ""),
	}, "\n")
}

func TestImport(t *testing.T) {
	f := newFixture(t, Options{})
	body, err := json.Marshal(map[string]string{"text": statementText(), "format": "auto", "filename": "mars.txt"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/import", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ID          string `json:"id"`
		Summary     string `json:"summary"`
		Categorized []struct {
			Index  int `json:"index"`
			Result struct {
				Category string `json:"category"`
			} `json:"result"`
		} `json:"categorized"`
		Statement struct {
			Operations []json.RawMessage `json:"operations"`
		} `json:"statement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "2 imported, 0 failed, 1 lines skipped", resp.Summary)
	assert.Len(t, resp.Statement.Operations, 2)
	require.Len(t, resp.Categorized, 2)
	assert.Equal(t, "FOOD", resp.Categorized[0].Result.Category)
	assert.Equal(t, "LEISURE", resp.Categorized[1].Result.Category)
}

func TestImport_Errors(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/import", `{"text":"abc","format":"lcl"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/import", `{"text":"nothing here","format":"auto"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_operations", decodeError(t, rec).Error)

	body, _ := json.Marshal(map[string]string{"text": "Fortuneo\nBoursoBank\n" + statementText()})
	rec = f.do(t, http.MethodPost, "/api/import", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ambiguous_format", decodeError(t, rec).Error)
}

func TestCategories(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tree []models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	require.Len(t, tree, 3)
	assert.Equal(t, "Alimentation", tree[0].Name)
	assert.Equal(t, "Factures", tree[1].Name)
	assert.Equal(t, "Autre", tree[2].Name)
	require.Len(t, tree[1].Children, 1)
	assert.Equal(t, "Téléphone", tree[1].Children[0].Name)
}

func TestPatternsCRUD(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/patterns", `{"pattern":"NETFLIX","category_id":"LEISURE","priority":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.CategorizationPattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = f.do(t, http.MethodPost, "/api/patterns", `{"pattern":"X","category_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/patterns", `{"pattern":"  ","category_id":"FOOD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.CategorizationPattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = f.do(t, http.MethodDelete, "/api/patterns/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/patterns/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.patterns.List())
}

func TestRecovery(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil, Options{}, logging.NewMockLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Error)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
