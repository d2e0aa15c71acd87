package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/domain/search"
	logpkg "github.com/shopsight/prodsim/internal/logger"
	cataloguc "github.com/shopsight/prodsim/internal/usecase/catalog"
	healthuc "github.com/shopsight/prodsim/internal/usecase/health"
	similaruc "github.com/shopsight/prodsim/internal/usecase/similar"
)

const defaultSearchLimit = 20

// Error codes returned in JSON error bodies.
const (
	codeUnauthorized    = "unauthorized"
	codeInvalidRequest  = "validation_failed"
	codeProductNotFound = "product_not_found"
	codeDataUnavailable = "data_unavailable"
	codeInternalError   = "internal_error"
)

// SearchDefaults carries the configured fallbacks for similar-search
// parameters not supplied in the query string. MaxCount caps request
// counts; zero means only the built-in limit applies.
type SearchDefaults struct {
	Count         int
	MaxCount      int
	MinScore      float64
	BestPriceOnly bool
	SortKeys      []search.SortKey
	SortDirs      []search.Direction
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the similarity engine and catalog over HTTP.
type Server struct {
	similar       *similaruc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	defaults      SearchDefaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	similar *similaruc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	defaults SearchDefaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		similar:  similar,
		catalog:  catalog,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, codeProductNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrDataUnavailable, http.StatusServiceUnavailable, codeDataUnavailable),
	}
	return s
}

// Routes attaches all handlers to the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/products", s.SearchProducts)
	r.Get("/products/{id}", s.GetProduct)
	r.Get("/products/{id}/similar", s.FindSimilar)
	r.Get("/clusters/{id}/products", s.ClusterProducts)
	r.Get("/stats", s.Stats)
}

// SearchProducts handles GET /products?query=...
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "query parameter is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	products, err := s.catalog.SearchByName(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]productResponse, len(products))
	for i := range products {
		items[i] = productToResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, productListResponse{Items: items, Total: len(items)})
}

// GetProduct handles GET /products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(&p))
}

// FindSimilar handles GET /products/{id}/similar.
func (s *Server) FindSimilar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := s.searchRequestFromQuery(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, warnings, err := s.similar.FindSimilarWithDetails(r.Context(), id, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]similarItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}
	writeJSON(w, http.StatusOK, similarListResponse{
		ProductID: id,
		Items:     items,
		Total:     len(items),
		Warnings:  warnings,
	})
}

// ClusterProducts handles GET /clusters/{id}/products.
func (s *Server) ClusterProducts(w http.ResponseWriter, r *http.Request) {
	clusterID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "cluster id must be an integer")
		return
	}

	entries, err := s.catalog.ClusterProducts(r.Context(), clusterID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]clusterEntry, len(entries))
	for i, e := range entries {
		items[i] = clusterEntry{
			Product: productToResponse(&e.Product),
			Source:  e.Source,
		}
	}
	writeJSON(w, http.StatusOK, clusterListResponse{
		ClusterID: clusterID,
		Items:     items,
		Total:     len(items),
	})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := statsResponse{
		Products: stats.Products,
		Rows:     stats.Rows,
		Clusters: stats.Clusters,
		Sources:  stats.Sources,
	}
	if !stats.LoadedAt.IsZero() {
		t := stats.LoadedAt.UTC()
		resp.SnapshotLoadedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequestFromQuery builds a validated search request from query
// parameters, falling back to configured defaults.
func (s *Server) searchRequestFromQuery(r *http.Request) (*search.Request, error) {
	q := r.URL.Query()

	count := s.defaults.Count
	if raw := q.Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errInvalidParam("count must be an integer")
		}
		count = parsed
	}
	if max := s.defaults.MaxCount; max > 0 && count > max {
		count = max
	}

	minScore := s.defaults.MinScore
	if raw := q.Get("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errInvalidParam("min_score must be a number")
		}
		minScore = parsed
	}

	bestPrice := s.defaults.BestPriceOnly
	if raw := q.Get("best_price"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errInvalidParam("best_price must be a boolean")
		}
		bestPrice = parsed
	}

	sortKeys := s.defaults.SortKeys
	sortDirs := s.defaults.SortDirs
	rawSort, rawOrder := q.Get("sort"), q.Get("order")
	if rawSort != "" || rawOrder != "" {
		sortKeys, sortDirs = nil, nil
		for _, k := range splitList(rawSort) {
			sortKeys = append(sortKeys, search.SortKey(k))
		}
		for _, d := range splitList(rawOrder) {
			sortDirs = append(sortDirs, search.Direction(d))
		}
	}

	req, err := search.New(count, minScore, bestPrice, sortKeys, sortDirs)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func errInvalidParam(msg string) error {
	return &paramError{msg: msg}
}

// paramError marks a malformed query parameter as an invalid request.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }
func (e *paramError) Unwrap() error { return domain.ErrInvalidRequest }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProductNotFound,
		domain.ErrInvalidRequest,
		domain.ErrDataUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger so the error line carries request_id.
	log := logpkg.FromContext(r.Context(), s.logger)

	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type productResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	SalePrice   *float64           `json:"sale_price,omitempty"`
	Categories  []categoryResponse `json:"categories,omitempty"`
	DataSource  string             `json:"data_source,omitempty"`
	URL         string             `json:"url,omitempty"`
	Image       string             `json:"image,omitempty"`
}

type productListResponse struct {
	Items []productResponse `json:"items"`
	Total int               `json:"total"`
}

type similarItem struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	DataSource  string   `json:"data_source,omitempty"`
	ClusterID   int      `json:"cluster_id"`
	Score       float64  `json:"score"`
	URL         string   `json:"url,omitempty"`
	Image       string   `json:"image,omitempty"`
}

type similarListResponse struct {
	ProductID string        `json:"product_id"`
	Items     []similarItem `json:"items"`
	Total     int           `json:"total"`
	Warnings  []string      `json:"warnings,omitempty"`
}

type clusterEntry struct {
	Product productResponse `json:"product"`
	Source  string          `json:"data_source"`
}

type clusterListResponse struct {
	ClusterID int            `json:"cluster_id"`
	Items     []clusterEntry `json:"items"`
	Total     int            `json:"total"`
}

type statsResponse struct {
	Products         int        `json:"products"`
	Rows             int        `json:"embedding_rows"`
	Clusters         int        `json:"clusters"`
	Sources          int        `json:"data_sources"`
	SnapshotLoadedAt *time.Time `json:"snapshot_loaded_at,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func productToResponse(p *domain.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		SalePrice:   p.SalePrice,
		DataSource:  p.Source,
		URL:         p.URL,
		Image:       p.Image,
	}
	for _, c := range p.Categories {
		resp.Categories = append(resp.Categories, categoryResponse{ID: c.ID, Label: c.Label})
	}
	return resp
}

func resultToItem(r *search.Result) similarItem {
	return similarItem{
		ProductID:   r.ProductID,
		Name:        r.Name,
		Description: r.Description,
		SalePrice:   r.SalePrice,
		DataSource:  r.Source,
		ClusterID:   r.ClusterID,
		Score:       r.Score,
		URL:         r.URL,
		Image:       r.Image,
	}
}
