package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcy998/SP-idear/generator"
	"github.com/jcy998/SP-idear/report"
	"github.com/jcy998/SP-idear/taxonomy"
)

// statusClientClosedRequest 客户端在生成完成前断开连接（nginx 约定的 499）。
const statusClientClosedRequest = 499

// generationTimeout 30 个方案的生成通常需要一到两分钟。
const generationTimeout = 3 * time.Minute

type Server struct {
	tax      *taxonomy.Taxonomy
	endpoint generator.Endpoint
	factory  generator.ClientFactory
	agentOps []generator.AgentOption
	store    *reportStore
	logger   *zap.Logger
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Taxonomy *taxonomy.Taxonomy
	// Endpoint is used when a request carries no api key of its own.
	Endpoint     generator.Endpoint
	Factory      generator.ClientFactory
	AgentOptions []generator.AgentOption
	Logger       *zap.Logger
}

type storedReport struct {
	doc report.Document
}

type reportStore struct {
	mu      sync.Mutex
	reports map[string]storedReport
}

func newStore() *reportStore {
	return &reportStore{reports: make(map[string]storedReport)}
}

func (s *reportStore) set(id string, r storedReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[id] = r
}

func (s *reportStore) get(id string) (storedReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	return r, ok
}

func New(opts Options) *Server {
	s := &Server{
		tax:      opts.Taxonomy,
		endpoint: opts.Endpoint,
		factory:  opts.Factory,
		agentOps: opts.AgentOptions,
		store:    newStore(),
		logger:   opts.Logger,
	}
	if s.tax == nil {
		s.tax = taxonomy.Default()
	}
	if s.factory == nil {
		s.factory = generator.NewClient
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/reports", s.handleReportCreate)
	mux.HandleFunc("/api/reports/", s.handleReportByID)
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

type endpointReq struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type reportCreateReq struct {
	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory"`
	Problem     string       `json:"problem"`
	Endpoint    *endpointReq `json:"endpoint,omitempty"`
}

type reportResp struct {
	ReportID    string                       `json:"report_id"`
	Category    string                       `json:"category"`
	Subcategory string                       `json:"subcategory"`
	Problem     string                       `json:"problem"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Report      generator.GenerationResponse `json:"report"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.tax.Categories)
}

func (s *Server) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reportCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}

	// 领域可以传 id 也可以传中文名；不在词表里的按原样使用。
	category, subcategory := req.Category, req.Subcategory
	if c, sub, err := s.tax.Resolve(req.Category, req.Subcategory); err == nil {
		category, subcategory = c.Label, sub.Label
	}

	ep := s.endpoint
	if req.Endpoint != nil && strings.TrimSpace(req.Endpoint.APIKey) != "" {
		ep.APIKey = req.Endpoint.APIKey
		// 没填的地址和模型沿用服务端配置，避免把调用方的 key 发到默认地址。
		if strings.TrimSpace(req.Endpoint.BaseURL) != "" {
			ep.BaseURL = req.Endpoint.BaseURL
		}
		if strings.TrimSpace(req.Endpoint.Model) != "" {
			ep.Model = req.Endpoint.Model
		}
	}

	genReq := generator.Request{Category: category, Subcategory: subcategory, Problem: req.Problem}
	if strings.TrimSpace(genReq.Problem) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: generator.ErrEmptyProblem.Error()})
		return
	}

	llm, err := s.factory(ep)
	if err != nil {
		writeError(w, err)
		return
	}
	agent, err := generator.NewAgent(llm, append([]generator.AgentOption{generator.WithLogger(s.logger)}, s.agentOps...)...)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()
	result, err := agent.Generate(ctx, genReq)
	if err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	doc := report.Document{
		Category:    category,
		Subcategory: subcategory,
		Problem:     strings.TrimSpace(req.Problem),
		GeneratedAt: time.Now(),
		Report:      result,
	}
	s.store.set(id, storedReport{doc: doc})
	writeJSON(w, http.StatusOK, toResp(id, doc))
}

func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	stored, ok := s.store.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "report not found"})
		return
	}

	switch action {
	case "":
		writeJSON(w, http.StatusOK, toResp(id, stored.doc))
	case "export":
		s.export(w, r, stored.doc)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, doc report.Document) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		page, err := report.HTML(doc)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown(doc)))
	default:
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unsupported format " + format})
	}
}

// --- Helpers ---

func toResp(id string, doc report.Document) reportResp {
	return reportResp{
		ReportID:    id,
		Category:    doc.Category,
		Subcategory: doc.Subcategory,
		Problem:     doc.Problem,
		GeneratedAt: doc.GeneratedAt,
		Report:      doc.Report,
	}
}

// statusFor maps pipeline errors to HTTP statuses. Endpoint, empty-reply and
// malformed-report failures are all upstream problems (502).
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrEmptyProblem), errors.Is(err, generator.ErrConfigMissing):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
