// Package sandbox serves an in-memory imitation of the BankConnect API for
// tests, demos, and the CLI. Entities are minted with deterministic fixtures
// seeded from their link id.
package sandbox

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-bankconnect/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 500
)

// Fault forces a response for every request whose path ends with Path.
type Fault struct {
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body,omitempty"`
	Remaining  int    `json:"remaining,omitempty"`
}

type Server struct {
	store        *Store
	logger       glog.Logger
	apiKey       string
	apiKeyHeader string
	pageSize     int
	cursorMode   bool
	cursorLinks  bool

	mu       sync.Mutex
	faults   []Fault
	requests map[string]int
}

type Option func(*Server)

// WithAPIKey sets the only key the sandbox accepts. An empty key accepts any
// non-empty credential.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

func WithAPIKeyHeader(header string) Option {
	return func(s *Server) {
		if strings.TrimSpace(header) != "" {
			s.apiKeyHeader = strings.TrimSpace(header)
		}
	}
}

func WithLogger(logger glog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithPageSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithCursorPagination switches list responses from page numbers to opaque
// next_cursor tokens.
func WithCursorPagination() Option {
	return func(s *Server) {
		s.cursorMode = true
	}
}

// WithCursorLinks keeps the count/next/previous/results envelope but puts an
// opaque cursor in next. The page parameter is ignored.
func WithCursorLinks() Option {
	return func(s *Server) {
		s.cursorLinks = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.store.now = now
		}
	}
}

func WithTransactionsPerEntity(count int) Option {
	return func(s *Server) {
		if count >= 0 {
			s.store.transactionsPerEntity = count
		}
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		store:        NewStore(),
		logger:       glog.Nop(),
		apiKeyHeader: core.DefaultAPIKeyHeader,
		pageSize:     defaultPageSize,
		requests:     map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = glog.Ensure(s.logger)
	return s
}

func (s *Server) Store() *Store { return s.store }

// Handler returns a router with the API and admin routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func (s *Server) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.countRequests)
		r.Use(s.faultInjection)
		r.Use(s.requireAPIKey)

		r.Post("/entity/", s.CreateEntity)
		r.Get("/entity/{entityID}/identity/", s.GetIdentity)
		r.Get("/entity/{entityID}/{resource}/", s.ListResource)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", s.AdminReset)
		r.Get("/requests", s.AdminRequests)
		r.Get("/entities", s.AdminEntities)
		r.Put("/entities/{entityID}/{resource}", s.AdminSetResource)
		r.Post("/faults", s.AdminAddFault)
		r.Delete("/faults", s.AdminClearFaults)
	})
}

// RequestCount reports how many API requests reached a path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// TotalRequests reports how many API requests were served.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, count := range s.requests {
		total += count
	}
	return total
}

func (s *Server) AddFault(fault Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault)
}

func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

func (s *Server) Reset() {
	s.store.Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
	s.requests = map[string]int{}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		s.logger.Debug("sandbox request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fault, ok := s.takeFault(r.URL.Path); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.StatusCode)
			body := fault.Body
			if body == "" {
				body = `{"detail":"injected fault"}`
			}
			_, _ = w.Write([]byte(body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFault(path string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, fault := range s.faults {
		if fault.StatusCode <= 0 || !strings.HasSuffix(path, fault.Path) {
			continue
		}
		if fault.Remaining > 0 {
			s.faults[i].Remaining--
			if s.faults[i].Remaining == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return fault, true
	}
	return Fault{}, false
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(s.apiKeyHeader)
		if presented == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		if s.apiKey != "" && presented != s.apiKey {
			writeDetail(w, http.StatusForbidden, "Invalid API key.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
