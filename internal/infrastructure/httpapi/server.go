package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"snapsearch/internal/application/port/input"
	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/infrastructure/imagedata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const requestIDHeader = "X-Request-ID"

type Config struct {
	Host             string
	Port             int
	DefaultTargetURL string
	// Deadline is handed to every search as its overall bound.
	Deadline        time.Duration
	MaxConcurrent   int
	MaxBodyBytes    int64
	// ShutdownTimeout is the grace period for in-flight searches. When it
	// expires their contexts are canceled and DrainTimeout bounds the wait for
	// their cleanup.
	ShutdownTimeout time.Duration
	DrainTimeout    time.Duration
	JSONAccessLog   bool
}

type Server struct {
	cfg      Config
	searcher input.ImageSearcher
	metrics  http.Handler
	logger   output.LoggerPort
	sem      *semaphore.Weighted
}

func NewServer(cfg Config, searcher input.ImageSearcher, metrics http.Handler, logger output.LoggerPort) *Server {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 15 * time.Second
	}
	return &Server{
		cfg:      cfg,
		searcher: searcher,
		metrics:  metrics,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{requestIDHeader},
	}))
	r.Use(withRequestID)
	r.Use(httplog.RequestLogger(httplog.NewLogger("snapsearch", httplog.Options{
		JSON:    s.cfg.JSONAccessLog,
		Concise: true,
	})))

	r.Get("/health", s.handleHealth)
	r.Post("/api/upload-image", s.handleUploadImage)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Run serves until ctx is done, then drains in-flight requests. Searches
// still running after the grace period are canceled, and Run returns only
// once their handlers, and with them the session cleanup, have finished.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener, which it closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	addr := ln.Addr().String()
	reqCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return reqCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down", "grace", s.cfg.ShutdownTimeout)
	if err := s.shutdown(srv, s.cfg.ShutdownTimeout); err != nil {
		s.logger.Warn("Grace period expired, canceling in-flight searches", "error", err)
		cancelRequests()
		if err := s.shutdown(srv, s.cfg.DrainTimeout); err != nil {
			_ = srv.Close()
			return fmt.Errorf("http shutdown: %w", err)
		}
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

type ctxKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "service is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

type uploadImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
	URL         string `json:"url,omitempty"`
}

// Response is the JSON envelope of /api/upload-image.
type Response struct {
	Success bool                       `json:"success"`
	Data    *entity.ImageSearchResults `json:"data,omitempty"`
	Message string                     `json:"message,omitempty"`
	Error   string                     `json:"error,omitempty"`
	Stage   string                     `json:"stage,omitempty"`
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := requestID(r.Context())
	log := s.logger.WithField("request_id", id)

	var body uploadImageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		log.Warn("Rejected upload body", "error", err)
		badRequest(w, "request body must be a JSON object")
		return
	}
	if body.ImageBase64 == "" {
		badRequest(w, "imageBase64 is required")
		return
	}

	img, err := imagedata.Decode(body.ImageBase64)
	if err != nil {
		log.Warn("Rejected image", "error", err)
		badRequest(w, "invalid base64 image: "+err.Error())
		return
	}

	target := s.cfg.DefaultTargetURL
	if body.URL != "" {
		if !isHTTPURL(body.URL) {
			badRequest(w, "url must be an absolute http(s) URL")
			return
		}
		target = body.URL
	}

	req, err := entity.NewUploadRequest(entity.UploadParams{
		ID:        id,
		TargetURL: target,
		Image:     img.Data,
		MIMEType:  img.MIMEType,
		Deadline:  s.cfg.Deadline,
	})
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	log.Info("Image upload received", "bytes", len(img.Data), "mime", img.MIMEType, "url", target)

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "request abandoned while queued"})
		return
	}
	res := s.searcher.Search(r.Context(), req)
	s.sem.Release(1)

	status, resp := ResponseFor(res)
	if res.OK() {
		log.Info("Image search succeeded", "results", len(res.Payload.SearchResults))
	}
	writeJSON(w, status, resp)
}

// ResponseFor maps a workflow result to its HTTP status and envelope.
func ResponseFor(res entity.WorkflowResult) (int, Response) {
	if res.OK() {
		return http.StatusOK, Response{Success: true, Data: res.Payload, Message: "image processed"}
	}
	we := res.Err
	if we == nil {
		we = entity.NewError(entity.KindUnknown, "", nil)
	}
	resp := Response{Error: string(we.Kind), Stage: string(we.Stage)}
	if we.Err != nil {
		resp.Message = we.Err.Error()
	}
	return http.StatusInternalServerError, resp
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Response{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
