package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/moniflow/moniflow/pkg/httputil"
	"github.com/moniflow/moniflow/pkg/observability"
)

// DefaultRoutes is the static routing table. No service discovery: the
// deployment fixes the ports.
func DefaultRoutes() map[string]string {
	return map[string]string{
		"user_management":   "http://user_management:8004",
		"collector":         "http://collector:8001",
		"alert_service":     "http://alert_service:8003",
		"dashboard_service": "http://dashboard_service:8002",
	}
}

// DefaultPublicPrefixes lists the path prefixes that bypass bearer-token
// verification.
func DefaultPublicPrefixes() []string {
	return []string{
		"user_management/token",
		"user_management/refresh",
		"health",
	}
}

// Proxy is the authenticating reverse proxy. One outbound client is
// shared by every request and closed on shutdown.
type Proxy struct {
	routes   map[string]string
	public   []string
	verifier *Verifier
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewProxy creates a new gateway proxy
func NewProxy(routes map[string]string, public []string, verifier *Verifier, timeout time.Duration, logger *slog.Logger) *Proxy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Proxy{
		routes:   routes,
		public:   public,
		verifier: verifier,
		client:   &http.Client{},
		timeout:  timeout,
		logger:   logger,
		metrics:  observability.GetMetrics(),
	}
}

// Close releases the shared outbound connection pool.
func (p *Proxy) Close() {
	p.client.CloseIdleConnections()
}

// Routes builds the gateway router.
func (p *Proxy) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", p.Health)
	r.Handle("/metrics", observability.Handler())
	r.HandleFunc("/{service}/*", p.Forward)
	r.HandleFunc("/{service}", p.Forward)

	return r
}

// Health reports the gateway itself as healthy.
func (p *Proxy) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Gateway is healthy"})
}

// Forward authenticates (unless the path is public) and proxies the
// request to the addressed service.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	path := strings.TrimSuffix(chi.URLParam(r, "*"), "/")

	fullPath := service + "/" + path
	var subject string

	if !p.isPublic(fullPath) {
		token, err := BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			p.logger.Warn("rejecting unauthenticated request", "path", fullPath, "reason", err)
			httputil.Detail(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := p.verifier.Verify(token)
		if err != nil {
			p.logger.Warn("rejecting invalid token", "path", fullPath, "reason", err)
			httputil.Detail(w, http.StatusUnauthorized, err.Error())
			return
		}

		subject = Subject(claims)
		p.logger.Debug("token verified", "path", fullPath, "claims", claimsSummary(claims))
	}

	p.forward(w, r, service, path, subject)
}

func (p *Proxy) isPublic(fullPath string) bool {
	for _, prefix := range p.public {
		if strings.HasPrefix(fullPath, prefix) {
			return true
		}
	}
	return false
}

func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, service, path, subject string) {
	base, ok := p.routes[service]
	if !ok {
		p.metrics.ProxyErrorsTotal.WithLabelValues(service, "unknown_service").Inc()
		httputil.Error(w, http.StatusNotFound, "Service "+service+" not found")
		return
	}

	body, contentType := p.requestBody(r)

	target := base + "/" + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(body))
	if err != nil {
		p.metrics.ProxyErrorsTotal.WithLabelValues(service, "bad_request").Inc()
		httputil.Error(w, http.StatusBadGateway, "Upstream service unreachable")
		return
	}

	copyRequestHeaders(req.Header, r.Header)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if subject != "" {
		req.Header.Set("user", subject)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.metrics.ProxyErrorsTotal.WithLabelValues(service, "timeout").Inc()
			p.logger.Error("upstream timeout", "service", service, "path", path)
			httputil.Error(w, http.StatusGatewayTimeout, "Request timed out")
			return
		}
		p.metrics.ProxyErrorsTotal.WithLabelValues(service, "unreachable").Inc()
		p.logger.Error("upstream unreachable", "service", service, "path", path, "error", err)
		httputil.Error(w, http.StatusBadGateway, "Upstream service unreachable")
		return
	}
	defer resp.Body.Close()

	p.metrics.ProxyRequestsTotal.WithLabelValues(service, strconv.Itoa(resp.StatusCode)).Inc()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Error("streaming upstream response failed", "service", service, "error", err)
	}
}

// requestBody reads the inbound body, preserving its type: JSON is
// decoded and re-encoded, form bodies are re-encoded as form values,
// anything else passes through as raw bytes. Undecodable typed bodies
// forward as empty, matching the permissive inbound contract.
func (p *Proxy) requestBody(r *http.Request) ([]byte, string) {
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		return nil, ""
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, contentType
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, contentType
		}
		return encoded, contentType

	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, contentType
		}
		return []byte(values.Encode()), contentType

	default:
		return raw, contentType
	}
}

// copyRequestHeaders forwards everything except the hop-specific host
// and content-length headers, which the outbound client recomputes.
func copyRequestHeaders(dst, src http.Header) {
	for key, values := range src {
		switch http.CanonicalHeaderKey(key) {
		case "Host", "Content-Length":
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func copyResponseHeaders(dst, src http.Header) {
	for key, values := range src {
		if http.CanonicalHeaderKey(key) == "Content-Length" {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
