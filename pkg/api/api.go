// availtrack
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Handlers serves the availability and certificate routes
type Handlers interface {
	// ListAvailability writes the latest record of every test
	ListAvailability(w http.ResponseWriter, r *http.Request)
	// GetAvailability writes the latest record of the test named by URLParamTestName
	GetAvailability(w http.ResponseWriter, r *http.Request)
	// TrackAvailability records a TrackRequest
	TrackAvailability(w http.ResponseWriter, r *http.Request)
	// GetCertificate writes the CertificateReport of the host named by URLParamHost
	GetCertificate(w http.ResponseWriter, r *http.Request)
}

// Readiness reports whether every monitor passed its latest run
type Readiness interface {
	Healthy(ctx context.Context) bool
}

// Server is the tracker api
type Server struct {
	addr   string
	router chi.Router
}

// New creates the api and registers all routes
func New(cfg config.ApiConfig, h Handlers, ready Readiness, metrics http.Handler) *Server {
	s := &Server{addr: cfg.ListeningAddress, router: chi.NewRouter()}

	s.router.Get("/", okHandler)
	s.router.Get("/openapi", getOpenapi)
	s.router.Get("/healthz", healthzHandler(ready))
	s.router.Handle("/metrics", metrics)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/availability", h.ListAvailability)
		r.Post("/availability", h.TrackAvailability)
		r.Get(fmt.Sprintf("/availability/{%s}", URLParamTestName), h.GetAvailability)
		r.Get(fmt.Sprintf("/certificates/{%s}", URLParamHost), h.GetCertificate)
	})
	return s
}

// Handler returns the router of the api
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the api until the context is done, then shuts the server down
// gracefully. Only a failure to listen or serve is returned.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		log.ErrorContext(ctx, "Failed to listen", "addr", s.addr, "error", err)
		return fmt.Errorf("failed serving API: %w", err)
	}
	server := &http.Server{
		Handler:           logger.Middleware(ctx)(s.router),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	cErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "Serving Api", "addr", ln.Addr().String())
		cErr <- server.Serve(ln)
	}()

	select {
	case err = <-cErr:
		log.ErrorContext(ctx, "Failed serving API", "error", err)
		return fmt.Errorf("failed serving API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Failed to shutdown api server", "error", err)
		return fmt.Errorf("failed shutting down API: %w", err)
	}
	if err = <-cErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed serving API: %w", err)
	}
	log.InfoContext(ctx, "Api server closed")
	return nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	WriteStatus(r.Context(), w, http.StatusOK)
}

// healthzHandler answers 503 until every monitor passed its latest run
func healthzHandler(ready Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready.Healthy(r.Context()) {
			WriteStatus(r.Context(), w, http.StatusServiceUnavailable)
			return
		}
		WriteStatus(r.Context(), w, http.StatusOK)
	}
}

type encoder interface {
	Encode(v any) error
}

// getOpenapi writes the openapi document as json or yaml depending on the Accept header
func getOpenapi(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	oapi, err := OpenAPI(r.Context())
	if err != nil {
		log.Error("Failed to create openapi", "error", err)
		WriteStatus(r.Context(), w, http.StatusInternalServerError)
		return
	}

	var marshaler encoder
	switch r.Header.Get("Accept") {
	case "application/json":
		w.Header().Add("Content-Type", "application/json")
		marshaler = json.NewEncoder(w)
	default:
		w.Header().Add("Content-Type", "text/yaml")
		marshaler = yaml.NewEncoder(w)
	}

	if err = marshaler.Encode(oapi); err != nil {
		log.Error("Failed to marshal openapi", "error", err)
		WriteStatus(r.Context(), w, http.StatusInternalServerError)
	}
}

// WriteStatus writes the status code with its text as body. 200 is answered with "ok".
func WriteStatus(ctx context.Context, w http.ResponseWriter, status int) {
	body := http.StatusText(status)
	if status == http.StatusOK {
		body = "ok"
	}
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.FromContext(ctx).Error("Failed to write response", "error", err)
	}
}

// WriteJSON writes v as indented json
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.FromContext(ctx).Error("Failed to encode response", "error", err)
		WriteStatus(ctx, w, http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		logger.FromContext(ctx).Error("Failed to write response", "error", err)
	}
}
