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
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/availtrack/pkg/config"
)

// stubHandlers answers every route with a fixed status and echoes the url params
type stubHandlers struct{}

func (stubHandlers) ListAvailability(w http.ResponseWriter, r *http.Request) {
	WriteStatus(r.Context(), w, http.StatusOK)
}

func (stubHandlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	WriteJSON(r.Context(), w, http.StatusOK, map[string]string{URLParamTestName: chi.URLParam(r, URLParamTestName)})
}

func (stubHandlers) TrackAvailability(w http.ResponseWriter, r *http.Request) {
	WriteStatus(r.Context(), w, http.StatusCreated)
}

func (stubHandlers) GetCertificate(w http.ResponseWriter, r *http.Request) {
	WriteJSON(r.Context(), w, http.StatusOK, map[string]string{URLParamHost: chi.URLParam(r, URLParamHost)})
}

type readiness bool

func (r readiness) Healthy(context.Context) bool { return bool(r) }

func newTestServer(addr string, ready bool) *Server {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("availtrack_availability_up 1"))
	})
	return New(configWithAddress(addr), stubHandlers{}, readiness(ready), metrics)
}

func TestServer_routes(t *testing.T) {
	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantBody: "ok"},
		{method: http.MethodGet, path: "/v1/availability", wantStatus: http.StatusOK, wantBody: "ok"},
		{method: http.MethodPost, path: "/v1/availability", wantStatus: http.StatusCreated},
		{method: http.MethodGet, path: "/v1/availability/orders-check", wantStatus: http.StatusOK, wantBody: `"testName": "orders-check"`},
		{method: http.MethodGet, path: "/v1/certificates/sample.azure-api.net", wantStatus: http.StatusOK, wantBody: `"host": "sample.azure-api.net"`},
		{method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK, wantBody: "ok"},
		{method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "availtrack_availability_up"},
		{method: http.MethodDelete, path: "/v1/availability", wantStatus: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/v1/certificates/sample.azure-api.net", wantStatus: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/v2/availability", wantStatus: http.StatusNotFound},
	}

	h := newTestServer(":0", true).Handler()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_healthz(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
	}{
		{name: "all monitors healthy", ready: true, wantStatus: http.StatusOK},
		{name: "monitor unhealthy", ready: false, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(":0", tt.ready).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestServer_openapi(t *testing.T) {
	tests := []struct {
		accept      string
		contentType string
		contains    string
	}{
		{accept: "application/json", contentType: "application/json", contains: `"openapi":"3.0.0"`},
		{accept: "", contentType: "text/yaml", contains: "openapi: 3.0.0"},
	}
	h := newTestServer(":0", true).Handler()
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/openapi", http.NoBody)
			req.Header.Set("Accept", tt.accept)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestServer_Run(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := newTestServer(addr, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz") //nolint:noctx
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("api did not shut down")
	}
}

func TestServer_Run_addressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	err = newTestServer(ln.Addr().String(), true).Run(context.Background())
	assert.ErrorContains(t, err, "failed serving API")
}

func TestWriteStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusOK, want: "ok"},
		{status: http.StatusBadGateway, want: http.StatusText(http.StatusBadGateway)},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteStatus(context.Background(), rec, tt.status)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(context.Background(), rec, http.StatusCreated, CertificateReport{Host: "sample.azure-api.net", Port: 443, Days: 42, Status: "valid", Healthy: true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"host":"sample.azure-api.net","port":443,"days":42,"status":"valid","healthy":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(context.Background(), rec, http.StatusOK, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOpenAPI(t *testing.T) {
	doc, err := OpenAPI(context.Background())
	require.NoError(t, err)

	for _, path := range []string{"/v1/availability", "/v1/availability/{testName}", "/v1/certificates/{host}", "/healthz"} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.NotNil(t, doc.Paths["/v1/availability"].Post.RequestBody)
	for _, schema := range []string{"Record", "TrackRequest", "CertificateReport"} {
		assert.Contains(t, doc.Components.Schemas, schema)
	}
	assert.Contains(t, doc.Components.Schemas["TrackRequest"].Value.Properties, "testName")
	assert.Contains(t, doc.Components.Schemas["CertificateReport"].Value.Properties, "healthy")
	require.NoError(t, doc.Validate(context.Background()))
}

func configWithAddress(addr string) config.ApiConfig {
	return config.ApiConfig{ListeningAddress: addr}
}
