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

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/api"
	"github.com/caas-team/availtrack/pkg/availability"
	"github.com/caas-team/availtrack/pkg/certificate"
)

const defaultTLSPort = 443

var (
	_ api.Handlers  = (*Tracker)(nil)
	_ api.Readiness = (*Tracker)(nil)
)

// ListAvailability writes the latest record of every test
func (t *Tracker) ListAvailability(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(r.Context(), w, http.StatusOK, t.memory.List())
}

func (t *Tracker) GetAvailability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, api.URLParamTestName)
	if name == "" {
		api.WriteStatus(r.Context(), w, http.StatusBadRequest)
		return
	}
	record, ok := t.memory.Get(name)
	if !ok {
		api.WriteStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	api.WriteJSON(r.Context(), w, http.StatusOK, record)
}

// TrackAvailability tracks a result measured by an external test runner
func (t *Tracker) TrackAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req api.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WarnContext(ctx, "Invalid availability result", "error", err)
		api.WriteStatus(ctx, w, http.StatusBadRequest)
		return
	}
	if req.StartTime.IsZero() {
		req.StartTime = time.Now()
	}

	record, err := availability.Track(ctx, t.sink, t.tracing.Tracer(), availability.Result{
		Name:    req.TestName,
		Success: req.Success,
		Start:   req.StartTime,
		Message: req.Message,
	})
	switch {
	case errors.Is(err, availability.ErrEmptyTestName):
		api.WriteStatus(ctx, w, http.StatusBadRequest)
	case err != nil:
		log.ErrorContext(ctx, "Failed to deliver availability result", "error", err)
		api.WriteStatus(ctx, w, http.StatusBadGateway)
	default:
		api.WriteJSON(ctx, w, http.StatusCreated, record)
	}
}

// Healthy reports whether the latest run of every monitor succeeded and is
// not older than staleRuns of the monitor's own interval
func (t *Tracker) Healthy(ctx context.Context) bool {
	intervals := make(map[string]time.Duration, len(t.monitors))
	for _, m := range t.monitors {
		intervals[m.Name()] = m.Interval()
	}
	return t.health.CheckOverallHealth(ctx, intervals)
}

// GetCertificate reports the remaining lifetime of the server certificate of a host
func (t *Tracker) GetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	host := chi.URLParam(r, api.URLParamHost)
	port := defaultTLSPort
	if p := r.URL.Query().Get(api.QueryParamPort); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			api.WriteStatus(ctx, w, http.StatusBadRequest)
			return
		}
	}

	days, err := t.inspector.ExpirationInDays(ctx, host, port)
	if err != nil {
		log.WarnContext(ctx, "Failed to determine certificate expiration", "host", host, "error", err)
		api.WriteStatus(ctx, w, http.StatusBadGateway)
		return
	}

	status := certificate.Classify(days, t.validator.GracePeriodDays(), t.cfg.Certificate.CriticalDays)
	if !status.Healthy() {
		log.WarnContext(ctx, "Certificate expires soon", "host", host, "days", days, "status", status)
	}
	api.WriteJSON(ctx, w, http.StatusOK, api.CertificateReport{
		Host:    host,
		Port:    port,
		Days:    days,
		Status:  string(status),
		Healthy: status.Healthy(),
	})
}
