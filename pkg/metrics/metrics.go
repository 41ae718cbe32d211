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

package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caas-team/availtrack/internal/logger"
)

type Metrics interface {
	// GetRegistry returns the prometheus registry instance
	// containing the registered prometheus collectors
	GetRegistry() *prometheus.Registry
	// Register adds the collectors to the registry
	Register(ctx context.Context, cs ...prometheus.Collector) error
	// Handler serves the metrics of the registry
	Handler() http.Handler
}

type PrometheusMetrics struct {
	registry *prometheus.Registry
}

// NewMetrics creates a registry with the go runtime and process collectors
func NewMetrics() Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &PrometheusMetrics{registry: registry}
}

func (m *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Register adds all collectors, a collector that is already registered is skipped
func (m *PrometheusMetrics) Register(ctx context.Context, cs ...prometheus.Collector) error {
	log := logger.FromContext(ctx)
	var err error
	for _, c := range cs {
		if rErr := m.registry.Register(c); rErr != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(rErr, &already) {
				continue
			}
			log.ErrorContext(ctx, "Could not add metrics collector to registry", "error", rErr)
			err = errors.Join(err, rErr)
		}
	}
	return err
}

func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
