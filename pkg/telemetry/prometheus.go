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

package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Sink = (*Prometheus)(nil)

// Prometheus exposes availability records as prometheus metrics
type Prometheus struct {
	up       *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewPrometheus initializes the metric collectors of the sink
func NewPrometheus() *Prometheus {
	return &Prometheus{
		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "availtrack_availability_up",
				Help: "Result of the last availability test run, 1 if available",
			},
			[]string{"test", "location"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "availtrack_availability_duration_seconds",
				Help:    "Duration of availability test runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"test"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "availtrack_availability_runs_total",
				Help: "Number of availability test runs by result",
			},
			[]string{"test", "result"},
		),
	}
}

// Submit updates the metrics of the record's test
func (p *Prometheus) Submit(_ context.Context, record Record) error {
	state, result := 0.0, "failure"
	if record.Success {
		state, result = 1.0, "success"
	}

	p.up.WithLabelValues(record.Name, record.RunLocation).Set(state)
	p.duration.WithLabelValues(record.Name).Observe(record.Duration.Seconds())
	p.runs.WithLabelValues(record.Name, result).Inc()
	return nil
}

// Flush is a no-op, the metrics are collected on scrape
func (p *Prometheus) Flush(context.Context) error {
	return nil
}

// GetMetricCollectors returns all metric collectors of the sink
func (p *Prometheus) GetMetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{p.up, p.duration, p.runs}
}
