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
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/api"
	"github.com/caas-team/availtrack/pkg/availability"
	"github.com/caas-team/availtrack/pkg/certificate"
	"github.com/caas-team/availtrack/pkg/config"
	"github.com/caas-team/availtrack/pkg/healthz"
	"github.com/caas-team/availtrack/pkg/metrics"
	"github.com/caas-team/availtrack/pkg/monitor"
	"github.com/caas-team/availtrack/pkg/telemetry"
	"github.com/caas-team/availtrack/pkg/tracing"
)

const (
	shutdownTimeout = 30 * time.Second
	// staleRuns is the number of missed intervals after which a result is outdated
	staleRuns = 3
)

// Tracker runs the availability monitors and serves their results
type Tracker struct {
	cfg *config.Config

	api       *api.Server
	metrics   metrics.Metrics
	tracing   *tracing.Provider
	clients   *httpclient.Registry
	memory    *telemetry.InMemory
	health    healthz.Checker
	validator *certificate.Validator
	inspector *certificate.Inspector

	// set up by setup
	sink      telemetry.Sink
	collector *telemetry.Collector
	factory   availability.Factory
	monitors  []*monitor.Monitor
}

// New creates a new tracker
func New(cfg *config.Config, version string) *Tracker {
	memory := telemetry.NewInMemory()
	t := &Tracker{
		cfg:       cfg,
		metrics:   metrics.NewMetrics(),
		tracing:   tracing.New(cfg.Tracing, version),
		clients:   httpclient.NewRegistry(),
		memory:    memory,
		health:    healthz.New(memory, staleRuns),
		inspector: certificate.NewInspector(cfg.ApiManagement.Timeout, nil),
	}
	t.api = api.New(cfg.Api, t, t, t.metrics.Handler())
	return t
}

// Run starts the monitors and the api. It blocks until the context is
// canceled or one of them fails, then shuts everything down.
func (t *Tracker) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	if err := t.tracing.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.setup(ctx); err != nil {
		return errors.Join(err, t.tracing.Shutdown(context.WithoutCancel(ctx)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.api.Run(gctx)
	})
	g.Go(func() error {
		return monitor.RunAll(gctx, t.monitors...)
	})
	g.Go(func() error {
		t.flushPeriodically(gctx)
		return nil
	})
	log.InfoContext(ctx, "Availability tracker started", "monitors", len(t.monitors))

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.InfoContext(ctx, "Availability tracker stopped", "reason", ctx.Err())
		err = nil
	} else if err != nil {
		log.ErrorContext(ctx, "Availability tracker failed", "error", err)
	}
	return errors.Join(err, t.shutdown(context.WithoutCancel(ctx)))
}

// setup creates the clients, sinks and monitors
func (t *Tracker) setup(ctx context.Context) error {
	log := logger.FromContext(ctx)

	file, err := t.cfg.Monitors.LoadMonitors(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monitors: %w", err)
	}

	t.validator = certificate.NewValidator(log)
	if err = monitor.RegisterClients(t.clients, t.cfg.ApiManagement, t.validator, file.Clients); err != nil {
		log.ErrorContext(ctx, "Failed to register clients", "error", err)
		return fmt.Errorf("failed to register clients: %w", err)
	}
	log.DebugContext(ctx, "Registered clients", "clients", t.clients.Names())

	prom := telemetry.NewPrometheus()
	if err = t.metrics.Register(ctx, prom.GetMetricCollectors()...); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	sinks := telemetry.NewMulti(t.memory, prom)
	if collector := t.cfg.Collector.Telemetry(); collector.Enabled() {
		log.InfoContext(ctx, "Delivering availability records to collector", "url", collector.Url)
		t.collector = telemetry.NewCollector(collector)
		sinks = append(sinks, t.collector)
	}
	t.sink = sinks
	t.factory = availability.NewFactory(t.sink, t.clients, log, availability.WithTracer(t.tracing.Tracer()))

	interval := t.cfg.Schedule.Interval
	expiration, err := monitor.CertificateExpiration(t.factory, t.inspector, t.cfg.ApiManagement.GatewayUrl, t.validator.GracePeriodDays())
	if err != nil {
		return fmt.Errorf("failed to create certificate expiration monitor: %w", err)
	}
	t.monitors = append([]*monitor.Monitor{
		monitor.New(monitor.BackendStatus(t.factory), interval),
		monitor.New(monitor.CertificateCheck(t.factory, t.clients, t.cfg.ApiManagement.StatusEndpoint), interval),
		monitor.New(expiration, interval),
	}, monitor.FromFile(t.factory, file, interval)...)

	return nil
}

// flushPeriodically delivers buffered records every schedule interval
func (t *Tracker) flushPeriodically(ctx context.Context) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(t.cfg.Schedule.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.sink.Flush(ctx); err != nil {
				log.WarnContext(ctx, "Failed to flush availability records", "error", err)
			}
		}
	}
}

// shutdown stops the monitors, delivers the remaining records and flushes
// pending spans. The api stops on its own once the run context is done.
func (t *Tracker) shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	for _, m := range t.monitors {
		m.Shutdown()
	}

	var errs error
	if err := t.sink.Flush(ctx); err != nil {
		args := []any{"error", err}
		if t.collector != nil {
			args = append(args, "undelivered", t.collector.Len())
		}
		log.ErrorContext(ctx, "Failed to flush availability records", args...)
		errs = errors.Join(errs, err)
	}
	if err := t.tracing.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("failed to shutdown gracefully: %w", errs)
	}
	log.InfoContext(ctx, "Availability tracker shut down")
	return nil
}
