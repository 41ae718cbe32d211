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

package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/caas-team/availtrack/internal/logger"
)

// InstrumentationName is the name of the tracer opening the correlation scopes
const InstrumentationName = "github.com/caas-team/availtrack"

const (
	// batchTimeout is the maximum time the exporter waits for a batch to be ready
	batchTimeout = 5 * time.Second
	// maxQueueSize is the maximum number of spans queued before they are dropped
	maxQueueSize = 1000
	// maxBatchSize is the maximum number of spans exported in a single batch
	maxBatchSize = 100
)

// Provider owns the tracer provider the correlation scopes are opened with
type Provider struct {
	config  Config
	version string

	mu sync.RWMutex
	tp *sdktrace.TracerProvider
}

// New creates a provider. Until Initialize is called, Tracer falls back to
// an in-process tracer without exporter.
func New(config Config, version string) *Provider {
	return &Provider{config: config, version: version}
}

// Initialize creates the exporter and installs the tracer provider globally
func (p *Provider) Initialize(ctx context.Context) error {
	log := logger.FromContext(ctx).With("exporter", p.config.Exporter)

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("availtrack"),
			semconv.ServiceVersionKey.String(p.version),
		),
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create tracing resource", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter := p.config.Exporter
	if exporter == "" {
		exporter = NOOP
	}
	exp, err := exporter.Create(ctx, &p.config)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create span exporter", "error", err)
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp,
			sdktrace.WithBatchTimeout(batchTimeout),
			sdktrace.WithMaxQueueSize(maxQueueSize),
			sdktrace.WithMaxExportBatchSize(maxBatchSize),
		))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	p.mu.Lock()
	p.tp = tp
	p.mu.Unlock()
	log.DebugContext(ctx, "Tracing initialized")
	return nil
}

// Tracer returns the tracer correlation scopes are opened with
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.tp == nil {
		return fallbackTracer()
	}
	return p.tp.Tracer(InstrumentationName)
}

// Shutdown flushes pending spans and stops the tracer provider
func (p *Provider) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	p.mu.Lock()
	tp := p.tp
	p.tp = nil
	p.mu.Unlock()

	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			log.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
	}
	log.DebugContext(ctx, "Tracing shut down")
	return nil
}

// fallbackTracer records spans without exporting them. The global otel
// tracer is a no-op by default and would yield zero ids.
var fallbackTracer = sync.OnceValue(func() trace.Tracer {
	return sdktrace.NewTracerProvider().Tracer(InstrumentationName)
})
