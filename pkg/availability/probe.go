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

package availability

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/telemetry"
	"github.com/caas-team/availtrack/pkg/tracing"
)

// Check is the operation an availability test measures. A returned error
// marks the test as failed.
type Check func(ctx context.Context) error

// Probe is a single availability test
type Probe interface {
	// Name returns the name the records of the test are reported under
	Name() string
	// Execute runs the test once and reports exactly one record to the sink,
	// followed by a flush. The error of the check is returned unchanged.
	Execute(ctx context.Context) error
}

// Option configures a probe
type Option func(*probe)

// WithTracer sets the tracer correlation scopes are opened with
func WithTracer(tracer trace.Tracer) Option {
	return func(p *probe) {
		p.tracer = tracer
	}
}

// WithClock replaces the clock the record timestamp is taken from
func WithClock(now func() time.Time) Option {
	return func(p *probe) {
		p.now = now
	}
}

var _ Probe = (*probe)(nil)

type probe struct {
	name   string
	check  Check
	sink   telemetry.Sink
	tracer trace.Tracer
	now    func() time.Time
}

// NewProbe creates an availability test measuring check. It panics if name
// is empty or check or sink are nil.
func NewProbe(name string, check Check, sink telemetry.Sink, opts ...Option) Probe {
	if name == "" {
		panic("availability: probe name must not be empty")
	}
	if check == nil {
		panic("availability: probe check must not be nil")
	}
	if sink == nil {
		panic("availability: probe sink must not be nil")
	}

	p := &probe{
		name:  name,
		check: check,
		sink:  sink,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *probe) Name() string {
	return p.name
}

// Execute runs the check inside a new correlation scope and reports its record.
// Errors of the sink are only returned if the check succeeded, otherwise they
// are logged and the check error is returned.
func (p *probe) Execute(ctx context.Context) (err error) {
	log := logger.FromContext(ctx).With("test", p.name)

	record := telemetry.Record{
		Name:        p.name,
		Success:     false,
		RunLocation: telemetry.RunLocation(),
	}
	start := time.Now()

	defer func() {
		record.Duration = time.Since(start)
		rErr := p.report(ctx, record)
		switch {
		case rErr != nil && err != nil:
			log.ErrorContext(ctx, "Failed to report availability of failed test", "error", rErr, "checkError", err)
		case rErr != nil:
			log.ErrorContext(ctx, "Failed to report availability", "error", rErr)
			err = rErr
		}
	}()

	err = p.measure(ctx, &record)
	if err != nil {
		log.WarnContext(ctx, "Availability test failed", "error", err, "duration", time.Since(start).String())
		return err
	}
	log.DebugContext(ctx, "Availability test succeeded", "duration", time.Since(start).String())
	return nil
}

// measure runs the check inside a correlation scope and fills in the record
func (p *probe) measure(ctx context.Context, record *telemetry.Record) error {
	ctx, scope := tracing.StartScope(ctx, p.tracer)
	defer scope.End()

	record.Timestamp = p.now().UTC()
	ids := scope.IDs()
	record.CorrelationID = ids.Correlation
	record.ParentCorrelationID = ids.Parent
	record.OperationID = ids.Operation

	if err := p.run(ctx); err != nil {
		scope.Fail(err)
		record.Message = err.Error()
		record.Properties = map[string]string{
			telemetry.ExceptionProperty: diagnostic(err),
		}
		return err
	}

	record.Success = true
	return nil
}

// run calls the check and turns a panic into a *PanicError
func (p *probe) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return p.check(ctx)
}

// report submits the record and flushes the sink. Both are called even if
// the caller's context is already canceled.
func (p *probe) report(ctx context.Context, record telemetry.Record) error {
	ctx = context.WithoutCancel(ctx)
	sErr := p.sink.Submit(ctx, record)
	fErr := p.sink.Flush(ctx)
	if sErr != nil || fErr != nil {
		return &TelemetryError{Submit: sErr, Flush: fErr}
	}
	return nil
}
