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
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/telemetry"
	"github.com/caas-team/availtrack/pkg/tracing"
)

// ErrEmptyTestName is returned when a result is tracked without test name
var ErrEmptyTestName = errors.New("test name must not be empty")

// Result is the outcome of an availability test executed outside of a Probe
type Result struct {
	// Name of the availability test
	Name string
	// Success is true if the test passed
	Success bool
	// Start is the time the test started
	Start time.Time
	// Message describes the failure
	Message string
}

// Track reports an externally measured result. The duration is the time
// elapsed since the start of the test.
func Track(ctx context.Context, sink telemetry.Sink, tracer trace.Tracer, result Result) (telemetry.Record, error) {
	if strings.TrimSpace(result.Name) == "" {
		return telemetry.Record{}, ErrEmptyTestName
	}
	log := logger.FromContext(ctx).With("test", result.Name)
	log.InfoContext(ctx, "Tracking availability", "success", result.Success, "startTime", result.Start)

	record := telemetry.Record{
		Name:        result.Name,
		Success:     result.Success,
		Message:     result.Message,
		RunLocation: telemetry.RunLocation(),
		Timestamp:   result.Start.UTC(),
		Duration:    time.Since(result.Start),
	}

	ctx, scope := tracing.StartScope(ctx, tracer)
	defer scope.End()
	ids := scope.IDs()
	record.CorrelationID = ids.Correlation
	record.ParentCorrelationID = ids.Parent
	record.OperationID = ids.Operation

	ctx = context.WithoutCancel(ctx)
	if err := sink.Submit(ctx, record); err != nil {
		return record, errors.Wrap(err, "failed to submit availability record")
	}
	if err := sink.Flush(ctx); err != nil {
		return record, errors.Wrap(err, "failed to flush availability record")
	}
	return record, nil
}
