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

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the name of the span every availability execution is correlated with
const ScopeName = "AvailabilityContext"

// IDs identify a correlation scope and its place in the trace
type IDs struct {
	// Correlation is the span id of the scope
	Correlation string
	// Parent is the span id of the enclosing span, all zeros if there is none
	Parent string
	// Operation is the trace id shared by the scope and its parent
	Operation string
}

// Scope is an open correlation span
type Scope struct {
	span   trace.Span
	parent trace.SpanID
}

// StartScope opens a new correlation scope as child of the span carried by ctx.
// A nil tracer uses an in-process tracer without exporter.
func StartScope(ctx context.Context, tracer trace.Tracer) (context.Context, *Scope) {
	if tracer == nil {
		tracer = fallbackTracer()
	}
	parent := trace.SpanContextFromContext(ctx).SpanID()
	ctx, span := tracer.Start(ctx, ScopeName, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &Scope{span: span, parent: parent}
}

// IDs returns the identifiers of the scope
func (s *Scope) IDs() IDs {
	sc := s.span.SpanContext()
	return IDs{
		Correlation: sc.SpanID().String(),
		Parent:      s.parent.String(),
		Operation:   sc.TraceID().String(),
	}
}

// Fail marks the scope as failed
func (s *Scope) Fail(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End closes the scope
func (s *Scope) End() {
	s.span.End()
}
