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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter names the backend spans are exported to
type Exporter string

const (
	// HTTP exports spans via otlp over HTTP/1.1
	HTTP Exporter = "http"
	// GRPC exports spans via otlp over gRPC
	GRPC Exporter = "grpc"
	// STDOUT prints spans to the standard output
	STDOUT Exporter = "stdout"
	// NOOP keeps spans in-process, ids are still generated
	NOOP Exporter = "noop"
)

// dialTimeout bounds the creation of an otlp exporter
const dialTimeout = 3 * time.Second

func (e Exporter) String() string {
	return string(e)
}

// Validate returns an error if the exporter is unknown
func (e Exporter) Validate() error {
	if _, ok := exporters[e]; !ok {
		return fmt.Errorf("unsupported exporter type: %q", e.String())
	}
	return nil
}

// IsOTLP returns true if the exporter sends spans to a remote endpoint
func (e Exporter) IsOTLP() bool {
	return e == HTTP || e == GRPC
}

type exporterFactory func(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error)

var exporters = map[Exporter]exporterFactory{
	HTTP:   newHTTPExporter,
	GRPC:   newGRPCExporter,
	STDOUT: newStdoutExporter,
	NOOP:   newNoopExporter,
}

// Create creates the span exporter. A nil exporter without error means
// spans are not exported at all.
func (e Exporter) Create(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	factory, ok := exporters[e]
	if !ok {
		return nil, fmt.Errorf("unsupported exporter type: %q", e.String())
	}
	return factory(ctx, cfg)
}

func newHTTPExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := otlpSettings(cfg)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Url),
		otlptracehttp.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := otlpSettings(cfg)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Url),
		otlptracegrpc.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return otlptracegrpc.New(ctx, opts...)
}

func newStdoutExporter(context.Context, *Config) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func newNoopExporter(context.Context, *Config) (sdktrace.SpanExporter, error) {
	return nil, nil
}

// otlpSettings returns the headers and the tls configuration shared by the otlp exporters
func otlpSettings(cfg *Config) (map[string]string, *tls.Config, error) {
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", cfg.Token)
	}

	tlsCfg, err := loadTLSConfig(cfg.CertPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tls configuration: %w", err)
	}
	return headers, tlsCfg, nil
}

// loadTLSConfig trusts the PEM bundle at path. No path means an insecure connection.
func loadTLSConfig(path string) (*tls.Config, error) {
	if path == "" || path == "insecure" {
		return nil, nil
	}

	b, err := os.ReadFile(path) // #nosec G304 // path is operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(b) {
		return nil, fmt.Errorf("no certificate found in %s", path)
	}
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
