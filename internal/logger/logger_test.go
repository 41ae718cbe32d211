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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		handlers    []slog.Handler
		logLevelEnv string
		wantLevel   slog.Level
	}{
		{
			name:        "No handler with default log level",
			logLevelEnv: "",
			wantLevel:   slog.LevelInfo,
		},
		{
			name:        "No handler with DEBUG log level",
			logLevelEnv: "DEBUG",
			wantLevel:   slog.LevelDebug,
		},
		{
			name:      "Custom handler provided",
			handlers:  []slog.Handler{slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})},
			wantLevel: slog.LevelWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevelEnv)

			log := NewLogger(tt.handlers...)
			if log == nil {
				t.Fatal("NewLogger() returned nil")
			}
			if !log.Enabled(context.Background(), tt.wantLevel) {
				t.Errorf("Expected log level %v to be enabled", tt.wantLevel)
			}
			if log.Enabled(context.Background(), tt.wantLevel-1) {
				t.Errorf("Expected log level below %v to be disabled", tt.wantLevel)
			}
		})
	}
}

func TestNewContextWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := IntoContext(context.Background(), NewLogger(slog.NewTextHandler(buf, nil)))

	ctx, cancel := NewContextWithLogger(parent, "component", "probe")
	defer cancel()

	if ctx == parent {
		t.Fatal("NewContextWithLogger returned the same context as the parent")
	}

	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "component=probe") {
		t.Errorf("Child logger does not carry attributes, got %q", buf.String())
	}

	cancel()
	if ctx.Err() == nil {
		t.Error("Expected the child context to be canceled")
	}
}

func TestFromContext(t *testing.T) {
	log := NewLogger(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name     string
		ctx      context.Context
		wantSame bool
	}{
		{name: "Context with logger", ctx: IntoContext(context.Background(), log), wantSame: true},
		{name: "Context without logger", ctx: context.Background(), wantSame: false},
		{name: "Nil context", ctx: nil, wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromContext(tt.ctx)
			if got == nil {
				t.Fatal("FromContext() returned nil")
			}
			if (got == log) != tt.wantSame {
				t.Errorf("FromContext() same logger = %v, want %v", got == log, tt.wantSame)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := IntoContext(context.Background(), NewLogger(slog.NewTextHandler(buf, nil)))

	handler := Middleware(ctx)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(logger{}).(*slog.Logger); !ok {
			t.Error("Middleware() did not inject logger")
		}
		FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/availability", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "path=/v1/availability") {
		t.Errorf("Request logger does not carry the path, got %q", buf.String())
	}
}

func TestGetLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect slog.Level
	}{
		{"Empty string", "", slog.LevelInfo},
		{"Debug level", "DEBUG", slog.LevelDebug},
		{"Lowercase debug level", "debug", slog.LevelDebug},
		{"Info level", "INFO", slog.LevelInfo},
		{"Warn level", "WARN", slog.LevelWarn},
		{"Warning level", "WARNING", slog.LevelWarn},
		{"Error level", "ERROR", slog.LevelError},
		{"Invalid level", "UNKNOWN", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getLevel(tt.input); got != tt.expect {
				t.Errorf("getLevel(%s) = %v, want %v", tt.input, got, tt.expect)
			}
		})
	}
}
