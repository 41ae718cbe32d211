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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	err     error
	submits int
	flushes int
}

func (f *failingSink) Submit(context.Context, Record) error {
	f.submits++
	return f.err
}

func (f *failingSink) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func TestRunLocation(t *testing.T) {
	tests := []struct {
		name  string
		set   bool
		value string
		want  string
	}{
		{name: "unset", want: UnknownRunLocation},
		{name: "set", set: true, value: "eu-central-1", want: "eu-central-1"},
		{name: "set but empty", set: true, value: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv(RunLocationEnv, tt.value)
			} else {
				// register restore of the original value before unsetting
				t.Setenv(RunLocationEnv, "")
				require.NoError(t, os.Unsetenv(RunLocationEnv))
			}
			assert.Equal(t, tt.want, RunLocation())
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	r := Record{Name: "test", Properties: map[string]string{ExceptionProperty: "boom"}}
	c := r.Clone()
	c.Properties[ExceptionProperty] = "changed"

	assert.Equal(t, "boom", r.Properties[ExceptionProperty])
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	first := Record{Name: "api", Success: false, Message: "down", Timestamp: time.Unix(0, 0).UTC()}
	second := Record{Name: "api", Success: true, Timestamp: time.Unix(60, 0).UTC()}
	other := Record{Name: "cert", Success: true}

	for _, r := range []Record{first, second, other} {
		require.NoError(t, store.Submit(ctx, r))
	}
	require.NoError(t, store.Flush(ctx))

	got, ok := store.Get("api")
	require.True(t, ok)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	want := map[string]Record{"api": second, "cert": other}
	if diff := cmp.Diff(want, store.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	errSink := errors.New("sink failed")

	tests := []struct {
		name    string
		sinks   []*failingSink
		wantErr bool
	}{
		{name: "no sinks"},
		{name: "all succeed", sinks: []*failingSink{{}, {}}},
		{name: "one fails", sinks: []*failingSink{{err: errSink}, {}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sinks []Sink
			for _, s := range tt.sinks {
				sinks = append(sinks, s)
			}
			m := NewMulti(sinks...)

			subErr := m.Submit(ctx, Record{Name: "test"})
			flushErr := m.Flush(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, subErr, errSink)
				assert.ErrorIs(t, flushErr, errSink)
			} else {
				assert.NoError(t, subErr)
				assert.NoError(t, flushErr)
			}

			for _, s := range tt.sinks {
				assert.Equal(t, 1, s.submits, "every sink must receive the record")
				assert.Equal(t, 1, s.flushes, "every sink must be flushed")
			}
		})
	}
}

func TestPrometheus_Submit(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus()
	registry := prometheus.NewRegistry()
	registry.MustRegister(p.GetMetricCollectors()...)

	require.NoError(t, p.Submit(ctx, Record{Name: "api", Success: true, RunLocation: "eu", Duration: time.Second}))
	require.NoError(t, p.Submit(ctx, Record{Name: "api", Success: false, RunLocation: "eu", Duration: 2 * time.Second}))
	require.NoError(t, p.Flush(ctx))

	assert.Equal(t, 0.0, testutil.ToFloat64(p.up.WithLabelValues("api", "eu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.runs.WithLabelValues("api", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.runs.WithLabelValues("api", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.duration))
}
