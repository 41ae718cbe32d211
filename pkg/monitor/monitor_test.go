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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/pkg/availability"
)

// countingProbe counts its executions and returns err on each of them
type countingProbe struct {
	runs atomic.Int32
	err  error
}

func (p *countingProbe) Name() string { return "counting" }

func (p *countingProbe) Execute(context.Context) error {
	p.runs.Add(1)
	return p.err
}

var _ availability.Probe = (*countingProbe)(nil)

func TestMonitor_Run(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantErr  error
		wantRuns int32
	}{
		{name: "successful test keeps running", wantErr: context.DeadlineExceeded, wantRuns: 3},
		{name: "failing test keeps running", err: errors.New("backend down"), wantErr: context.DeadlineExceeded, wantRuns: 3},
		{
			name:     "misconfigured test stops",
			err:      fmt.Errorf("availability test: %w", httpclient.ErrClientNotRegistered),
			wantErr:  httpclient.ErrClientNotRegistered,
			wantRuns: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProbe{err: tt.err}
			m := New(p, 20*time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()

			err := m.Run(ctx)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantRuns == 1 {
				assert.Equal(t, tt.wantRuns, p.runs.Load())
			} else {
				assert.GreaterOrEqual(t, p.runs.Load(), tt.wantRuns)
			}
		})
	}
}

func TestMonitor_Shutdown(t *testing.T) {
	p := &countingProbe{}
	m := New(p, time.Hour)
	assert.Equal(t, "counting", m.Name())
	assert.Equal(t, time.Hour, m.Interval())

	errc := make(chan error, 1)
	go func() {
		errc <- m.Run(context.Background())
	}()

	require.Eventually(t, func() bool { return p.runs.Load() == 1 }, time.Second, 5*time.Millisecond, "first run must happen immediately")
	m.Shutdown()
	m.Shutdown()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after shutdown")
	}
}

func TestRunAll(t *testing.T) {
	healthy := &countingProbe{}
	broken := &countingProbe{err: httpclient.ErrClientNotRegistered}

	done := make(chan error, 1)
	go func() {
		done <- RunAll(context.Background(), New(healthy, time.Hour), New(broken, time.Hour))
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, httpclient.ErrClientNotRegistered)
	case <-time.After(time.Second):
		t.Fatal("misconfigured monitor must stop all monitors")
	}
}
