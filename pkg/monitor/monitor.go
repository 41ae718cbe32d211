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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/availability"
)

// Monitor executes an availability test periodically
type Monitor struct {
	probe    availability.Probe
	interval time.Duration

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// New creates a monitor executing probe every interval
func New(probe availability.Probe, interval time.Duration) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Name returns the name of the availability test
func (m *Monitor) Name() string {
	return m.probe.Name()
}

// Interval returns the time between two executions
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Run executes the test immediately and then every interval until the
// context is canceled or the monitor is shut down. A failing test does not
// stop the monitor, a misconfigured one does.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx, "monitor", m.Name())
	defer cancel()
	log := logger.FromContext(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()
	log.InfoContext(ctx, "Starting monitor", "interval", m.interval.String())
	for {
		select {
		case <-ctx.Done():
			log.DebugContext(ctx, "Context canceled", "error", ctx.Err())
			return ctx.Err()
		case <-m.done:
			log.DebugContext(ctx, "Monitor shut down")
			return nil
		case <-timer.C:
			if err := m.execute(ctx); err != nil {
				return err
			}
			timer.Reset(m.interval)
		}
	}
}

// execute runs the test once. Executions are bounded by the interval so
// they never overlap.
func (m *Monitor) execute(ctx context.Context) error {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.probe.Execute(ctx)
	switch {
	case err == nil:
		log.DebugContext(ctx, "Successfully finished monitor run")
	case errors.Is(err, httpclient.ErrClientNotRegistered):
		log.ErrorContext(ctx, "Monitor is misconfigured, stopping", "error", err)
		return err
	default:
		log.WarnContext(ctx, "Availability test failed", "error", err)
	}
	return nil
}

// Shutdown stops the monitor. It is safe to call it multiple times.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.done)
		m.closed = true
	}
}

// RunAll runs all monitors until the context is canceled or one of them
// stops with an error, which cancels the others.
func RunAll(ctx context.Context, monitors ...*Monitor) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range monitors {
		g.Go(func() error {
			return m.Run(ctx)
		})
	}
	return g.Wait()
}
