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

package healthz

import (
	"context"
	"time"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/telemetry"
)

// Checker decides whether the monitored system is healthy
type Checker interface {
	// CheckOverallHealth returns true if the latest run of every test succeeded
	// within staleRuns of its own interval. Tests are keyed by name.
	CheckOverallHealth(ctx context.Context, intervals map[string]time.Duration) bool
}

// Records provides the latest record of a test
type Records interface {
	Get(name string) (telemetry.Record, bool)
}

// checker evaluates the latest availability records
type checker struct {
	records   Records
	staleRuns int
	now       func() time.Time
}

// New creates a new healthz checker. A record whose run finished more than
// staleRuns intervals of its test ago counts as unhealthy. A non-positive
// staleRuns or interval disables that check.
func New(records Records, staleRuns int) Checker {
	return &checker{
		records:   records,
		staleRuns: staleRuns,
		now:       time.Now,
	}
}

func (c *checker) CheckOverallHealth(ctx context.Context, intervals map[string]time.Duration) bool {
	healthy := true
	for name, interval := range intervals {
		if !c.isTestHealthy(ctx, name, interval) {
			healthy = false
		}
	}
	return healthy
}

// isTestHealthy checks the latest record of a single test
func (c *checker) isTestHealthy(ctx context.Context, name string, interval time.Duration) bool {
	log := logger.FromContext(ctx).With("test", name)

	record, ok := c.records.Get(name)
	if !ok {
		log.DebugContext(ctx, "Test has not run yet")
		return false
	}
	if !record.Success {
		log.WarnContext(ctx, "Test is unhealthy", "message", record.Message)
		return false
	}
	if maxAge := time.Duration(c.staleRuns) * interval; maxAge > 0 {
		finished := record.Timestamp.Add(record.Duration)
		if age := c.now().Sub(finished); age > maxAge {
			log.WarnContext(ctx, "Test result is outdated", "age", age.String(), "maxAge", maxAge.String())
			return false
		}
	}
	return true
}
