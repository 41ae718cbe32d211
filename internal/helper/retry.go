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

package helper

import (
	"context"
	"time"

	"github.com/caas-team/availtrack/internal/logger"
)

// RetryConfig configures how often and how fast an effector is retried
type RetryConfig struct {
	Count int           `json:"count" yaml:"count" mapstructure:"count"`
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// Effector will be the function that is called by the Retry function
type Effector func(context.Context) error

// Retry wraps the effector so that failed calls are repeated with an
// exponential backoff. The first call is not counted as a retry, so the
// effector runs at most rc.Count+1 times.
func Retry(effector Effector, rc RetryConfig) Effector {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for r := 1; ; r++ {
			err := effector(ctx)
			if err == nil || r > rc.Count {
				return err
			}

			delay := getExpBackoff(rc.Delay, r)
			log.DebugContext(ctx, "Effector call failed, retrying", "attempt", r, "delay", delay.String(), "error", err)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// getExpBackoff calculates the exponential delay for a given iteration.
// The first iteration is 1.
func getExpBackoff(initialDelay time.Duration, iteration int) time.Duration {
	if iteration <= 1 {
		return initialDelay
	}
	return initialDelay << (iteration - 1)
}
