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

package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/caas-team/availtrack/internal/logger"
)

// maxRetryCount bounds the configurable retries of remote requests
const maxRetryCount = 5

// Validate checks the configuration. Every invalid setting is logged, the
// returned error wraps ErrInvalidConfig and one error per invalid setting.
func (c *Config) Validate(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx, "component", "configValidation")
	defer cancel()
	log := logger.FromContext(ctx)

	var errs []error
	if c.Api.ListeningAddress == "" {
		log.ErrorContext(ctx, "The api listening address must not be empty")
		errs = append(errs, ErrInvalidApiAddress)
	}

	if !isAbsoluteHTTPURL(c.ApiManagement.GatewayUrl) {
		log.ErrorContext(ctx, "The api management gateway url is not an absolute http(s) url", "gatewayUrl", c.ApiManagement.GatewayUrl)
		errs = append(errs, ErrInvalidGatewayURL)
	}
	if c.ApiManagement.SubscriptionKey == "" {
		log.ErrorContext(ctx, "The api management subscription key must be set")
		errs = append(errs, ErrMissingSubscriptionKey)
	}
	if c.ApiManagement.StatusEndpoint == "" {
		log.ErrorContext(ctx, "The api management status endpoint must be set")
		errs = append(errs, ErrMissingStatusEndpoint)
	}

	if c.Schedule.Interval <= 0 {
		log.ErrorContext(ctx, "The schedule interval must be positive", "interval", c.Schedule.Interval)
		errs = append(errs, ErrInvalidInterval)
	}
	if c.Certificate.CriticalDays < 0 {
		log.ErrorContext(ctx, "The certificate critical days must not be negative", "criticalDays", c.Certificate.CriticalDays)
		errs = append(errs, ErrInvalidCriticalDays)
	}

	if c.Collector.Url != "" && !isAbsoluteHTTPURL(c.Collector.Url) {
		log.ErrorContext(ctx, "The collector url is not an absolute http(s) url", "url", c.Collector.Url)
		errs = append(errs, ErrInvalidCollectorURL)
	}
	for name, count := range map[string]int{
		"collector": c.Collector.Retry.Count,
		"monitors":  c.Monitors.Retry.Count,
	} {
		if count < 0 || count > maxRetryCount {
			log.ErrorContext(ctx, "The retry count must be between 0 and 5", "setting", name, "count", count)
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidRetryCount, name))
		}
	}

	if err := c.Tracing.Validate(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
