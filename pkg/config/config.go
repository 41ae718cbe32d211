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
	"time"

	"github.com/caas-team/availtrack/internal/helper"
	"github.com/caas-team/availtrack/pkg/telemetry"
	"github.com/caas-team/availtrack/pkg/tracing"
)

// Config is the startup configuration of the availability tracker
type Config struct {
	// Api configures the tracker API
	Api ApiConfig `yaml:"api" mapstructure:"api"`
	// ApiManagement describes the monitored gateway
	ApiManagement ApiManagementConfig `yaml:"apiManagement" mapstructure:"apiManagement"`
	// Schedule configures how often the built-in monitors run
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	// Certificate configures the certificate thresholds
	Certificate CertificateConfig `yaml:"certificate" mapstructure:"certificate"`
	// Monitors configures the source of additional monitors
	Monitors MonitorsConfig `yaml:"monitors" mapstructure:"monitors"`
	// Collector configures the remote ingestion of availability records
	Collector CollectorConfig `yaml:"collector" mapstructure:"collector"`
	// Tracing configures the export of the correlation spans
	Tracing tracing.Config `yaml:"tracing" mapstructure:"tracing"`
}

// ApiConfig is the configuration for the tracker API
type ApiConfig struct {
	ListeningAddress string `yaml:"address" mapstructure:"address"`
}

// ApiManagementConfig describes the gateway the built-in monitors test
type ApiManagementConfig struct {
	// GatewayUrl is the absolute base url of the gateway
	GatewayUrl string `yaml:"gatewayUrl" mapstructure:"gatewayUrl"`
	// SubscriptionKey is sent with every request to the gateway
	SubscriptionKey string `yaml:"subscriptionKey" mapstructure:"subscriptionKey"`
	// StatusEndpoint is the path of the backend status endpoint
	StatusEndpoint string `yaml:"statusEndpoint" mapstructure:"statusEndpoint"`
	// Timeout limits a single request to the gateway
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ScheduleConfig configures the monitor loop
type ScheduleConfig struct {
	// Interval is the time between two runs of a monitor
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// CertificateConfig configures the certificate expiration thresholds.
// The grace period is read from the environment by the validator.
type CertificateConfig struct {
	// CriticalDays marks certificates expiring within this many days as critical
	CriticalDays int `yaml:"criticalDays" mapstructure:"criticalDays"`
}

// MonitorsConfig configures where additional monitors are loaded from
type MonitorsConfig struct {
	// Source is a file path or an http(s) url of a monitors file
	Source string `yaml:"source" mapstructure:"source"`
	// Token is sent as bearer token when fetching the file over http
	Token string `yaml:"token" mapstructure:"token"`
	// Timeout limits the http request
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Retry configures the retries of a failed http request
	Retry helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// CollectorConfig configures the remote ingestion endpoint
type CollectorConfig struct {
	Url     string             `yaml:"url" mapstructure:"url"`
	Token   string             `yaml:"token" mapstructure:"token"`
	Timeout time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	Retry   helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Telemetry returns the configuration of the collector sink
func (c CollectorConfig) Telemetry() telemetry.CollectorConfig {
	return telemetry.CollectorConfig{
		Url:     c.Url,
		Token:   c.Token,
		Timeout: c.Timeout,
		Retry:   c.Retry,
	}
}

// NewConfig creates a config with the defaults of all optional settings
func NewConfig() *Config {
	return &Config{
		Api: ApiConfig{ListeningAddress: ":8080"},
		ApiManagement: ApiManagementConfig{Timeout: 30 * time.Second},
		Schedule:    ScheduleConfig{Interval: time.Minute},
		Certificate: CertificateConfig{CriticalDays: 7},
		Monitors: MonitorsConfig{
			Timeout: 30 * time.Second,
			Retry:   helper.RetryConfig{Count: 3, Delay: time.Second},
		},
		Collector: CollectorConfig{
			Timeout: 10 * time.Second,
			Retry:   helper.RetryConfig{Count: 3, Delay: time.Second},
		},
		Tracing: tracing.Config{Exporter: tracing.NOOP},
	}
}
