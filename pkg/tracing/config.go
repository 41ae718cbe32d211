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
	"fmt"

	"github.com/caas-team/availtrack/internal/logger"
)

// Config configures where the spans of the correlation scopes are exported to
type Config struct {
	// Exporter selects the span exporter, spans are only kept in-process for noop
	Exporter Exporter `yaml:"exporter" mapstructure:"exporter"`
	// Url is the otlp endpoint spans are exported to
	Url string `yaml:"url" mapstructure:"url"`
	// Token is sent as bearer token to the otlp endpoint
	Token string `yaml:"token" mapstructure:"token"`
	// CertPath is the path to a PEM bundle trusted for the otlp endpoint
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
}

// Validate checks that the selected exporter can be created
func (c *Config) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx).With("exporter", c.Exporter)
	if c.Exporter == "" {
		return nil
	}
	if err := c.Exporter.Validate(); err != nil {
		log.ErrorContext(ctx, "Invalid tracing exporter", "error", err)
		return err
	}
	if c.Exporter.IsOTLP() && c.Url == "" {
		log.ErrorContext(ctx, "Url is required for otlp exporters")
		return fmt.Errorf("url is required for otlp exporter %q", c.Exporter)
	}
	return nil
}
