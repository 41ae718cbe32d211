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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caas-team/availtrack/internal/logger"
)

// MonitorsFile declares additional http clients and monitors
type MonitorsFile struct {
	Clients  []ClientConfig  `yaml:"clients" json:"clients"`
	Monitors []MonitorConfig `yaml:"monitors" json:"monitors"`
}

// ClientConfig declares a named http client
type ClientConfig struct {
	Name    string            `yaml:"name" json:"name"`
	BaseURL string            `yaml:"baseUrl" json:"baseUrl"`
	Headers map[string]string `yaml:"headers" json:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout" json:"timeout,omitempty"`
}

// MonitorConfig declares an http availability test
type MonitorConfig struct {
	// Name of the availability test
	Name string `yaml:"name" json:"name"`
	// Client is the name of the http client the request is sent with
	Client string `yaml:"client" json:"client"`
	// Path is requested relative to the base url of the client
	Path string `yaml:"path" json:"path"`
	// Interval overrides the schedule interval if positive
	Interval time.Duration `yaml:"interval" json:"interval,omitempty"`
}

// Validate checks that all clients and monitors are complete and uniquely named
func (m *MonitorsFile) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)

	clients := map[string]struct{}{}
	for i, c := range m.Clients {
		if c.Name == "" || !isAbsoluteHTTPURL(c.BaseURL) {
			log.ErrorContext(ctx, "Client needs a name and an absolute base url", "index", i, "name", c.Name, "baseUrl", c.BaseURL)
			return fmt.Errorf("%w: client %d is incomplete", ErrInvalidMonitor, i)
		}
		if _, ok := clients[c.Name]; ok {
			log.ErrorContext(ctx, "Client is declared twice", "name", c.Name)
			return fmt.Errorf("%w: duplicate client %q", ErrInvalidMonitor, c.Name)
		}
		clients[c.Name] = struct{}{}
	}

	monitors := map[string]struct{}{}
	for i, mon := range m.Monitors {
		if mon.Name == "" || mon.Client == "" || mon.Path == "" || mon.Interval < 0 {
			log.ErrorContext(ctx, "Monitor needs a name, a client and a path", "index", i, "name", mon.Name)
			return fmt.Errorf("%w: monitor %d is incomplete", ErrInvalidMonitor, i)
		}
		if _, ok := monitors[mon.Name]; ok {
			log.ErrorContext(ctx, "Monitor is declared twice", "name", mon.Name)
			return fmt.Errorf("%w: duplicate monitor %q", ErrInvalidMonitor, mon.Name)
		}
		monitors[mon.Name] = struct{}{}
	}
	return nil
}

// LoadMonitors reads the monitors file from its source. An empty source
// yields an empty file.
func (c MonitorsConfig) LoadMonitors(ctx context.Context) (*MonitorsFile, error) {
	switch {
	case c.Source == "":
		return &MonitorsFile{}, nil
	case strings.HasPrefix(c.Source, "http://"), strings.HasPrefix(c.Source, "https://"):
		return NewHttpLoader(c).GetMonitors(ctx)
	default:
		return ReadMonitorsFile(ctx, os.DirFS(filepath.Dir(c.Source)), filepath.Base(c.Source))
	}
}

// ReadMonitorsFile reads and validates the monitors file at path of fsys
func ReadMonitorsFile(ctx context.Context, fsys fs.FS, path string) (*MonitorsFile, error) {
	log := logger.FromContext(ctx).With("path", path)
	log.InfoContext(ctx, "Reading monitors from file")

	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read monitors file", "error", err)
		return nil, fmt.Errorf("failed to read monitors file: %w", err)
	}
	return parseMonitors(ctx, b)
}

func parseMonitors(ctx context.Context, b []byte) (*MonitorsFile, error) {
	var m MonitorsFile
	if err := yaml.Unmarshal(b, &m); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to parse monitors file", "error", err)
		return nil, fmt.Errorf("failed to parse monitors file: %w", err)
	}
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}
