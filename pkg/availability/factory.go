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

package availability

import (
	"log/slog"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/pkg/telemetry"
)

// Factory creates availability tests sharing one sink, client provider and logger
type Factory interface {
	// NewProbe creates an availability test measuring check
	NewProbe(name string, check Check) Probe
	// NewHTTPProbe creates an availability test sending a GET request for
	// path with the client registered as clientName
	NewHTTPProbe(name, path, clientName string) Probe
}

var _ Factory = (*factory)(nil)

type factory struct {
	sink    telemetry.Sink
	clients httpclient.Provider
	log     *slog.Logger
	opts    []Option
}

// NewFactory creates a factory. The options are applied to every created probe.
func NewFactory(sink telemetry.Sink, clients httpclient.Provider, log *slog.Logger, opts ...Option) Factory {
	return &factory{
		sink:    sink,
		clients: clients,
		log:     log,
		opts:    opts,
	}
}

func (f *factory) NewProbe(name string, check Check) Probe {
	return NewProbe(name, check, f.sink, f.opts...)
}

func (f *factory) NewHTTPProbe(name, path, clientName string) Probe {
	return NewHTTPProbe(name, path, f.sink, f.clients, clientName, f.log, f.opts...)
}
