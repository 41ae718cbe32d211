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
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/telemetry"
)

var _ Probe = (*HTTPProbe)(nil)

// HTTPProbe is an availability test sending a GET request through a named http client
type HTTPProbe struct {
	path       string
	clients    httpclient.Provider
	clientName string
	log        *slog.Logger
	probe      Probe
}

// NewHTTPProbe creates an availability test which is successful if a GET
// request for path sent with the client registered as clientName returns a
// 2xx status. A nil log uses the logger of the execution context.
func NewHTTPProbe(name, path string, sink telemetry.Sink, clients httpclient.Provider, clientName string, log *slog.Logger, opts ...Option) *HTTPProbe {
	h := &HTTPProbe{
		path:       path,
		clients:    clients,
		clientName: clientName,
		log:        log,
	}
	h.probe = NewProbe(name, h.checkAvailability, sink, opts...)
	return h
}

// Name returns the name of the availability test
func (h *HTTPProbe) Name() string {
	return h.probe.Name()
}

// Execute runs the availability test. An unregistered client is a
// configuration error which is returned without reporting a record.
func (h *HTTPProbe) Execute(ctx context.Context) error {
	if _, err := h.clients.Client(h.clientName); err != nil {
		h.logger(ctx).ErrorContext(ctx, "Availability test is misconfigured", "test", h.Name(), "client", h.clientName, "error", err)
		return errors.Wrapf(err, "availability test %q", h.Name())
	}
	return h.probe.Execute(ctx)
}

func (h *HTTPProbe) checkAvailability(ctx context.Context) error {
	client, err := h.clients.Client(h.clientName)
	if err != nil {
		return err
	}

	h.logger(ctx).InfoContext(ctx, "Test availability", "resource", h.path, "baseUrl", client.BaseAddress())

	resp, err := client.Get(ctx, h.path) //nolint:bodyclose // closed in defer
	if err != nil {
		return errors.WithStack(err)
	}
	defer func(body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, body)
		if cErr := body.Close(); cErr != nil {
			h.logger(ctx).DebugContext(ctx, "Failed to close response body", "error", cErr)
		}
	}(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.WithStack(newStatusError(resp))
	}
	return nil
}

func (h *HTTPProbe) logger(ctx context.Context) *slog.Logger {
	if h.log != nil {
		return h.log
	}
	return logger.FromContext(ctx)
}
