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
	"io"
	"net/http"

	"github.com/caas-team/availtrack/internal/helper"
	"github.com/caas-team/availtrack/internal/logger"
)

// HttpLoader fetches the monitors file from a remote endpoint
type HttpLoader struct {
	cfg    MonitorsConfig
	client *http.Client
}

// NewHttpLoader creates a loader for the remote monitors file
func NewHttpLoader(cfg MonitorsConfig) *HttpLoader {
	return &HttpLoader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// GetMonitors fetches the monitors file. Failed requests are retried as
// configured.
func (hl *HttpLoader) GetMonitors(ctx context.Context) (*MonitorsFile, error) {
	var monitors *MonitorsFile
	get := helper.Retry(func(ctx context.Context) error {
		var err error
		monitors, err = hl.get(ctx)
		return err
	}, hl.cfg.Retry)

	if err := get(ctx); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "Could not get remote monitors file", "url", hl.cfg.Source, "error", err)
		return nil, err
	}
	return monitors, nil
}

func (hl *HttpLoader) get(ctx context.Context) (*MonitorsFile, error) {
	log := logger.FromContext(ctx).With("url", hl.cfg.Source)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hl.cfg.Source, http.NoBody)
	if err != nil {
		log.ErrorContext(ctx, "Could not create http GET request", "error", err)
		return nil, err
	}
	if hl.cfg.Token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", hl.cfg.Token))
	}

	res, err := hl.client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		log.ErrorContext(ctx, "Http get request failed", "error", err)
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cErr := body.Close(); cErr != nil {
			log.ErrorContext(ctx, "Failed to close response body", "error", cErr)
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		log.ErrorContext(ctx, "Http get request failed", "status", res.Status)
		return nil, fmt.Errorf("request failed, status is %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.ErrorContext(ctx, "Could not read response body", "error", err)
		return nil, err
	}
	log.DebugContext(ctx, "Successfully got monitors file")
	return parseMonitors(ctx, body)
}
