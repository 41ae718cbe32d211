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

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/caas-team/availtrack/internal/helper"
	"github.com/caas-team/availtrack/internal/logger"
)

const (
	// BatchIDHeader carries the id of a posted batch, so the
	// ingestion endpoint can deduplicate retried batches
	BatchIDHeader = "X-Batch-Id"
	// maxBufferedRecords bounds the buffer while the endpoint is unreachable
	maxBufferedRecords = 1000
)

// CollectorConfig configures the ingestion endpoint of a Collector
type CollectorConfig struct {
	// Url is the endpoint batches are posted to, the collector is disabled if empty
	Url string
	// Token is sent as bearer token if set
	Token string
	// Timeout limits a single post
	Timeout time.Duration
	// Retry configures the retries of a failed post
	Retry helper.RetryConfig
}

// Enabled returns true if an ingestion endpoint is configured
func (c CollectorConfig) Enabled() bool {
	return c.Url != ""
}

var _ Sink = (*Collector)(nil)

// Collector buffers submitted records and posts them as one JSON batch on flush
type Collector struct {
	cfg    CollectorConfig
	client *http.Client

	mu     sync.Mutex
	buffer []Record
}

type batch struct {
	ID      string   `json:"id"`
	Records []Record `json:"records"`
}

// NewCollector creates a new collector sink
func NewCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Submit appends the record to the buffer
func (c *Collector) Submit(_ context.Context, record Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = append(c.buffer, record.Clone())
	c.trim()
	return nil
}

// Flush posts all buffered records. Records of a batch that could not be
// delivered are put back into the buffer and sent with the next flush.
func (c *Collector) Flush(ctx context.Context) error {
	log := logger.FromContext(ctx).With("url", c.cfg.Url)

	c.mu.Lock()
	records := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	b := batch{ID: uuid.NewString(), Records: records}
	body, err := json.Marshal(b)
	if err != nil {
		c.requeue(records)
		return errors.Wrap(err, "failed to marshal availability batch")
	}

	post := helper.Retry(func(ctx context.Context) error {
		return c.post(ctx, b.ID, body)
	}, c.cfg.Retry)

	if err := post(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to deliver availability batch", "batch", b.ID, "records", len(records), "error", err)
		c.requeue(records)
		return errors.Wrapf(err, "failed to deliver availability batch %s", b.ID)
	}

	log.DebugContext(ctx, "Delivered availability batch", "batch", b.ID, "records", len(records))
	return nil
}

// Len returns the number of buffered records
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

func (c *Collector) post(ctx context.Context, batchID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(BatchIDHeader, batchID)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
	}

	resp, err := c.client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return err
	}
	defer func(b io.ReadCloser) {
		_, _ = io.Copy(io.Discard, b)
		_ = b.Close()
	}(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("request failed, status is %s", resp.Status)
	}
	return nil
}

// requeue puts undelivered records in front of the records submitted meanwhile
func (c *Collector) requeue(records []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = append(records, c.buffer...)
	c.trim()
}

// trim drops the oldest records if the buffer is full; c.mu must be held
func (c *Collector) trim() {
	if over := len(c.buffer) - maxBufferedRecords; over > 0 {
		c.buffer = c.buffer[over:]
	}
}
