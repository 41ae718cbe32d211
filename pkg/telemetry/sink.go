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
	"context"
	"errors"
)

// Sink receives availability records.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Submit queues the record for delivery
	Submit(ctx context.Context, record Record) error
	// Flush delivers all queued records
	Flush(ctx context.Context) error
}

var _ Sink = (Multi)(nil)

// Multi is a sink forwarding every call to all of its sinks
type Multi []Sink

// NewMulti creates a sink which fans out to the given sinks
func NewMulti(sinks ...Sink) Multi {
	return Multi(sinks)
}

// Submit submits the record to every sink. All sinks are called even if one fails.
func (m Multi) Submit(ctx context.Context, record Record) error {
	var err error
	for _, s := range m {
		if sErr := s.Submit(ctx, record.Clone()); sErr != nil {
			err = errors.Join(err, sErr)
		}
	}
	return err
}

// Flush flushes every sink. All sinks are called even if one fails.
func (m Multi) Flush(ctx context.Context) error {
	var err error
	for _, s := range m {
		if fErr := s.Flush(ctx); fErr != nil {
			err = errors.Join(err, fErr)
		}
	}
	return err
}
