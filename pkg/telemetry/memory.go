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
	"sync"
)

var _ Sink = (*InMemory)(nil)

// InMemory keeps the latest record of every availability test
type InMemory struct {
	// if we want to keep a history per test, this can become
	// a map of ring buffers instead of a single record
	data sync.Map
}

func NewInMemory() *InMemory {
	return &InMemory{
		data: sync.Map{},
	}
}

// Submit stores the record as the latest one of its test
func (i *InMemory) Submit(_ context.Context, record Record) error {
	r := record.Clone()
	i.data.Store(r.Name, &r)
	return nil
}

// Flush is a no-op, records are visible as soon as they are submitted
func (i *InMemory) Flush(context.Context) error {
	return nil
}

// Get returns the latest record of the given test
func (i *InMemory) Get(name string) (Record, bool) {
	tmp, ok := i.data.Load(name)
	if !ok {
		return Record{}, false
	}
	// only *Record values are stored
	return tmp.(*Record).Clone(), true
}

// List returns the latest record of every test keyed by test name
func (i *InMemory) List() map[string]Record {
	records := make(map[string]Record)
	i.data.Range(func(key, value any) bool {
		records[key.(string)] = value.(*Record).Clone()
		return true
	})
	return records
}
