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
	"maps"
	"os"
	"time"
)

const (
	// ExceptionProperty is the property holding the full diagnostic
	// rendering of the error of a failed availability test
	ExceptionProperty = "Exception"
	// RunLocationEnv is the environment variable the run location is read from
	RunLocationEnv = "REGION_NAME"
	// UnknownRunLocation is used when RunLocationEnv is not set
	UnknownRunLocation = "Unknown"
)

// Record is the result of a single availability test execution
type Record struct {
	// Name identifies the availability test across runs
	Name string `json:"name"`
	// Success is true if the test completed without error
	Success bool `json:"success"`
	// Message describes the failure of the test
	Message string `json:"message,omitempty"`
	// RunLocation is the region the test was executed in
	RunLocation string `json:"runLocation"`
	// Timestamp is the time the measured window started
	Timestamp time.Time `json:"timestamp"`
	// Duration is the elapsed time of the measured window
	Duration time.Duration `json:"duration"`
	// CorrelationID is the span id of the correlation scope
	CorrelationID string `json:"id"`
	// ParentCorrelationID is the span id of the parent of the correlation scope
	ParentCorrelationID string `json:"parentId"`
	// OperationID is the trace id of the correlation scope
	OperationID string `json:"operationId"`
	// Properties holds additional diagnostic information
	Properties map[string]string `json:"properties,omitempty"`
}

// Clone returns a copy of the record which shares no memory with r
func (r Record) Clone() Record {
	r.Properties = maps.Clone(r.Properties)
	return r
}

// RunLocation returns the region availability tests are executed in
func RunLocation() string {
	if location, ok := os.LookupEnv(RunLocationEnv); ok {
		return location
	}
	return UnknownRunLocation
}
