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

import "errors"

var (
	// ErrInvalidConfig wraps all findings of a failed validation
	ErrInvalidConfig = errors.New("validation of configuration failed")
	// ErrInvalidApiAddress is returned when the api listening address is empty
	ErrInvalidApiAddress = errors.New("invalid api address")
	// ErrInvalidGatewayURL is returned when the gateway url is not an absolute http(s) url
	ErrInvalidGatewayURL = errors.New("invalid api management gateway url")
	// ErrMissingSubscriptionKey is returned when no subscription key is configured
	ErrMissingSubscriptionKey = errors.New("missing api management subscription key")
	// ErrMissingStatusEndpoint is returned when no status endpoint is configured
	ErrMissingStatusEndpoint = errors.New("missing api management status endpoint")
	// ErrInvalidInterval is returned when the schedule interval is not positive
	ErrInvalidInterval = errors.New("invalid schedule interval")
	// ErrInvalidCriticalDays is returned when the critical days are negative
	ErrInvalidCriticalDays = errors.New("invalid certificate critical days")
	// ErrInvalidCollectorURL is returned when the collector url is malformed
	ErrInvalidCollectorURL = errors.New("invalid collector url")
	// ErrInvalidRetryCount is returned when a retry count is out of range
	ErrInvalidRetryCount = errors.New("invalid retry count")
	// ErrInvalidMonitor is returned when a monitor of the monitors file is malformed
	ErrInvalidMonitor = errors.New("invalid monitor")
)
