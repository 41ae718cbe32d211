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
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StatusError is returned by HTTP availability tests for responses without a 2xx status
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Response status code does not indicate success: %d (%s).", e.Code, e.Reason)
}

// newStatusError creates a StatusError for the response. The reason phrase
// is taken from the status line and falls back to the standard status text.
func newStatusError(resp *http.Response) *StatusError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Reason: reason}
}

// PanicError is returned if an availability check panicked
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("availability check panicked: %v", e.Value)
}

// Format prints the stack of the panicking goroutine for %+v
func (e *PanicError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = io.WriteString(s, e.Error())
			_, _ = fmt.Fprintf(s, "\n%s", e.Stack)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// TelemetryError is returned by a successful availability test whose
// record could not be submitted or flushed
type TelemetryError struct {
	Submit error
	Flush  error
}

func (e *TelemetryError) Error() string {
	var parts []string
	if e.Submit != nil {
		parts = append(parts, fmt.Sprintf("submit: %v", e.Submit))
	}
	if e.Flush != nil {
		parts = append(parts, fmt.Sprintf("flush: %v", e.Flush))
	}
	return fmt.Sprintf("failed to report availability record: %s", strings.Join(parts, ", "))
}

func (e *TelemetryError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Submit, e.Flush} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// diagnostic renders the error with its root cause type and, if recorded, its stack
func diagnostic(err error) string {
	return fmt.Sprintf("%T: %+v", errors.Cause(err), err)
}
