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

package certificate

import (
	"bytes"
	"context"
	"crypto/x509"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/availtrack/internal/httpclient"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPolicyErrors_String(t *testing.T) {
	tests := []struct {
		errs PolicyErrors
		want string
	}{
		{errs: PolicyNone, want: "None"},
		{errs: PolicyNameMismatch, want: "NameMismatch"},
		{errs: PolicyNameMismatch | PolicyChainErrors, want: "NameMismatch, ChainErrors"},
		{errs: PolicyCertificateNotAvailable | PolicyChainErrors, want: "CertificateNotAvailable, ChainErrors"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errs.String())
		})
	}
}

func TestNewValidator_GracePeriod(t *testing.T) {
	tests := []struct {
		name  string
		set   bool
		value string
		opts  []Option
		want  int
	}{
		{name: "unset", want: DefaultGracePeriodDays},
		{name: "from env", set: true, value: "10", want: 10},
		{name: "zero from env", set: true, value: "0", want: 0},
		{name: "unparseable", set: true, value: "ten", want: DefaultGracePeriodDays},
		{name: "negative", set: true, value: "-3", want: DefaultGracePeriodDays},
		{name: "option wins", set: true, value: "10", opts: []Option{WithGracePeriodDays(5)}, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(GracePeriodEnv, tt.value)
			if !tt.set {
				require.NoError(t, os.Unsetenv(GracePeriodEnv))
			}
			v := NewValidator(slog.Default(), tt.opts...)
			assert.Equal(t, tt.want, v.GracePeriodDays())
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	deadline := fixedNow.AddDate(0, 0, 30)

	tests := []struct {
		name    string
		cert    *x509.Certificate
		errs    PolicyErrors
		want    bool
		wantLog string
	}{
		{
			name:    "missing certificate",
			cert:    nil,
			want:    false,
			wantLog: "Could not find a server certificate",
		},
		{
			name:    "expires exactly at the end of the grace period",
			cert:    &x509.Certificate{NotAfter: deadline},
			want:    false,
			wantLog: "close to its expiration date",
		},
		{
			name: "expires one second after the grace period",
			cert: &x509.Certificate{NotAfter: deadline.Add(time.Second)},
			want: true,
		},
		{
			name:    "already expired",
			cert:    &x509.Certificate{NotAfter: fixedNow.AddDate(0, 0, -1)},
			want:    false,
			wantLog: "close to its expiration date",
		},
		{
			name:    "expiration wins over policy errors",
			cert:    &x509.Certificate{NotAfter: fixedNow.AddDate(0, 0, 10)},
			errs:    PolicyChainErrors,
			want:    false,
			wantLog: "close to its expiration date",
		},
		{
			name:    "policy errors",
			cert:    &x509.Certificate{NotAfter: fixedNow.AddDate(1, 0, 0)},
			errs:    PolicyNameMismatch | PolicyChainErrors,
			want:    false,
			wantLog: "NameMismatch, ChainErrors",
		},
		{
			name: "valid",
			cert: &x509.Certificate{NotAfter: fixedNow.AddDate(1, 0, 0)},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))
			v := NewValidator(log, WithGracePeriodDays(30), WithClock(clock(fixedNow)))

			assert.Equal(t, tt.want, v.Validate(nil, tt.cert, nil, tt.errs))
			if tt.wantLog != "" {
				assert.Contains(t, buf.String(), tt.wantLog)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestValidator_VerifyConnection(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	trusted := x509.NewCertPool()
	trusted.AddCert(srv.Certificate())
	notAfter := srv.Certificate().NotAfter

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "trusted certificate outside the grace period",
			opts: []Option{WithRootCAs(trusted), WithGracePeriodDays(30), WithClock(clock(notAfter.AddDate(0, 0, -31)))},
		},
		{
			name:    "trusted certificate within the grace period",
			opts:    []Option{WithRootCAs(trusted), WithGracePeriodDays(30), WithClock(clock(notAfter.AddDate(0, 0, -10)))},
			wantErr: true,
		},
		{
			name:    "untrusted certificate",
			opts:    []Option{WithRootCAs(x509.NewCertPool()), WithGracePeriodDays(0)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(slog.Default(), tt.opts...)
			c, err := httpclient.New("apim", httpclient.Options{
				BaseURL:          srv.URL,
				VerifyConnection: v.VerifyConnection,
			})
			require.NoError(t, err)

			resp, err := c.Get(context.Background(), "/status")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrCertificateRejected)
				return
			}
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestInspector_ExpirationInDays(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	t.Cleanup(srv.Close)

	host, rawPort, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)

	trusted := x509.NewCertPool()
	trusted.AddCert(srv.Certificate())

	t.Run("trusted endpoint", func(t *testing.T) {
		i := NewInspector(time.Second, trusted)
		now := srv.Certificate().NotAfter.Add(-45*24*time.Hour - time.Hour)
		i.now = clock(now)

		days, err := i.ExpirationInDays(context.Background(), host, port)
		require.NoError(t, err)
		assert.Equal(t, 45, days)
	})

	t.Run("untrusted endpoint", func(t *testing.T) {
		i := NewInspector(time.Second, x509.NewCertPool())
		_, err := i.ExpirationInDays(context.Background(), host, port)
		assert.Error(t, err)
	})
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{name: "in 31 days", t: fixedNow.AddDate(0, 0, 31), want: 31},
		{name: "partial days are truncated", t: fixedNow.Add(47 * time.Hour), want: 1},
		{name: "less than a day", t: fixedNow.Add(time.Hour), want: 0},
		{name: "expired 5 days ago", t: fixedNow.AddDate(0, 0, -5), want: -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.t, fixedNow))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		days int
		want Status
	}{
		{days: 90, want: StatusValid},
		{days: 31, want: StatusValid},
		{days: 30, want: StatusExpiring},
		{days: 8, want: StatusExpiring},
		{days: 7, want: StatusCritical},
		{days: 0, want: StatusCritical},
		{days: -5, want: StatusExpired},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.days), func(t *testing.T) {
			got := Classify(tt.days, 30, 7)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == StatusValid, got.Healthy())
		})
	}
}
