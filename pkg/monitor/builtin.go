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

package monitor

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/caas-team/availtrack/internal/httpclient"
	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/availability"
	"github.com/caas-team/availtrack/pkg/certificate"
	"github.com/caas-team/availtrack/pkg/config"
)

const (
	// ApimClient is the client sending authenticated requests to the gateway
	ApimClient = "apim"
	// ApimCertificateClient is the client whose handshake is gated by the certificate validator
	ApimCertificateClient = "apim-certificate"
	// SubscriptionKeyHeader carries the gateway subscription key
	SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

	BackendStatusTest         = "Backend API Status"
	BackendStatusPath         = "/backend/status"
	CertificateCheckTest      = "API Management SSL Certificate Check"
	CertificateExpirationTest = "API Management SSL Certificate Expiration"
)

// ExpiringError is returned by the certificate expiration test for
// certificates expiring within the grace period
type ExpiringError struct {
	Host string
	Days int
}

func (e *ExpiringError) Error() string {
	return fmt.Sprintf("SSL server certificate for %s is expiring in %d days", e.Host, e.Days)
}

// RegisterClients registers the gateway clients and the clients of the monitors file.
// A file client must not use the name of a gateway client.
func RegisterClients(reg *httpclient.Registry, cfg config.ApiManagementConfig, validator *certificate.Validator, extra []config.ClientConfig) error {
	if err := reg.Register(ApimClient, httpclient.Options{
		BaseURL: cfg.GatewayUrl,
		Headers: map[string]string{SubscriptionKeyHeader: cfg.SubscriptionKey},
		Timeout: cfg.Timeout,
	}); err != nil {
		return err
	}
	if err := reg.Register(ApimCertificateClient, httpclient.Options{
		BaseURL:          cfg.GatewayUrl,
		Timeout:          cfg.Timeout,
		VerifyConnection: validator.VerifyConnection,
	}); err != nil {
		return err
	}

	for _, c := range extra {
		if c.Name == ApimClient || c.Name == ApimCertificateClient {
			return errors.Errorf("client name %q is reserved for the gateway", c.Name)
		}
		if err := reg.Register(c.Name, httpclient.Options{
			BaseURL: c.BaseURL,
			Headers: c.Headers,
			Timeout: c.Timeout,
		}); err != nil {
			return err
		}
	}
	return nil
}

// BackendStatus tests that the backend status endpoint behind the gateway is reachable
func BackendStatus(f availability.Factory) availability.Probe {
	return f.NewHTTPProbe(BackendStatusTest, BackendStatusPath, ApimClient)
}

// CertificateCheck tests that the gateway presents an acceptable certificate.
// Only the handshake matters, the status of the response is ignored.
func CertificateCheck(f availability.Factory, clients httpclient.Provider, statusEndpoint string) availability.Probe {
	return f.NewProbe(CertificateCheckTest, func(ctx context.Context) error {
		c, err := clients.Client(ApimCertificateClient)
		if err != nil {
			return err
		}
		resp, err := c.Get(ctx, statusEndpoint) //nolint:bodyclose // closed below
		if err != nil {
			return errors.WithStack(err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Body.Close()
	})
}

// CertificateExpiration tests that the certificate of the gateway remains
// valid for longer than graceDays
func CertificateExpiration(f availability.Factory, inspector *certificate.Inspector, gatewayURL string, graceDays int) (availability.Probe, error) {
	host, port, err := hostPort(gatewayURL)
	if err != nil {
		return nil, err
	}

	return f.NewProbe(CertificateExpirationTest, func(ctx context.Context) error {
		days, err := inspector.ExpirationInDays(ctx, host, port)
		if err != nil {
			return errors.Wrap(err, "Unable to determine API Management SSL server certificate expiration")
		}
		logger.FromContext(ctx).InfoContext(ctx, "Certificate expiration determined", "host", host, "days", days)
		if days <= graceDays {
			return errors.WithStack(&ExpiringError{Host: host, Days: days})
		}
		return nil
	}), nil
}

// FromFile creates a monitor for every http monitor of the file. Monitors
// without interval use defaultInterval.
func FromFile(f availability.Factory, file *config.MonitorsFile, defaultInterval time.Duration) []*Monitor {
	monitors := make([]*Monitor, 0, len(file.Monitors))
	for _, m := range file.Monitors {
		interval := m.Interval
		if interval <= 0 {
			interval = defaultInterval
		}
		monitors = append(monitors, New(f.NewHTTPProbe(m.Name, m.Path, m.Client), interval))
	}
	return monitors
}

// hostPort extracts the host and port of an https url, 443 if no port is given
func hostPort(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid gateway url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("gateway url %q has no host", raw)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port of gateway url: %w", err)
		}
		return host, port, nil
	}
	return host, 443, nil
}
