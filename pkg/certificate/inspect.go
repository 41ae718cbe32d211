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
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caas-team/availtrack/internal/logger"
)

// ErrNoCertificate is returned if the server did not present a certificate
var ErrNoCertificate = errors.New("no server certificate found")

const defaultDialTimeout = 10 * time.Second

// Inspector reads the server certificate of a TLS endpoint
type Inspector struct {
	timeout time.Duration
	roots   *x509.CertPool
	now     func() time.Time
}

// NewInspector creates an inspector. The handshake verifies the server
// certificate against roots, the system pool if nil.
func NewInspector(timeout time.Duration, roots *x509.CertPool) *Inspector {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &Inspector{timeout: timeout, roots: roots, now: time.Now}
}

// ExpirationInDays returns the number of whole days until the certificate
// of host:port expires. Expired certificates yield negative values.
func (i *Inspector) ExpirationInDays(ctx context.Context, host string, port int) (int, error) {
	log := logger.FromContext(ctx).With("host", host, "port", port)
	log.InfoContext(ctx, "Determining server certificate expiration")

	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: i.timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    i.roots,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		log.ErrorContext(ctx, "TLS handshake failed", "error", err)
		return 0, fmt.Errorf("tls dial failed for %s:%d: %w", host, port, err)
	}
	defer func() {
		if cErr := conn.Close(); cErr != nil {
			log.DebugContext(ctx, "Failed to close connection", "error", cErr)
		}
	}()

	// the dialer only returns *tls.Conn
	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return 0, fmt.Errorf("%w for %s:%d", ErrNoCertificate, host, port)
	}

	days := DaysUntil(certs[0].NotAfter, i.now())
	log.DebugContext(ctx, "Server certificate expiration determined", "days", days)
	return days, nil
}

// DaysUntil returns the whole days between now and t, truncated toward zero
func DaysUntil(t, now time.Time) int {
	return int(t.Sub(now) / (24 * time.Hour))
}

// Status is the health of a certificate based on its remaining lifetime
type Status string

const (
	StatusValid    Status = "valid"
	StatusExpiring Status = "expiring"
	StatusCritical Status = "critical"
	StatusExpired  Status = "expired"
)

// Classify maps the remaining days of a certificate to a status. A
// certificate is expiring within warnDays and critical within criticalDays.
func Classify(days, warnDays, criticalDays int) Status {
	switch {
	case days < 0:
		return StatusExpired
	case days <= criticalDays:
		return StatusCritical
	case days <= warnDays:
		return StatusExpiring
	default:
		return StatusValid
	}
}

// Healthy returns true if the certificate does not need attention
func (s Status) Healthy() bool {
	return s == StatusValid
}
