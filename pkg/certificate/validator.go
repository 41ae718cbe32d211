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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/caas-team/availtrack/internal/logger"
)

const (
	// GracePeriodEnv is the environment variable overriding the grace period in days
	GracePeriodEnv = "CERTIFICATE_EXPIRATION_GRACE_PERIOD_DAYS"
	// DefaultGracePeriodDays is used when GracePeriodEnv is unset or invalid
	DefaultGracePeriodDays = 30
)

// ErrCertificateRejected is returned by the handshake hook for certificates
// the validator does not accept
var ErrCertificateRejected = errors.New("server certificate rejected")

// Validator decides whether a server certificate is acceptable: it must be
// present, valid for longer than the grace period and free of policy errors.
type Validator struct {
	log       *slog.Logger
	graceDays int
	now       func() time.Time
	roots     *x509.CertPool
}

// Option configures a Validator
type Option func(*Validator)

// WithGracePeriodDays overrides the grace period resolved from the environment
func WithGracePeriodDays(days int) Option {
	return func(v *Validator) {
		if days >= 0 {
			v.graceDays = days
		}
	}
}

// WithClock replaces the clock the expiration is compared against
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// WithRootCAs sets the roots chains are verified against, the system pool if nil
func WithRootCAs(pool *x509.CertPool) Option {
	return func(v *Validator) {
		v.roots = pool
	}
}

// NewValidator creates a validator. The grace period is read once from
// GracePeriodEnv.
func NewValidator(log *slog.Logger, opts ...Option) *Validator {
	if log == nil {
		log = logger.NewLogger()
	}
	v := &Validator{
		log:       log.With("component", "certificate-validator"),
		graceDays: gracePeriodFromEnv(log),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GracePeriodDays returns the number of days a certificate must at least remain valid
func (v *Validator) GracePeriodDays() int {
	return v.graceDays
}

// Validate returns false if the certificate is missing, expires within the
// grace period or has policy errors. It has the shape of a handshake
// validation callback and never fails, all findings are logged.
func (v *Validator) Validate(_ any, cert *x509.Certificate, _ []*x509.Certificate, errs PolicyErrors) bool {
	if cert == nil {
		v.log.Error("Could not find a server certificate associated to the endpoint")
		return false
	}

	if deadline := v.now().AddDate(0, 0, v.graceDays); !cert.NotAfter.After(deadline) {
		v.log.Error("The server certificate is close to its expiration date",
			"expiration", cert.NotAfter.UTC().Format(time.RFC3339),
			"gracePeriodDays", v.graceDays,
		)
		return false
	}

	if errs != PolicyNone {
		v.log.Error("The server certificate is not valid", "policyErrors", errs.String())
		return false
	}

	return true
}

// VerifyConnection is a tls.Config.VerifyConnection hook. It has to be
// combined with InsecureSkipVerify, so chain and host name are only checked here.
func (v *Validator) VerifyConnection(cs tls.ConnectionState) error {
	leaf, chain, errs := v.evaluate(cs)
	if !v.Validate(cs.ServerName, leaf, chain, errs) {
		return ErrCertificateRejected
	}
	return nil
}

// evaluate computes the policy errors of the peer certificates of a handshake
func (v *Validator) evaluate(cs tls.ConnectionState) (*x509.Certificate, []*x509.Certificate, PolicyErrors) {
	if len(cs.PeerCertificates) == 0 {
		return nil, nil, PolicyCertificateNotAvailable
	}
	leaf := cs.PeerCertificates[0]

	errs := PolicyNone
	if cs.ServerName != "" {
		if err := leaf.VerifyHostname(cs.ServerName); err != nil {
			v.log.Debug("Host name verification failed", "serverName", cs.ServerName, "error", err)
			errs |= PolicyNameMismatch
		}
	}

	intermediates := x509.NewCertPool()
	for _, c := range cs.PeerCertificates[1:] {
		intermediates.AddCert(c)
	}
	chains, err := leaf.Verify(x509.VerifyOptions{
		Roots:         v.roots,
		Intermediates: intermediates,
		CurrentTime:   v.now(),
	})
	if err != nil {
		v.log.Debug("Chain verification failed", "error", err)
		errs |= PolicyChainErrors
		return leaf, cs.PeerCertificates, errs
	}
	return leaf, chains[0], errs
}

func gracePeriodFromEnv(log *slog.Logger) int {
	raw, ok := os.LookupEnv(GracePeriodEnv)
	if !ok {
		return DefaultGracePeriodDays
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		log.Warn("Ignoring invalid certificate grace period", "env", GracePeriodEnv, "value", raw, "default", DefaultGracePeriodDays)
		return DefaultGracePeriodDays
	}
	return days
}
