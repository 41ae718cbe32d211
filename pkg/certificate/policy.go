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

import "strings"

// PolicyErrors describes why a peer certificate failed verification.
// The zero value means the certificate passed all checks.
type PolicyErrors uint8

const (
	// PolicyNone means no policy was violated
	PolicyNone PolicyErrors = 0
	// PolicyCertificateNotAvailable means the peer presented no certificate
	PolicyCertificateNotAvailable PolicyErrors = 1 << (iota - 1)
	// PolicyNameMismatch means the certificate is not valid for the requested host
	PolicyNameMismatch
	// PolicyChainErrors means no trusted chain could be built for the certificate
	PolicyChainErrors
)

var policyNames = []struct {
	flag PolicyErrors
	name string
}{
	{PolicyCertificateNotAvailable, "CertificateNotAvailable"},
	{PolicyNameMismatch, "NameMismatch"},
	{PolicyChainErrors, "ChainErrors"},
}

// Has returns true if all flags of f are set
func (p PolicyErrors) Has(f PolicyErrors) bool {
	return p&f == f
}

// String renders the set flags comma separated, "None" if no flag is set
func (p PolicyErrors) String() string {
	if p == PolicyNone {
		return "None"
	}
	var names []string
	for _, n := range policyNames {
		if p.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ", ")
}
