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

package api

import "time"

// TrackRequest reports the result of an availability test executed outside of the tracker
type TrackRequest struct {
	TestName  string    `json:"testName"`
	Success   bool      `json:"success"`
	StartTime time.Time `json:"startTime"`
	Message   string    `json:"message,omitempty"`
}

// CertificateReport is the expiration state of a server certificate
type CertificateReport struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Days    int    `json:"days"`
	Status  string `json:"status"`
	Healthy bool   `json:"healthy"`
}
