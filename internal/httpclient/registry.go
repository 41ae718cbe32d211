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

package httpclient

import (
	"fmt"
	"slices"
	"sync"
)

// Provider hands out clients by their logical name
type Provider interface {
	// Client returns the client registered under name or
	// an error wrapping ErrClientNotRegistered.
	Client(name string) (*Client, error)
}

var _ Provider = (*Registry)(nil)

// Registry is a Provider which is safe for concurrent use
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients: map[string]*Client{},
	}
}

// Register creates a client from the options and stores it under name.
// A client registered under the same name before is replaced.
func (r *Registry) Register(name string, opts Options) error {
	if name == "" {
		return fmt.Errorf("http client name must not be empty")
	}
	c, err := New(name, opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = c
	return nil
}

// Client returns the client registered under name
func (r *Registry) Client(name string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrClientNotRegistered, name)
	}
	return c, nil
}

// Names returns the sorted names of all registered clients
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
