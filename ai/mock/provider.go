// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import "github.com/poiesic/taskquery/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	enhancer *MockEnhancer
	closed   bool
}

// NewMockProvider creates a new mock provider with a default mock enhancer.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEnhancer() to access the concrete type for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{enhancer: NewMockEnhancer()}
}

// NewMockProviderWithEnhancer creates a mock provider around a custom enhancer.
func NewMockProviderWithEnhancer(enhancer *MockEnhancer) ai.Provider {
	return &MockProvider{enhancer: enhancer}
}

// Enhancer returns the mock enhancer.
func (p *MockProvider) Enhancer() ai.Enhancer {
	return p.enhancer
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEnhancer returns the underlying mock enhancer for test assertions.
func (p *MockProvider) GetMockEnhancer() *MockEnhancer {
	return p.enhancer
}
