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

// Package ai provides the abstraction for the optional semantic query
// enhancer.
//
// An Enhancer reads a raw query and returns a PartialParsedQuery: expanded
// keywords plus any properties the model recognized. Every field of the
// partial result is optional. Failures are reported as *Failure values
// carrying a FailureKind, so callers can tell a timeout from a malformed
// response and decide whether to retry.
//
// # Implementation Packages
//
//   - ai/openai: implementation using OpenAI-compatible chat APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public production constructors return interface types. Mock constructors
// return concrete types so tests can inject behavior and read call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	partial, err := provider.Enhancer().Enhance(ctx, "urgent login bugs", []string{"en"}, config.Timeout)
package ai
