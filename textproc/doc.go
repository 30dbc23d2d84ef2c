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

// Package textproc provides language-aware tokenizing and stop-word filtering.
//
// Tokenize is a pure function that picks one of a small closed set of
// strategies from a language hint:
//
//   - StrategyWhitespace splits on whitespace and punctuation.
//   - StrategyCluster splits scripts written without spaces (Chinese, Japanese)
//     into non-overlapping two-character clusters.
//   - StrategyAuto decides per run of text, by script.
//
// FilterStopWords removes tokens that carry no information in any of the
// configured languages.
package textproc
