// Package terms resolves the vocabulary used to recognize task properties
// in queries: priority words, named dates and status categories.
//
// Resolve merges user configuration over built-in multilingual tables and
// returns an immutable *Config. Configuration problems such as an alias
// claimed by two categories never fail resolution; they are reported as
// warnings and settled by first registration.
package terms
