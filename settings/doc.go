// Package settings loads the YAML settings file that configures query
// understanding, scoring, storage and the enhancer.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default. Environment variables are expanded before parsing, so
// secrets can stay out of the file:
//
//	enhancer:
//	  enabled: true
//	  host: http://localhost:11434
//	  model: qwen2.5:3b
//	  token: ${OPENAI_API_KEY}
//
// Watch reloads the file when it changes and hands every valid version to
// a callback.
package settings
