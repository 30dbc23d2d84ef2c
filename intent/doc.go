// Package intent builds the QueryIntent for a raw query.
//
// Analyze runs the deterministic extractor. Merge combines its result with
// an optional enhancer result: enhancer properties win when present and
// usable, enhancer keywords replace the deterministic ones only when some
// survive cleaning, and CoreKeywords always keeps the deterministic list.
//
// Parser ties the steps together for every mode. Simple mode never calls
// the enhancer. Smart and Chat modes call it once within a timeout budget,
// optionally retrying provider and malformed-response failures, and fall
// back to the deterministic intent when it fails.
package intent
