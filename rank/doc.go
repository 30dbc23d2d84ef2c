// Package rank scores filtered tasks and orders them.
//
// A task's final score is
//
//	relevance*Wr + dueDate*Wd + priority*Wp + status*Ws
//
// where relevance is the share of query keywords found in the task text
// plus a bonus for the user's literal (core) keywords, dueDate and priority
// are step functions over configurable buckets, and status is the weight
// of the task's status category. Ws defaults to zero.
package rank
