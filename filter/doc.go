// Package filter turns a QueryIntent into a predicate over tasks.
//
// Each present property contributes one test and the tests are combined
// with And. Due dates compare at day granularity. Relative durations used
// alone select the span between today and the offset ("7d" is the coming
// week, "-2w" the past two weeks); used as a range bound they name a single
// day. Named dates such as "this week" always select their whole window,
// so "before next week" ends the day before next Monday.
package filter
