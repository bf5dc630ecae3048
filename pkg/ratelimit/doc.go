// Package ratelimit provides a daily request budget for engines that
// call metered external backends.
//
// The limiter tracks a fixed daily allowance minus a safety buffer
// reserved for manual or emergency use. Acquire consumes one unit of
// the allowance; Release refunds one after a failed request so a
// backend outage does not burn the day's budget.
package ratelimit
