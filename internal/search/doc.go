// Package search builds wallhaven search requests and aggregates results
// across pages into a single ordered result set.
package search
