// Package fetch performs the blocking HTTP GETs used by search, thumbnail
// and download code. It classifies failures with goerr tags and can
// optionally guard a host with a circuit breaker.
package fetch
