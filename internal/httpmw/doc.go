// Package httpmw provides HTTP middleware for the gateway's public listener.
//
// Middleware is composed in a specific order in httpserver.NewHandler:
// security headers, request ID, client IP extraction, rate limiting,
// OTEL tracing, metrics, structured logging, and chi router.
//
// Each middleware is an independent function that can be tested, reordered,
// or removed individually. Credentials and cookie values are intentionally
// excluded from logs.
package httpmw
