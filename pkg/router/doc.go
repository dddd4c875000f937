// Package router assembles the HTTP surface: /auth, /roles, /users and
// /healthz on a chi router with request id, real ip, logging, recovery,
// timeout, CORS and per-IP rate limits on the credential endpoints.
package router
