// Package api is the HTTP surface of the library service.
//
// Routes live under /api and require a bearer token, except the payment redirect targets,
// /healthz and /metrics. Write operations are delegated to the command handlers of the feature
// slices, list endpoints to the query handlers; plain catalog CRUD talks to the store directly.
//
// List responses have the shape {"count": n, "results": [...]} and accept limit and offset.
// Failures are rendered as {"error": "..."} with a status code derived from the error taxonomy.
package api
