// Package api exposes the plan index over a small JSON HTTP API built on fiber.
//
// Routes:
//
//	GET    /health
//	GET    /search?q=...&k=5&provider=Verizon
//	GET    /stats
//	GET    /providers/:provider/plans?limit=10
//	DELETE /providers/:provider/plans
//	POST   /ingest/:provider?refresh=true
//
// Errors are returned as {"error": "..."} with a status derived from the
// domain error kind.
package api
