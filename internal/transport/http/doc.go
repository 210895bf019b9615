// Package http implements the HTTP handlers of the regpulse API. Handlers
// stay thin: they parse query parameters into a domain.Filter, call the
// service layer and render the result.
//
// # Routes
//
//	GET  /api/v1/dimensions   selectable years, categories and manufacturers
//	GET  /api/v1/filter       the default dashboard filter
//	GET  /api/v1/aggregate    aggregated registrations (?freq=M|Q|Y)
//	GET  /api/v1/trend        monthly series with YoY and QoQ growth
//	GET  /api/v1/quarterly    quarterly totals with QoQ growth
//	GET  /api/v1/summary      headline figures
//	GET  /api/v1/insights     top manufacturers and category mix shift
//	GET  /api/v1/dashboard    all of the above for one filter
//	POST /api/v1/analyze      dashboard of an uploaded file
//	GET  /api/health          health, readiness (/ready) and liveness (/live)
//	GET  /metrics             Prometheus metrics
//
// # Query Parameters
//
// Filters are read from from, to, category, manufacturer and view.
// category and manufacturer may repeat. Parameters that are not given fall
// back to the default filter of the loaded dataset; manufacturer=* lifts
// the manufacturer restriction. format selects json (default), csv or xlsx.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and carry the request's
// trace_id:
//
//	{
//	  "type": "/errors/data/invalid",
//	  "title": "Invalid Dataset",
//	  "status": 422,
//	  "detail": "...",
//	  "trace_id": "..."
//	}
package http
