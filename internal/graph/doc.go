// Package graph is the Microsoft Graph client used by rostersync.
//
// This package provides:
//   - OAuth2 client-credentials token management with expiry caching
//   - Paginated listing of users, contact folders, and contacts
//   - Batch request building and chunked $batch execution
//   - Rate limiting and error handling for Graph API responses
//
// All calls target a single tenant. The token endpoint is
// https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token and the
// scope is fixed to https://graph.microsoft.com/.default (full
// application access, no refresh-token flow).
//
// # Batch envelope
//
// Mutating contact operations go through POST /$batch. One envelope
// carries up to 20 sub-requests, each with a correlation id, method,
// relative URL, and optional headers/body. The response carries one
// correlated sub-response per request, each with its own status and
// body. A failing sub-response inside a successful envelope is data for
// the caller to interpret, not an error.
package graph
