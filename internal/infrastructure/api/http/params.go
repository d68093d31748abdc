package http

// URL parameter and header names shared between the router, middlewares and
// handlers.
const (
	UserIDParam     = "userID"
	TransferIDParam = "transferID"

	AdminIDHeader = "X-Admin-Id"
)

type contextKey string

// AdminIDContextKey carries the validated admin id from the admin middleware
// to the handlers.
const AdminIDContextKey contextKey = "adminID"
