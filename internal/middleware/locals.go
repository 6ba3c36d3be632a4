package middleware

// Keys under which the middleware chain stores request-scoped values in fiber locals.
const (
	LocalUserID        = "user_id"
	LocalUserRole      = "user_role"
	LocalCorrelationID = "correlation_id"
)
