package constants

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// Context Keys for request tracking and metadata
const (
	CtxKeyRequestID ContextKey = "request_id"
	CtxKeyUserID    ContextKey = "user_id"
	CtxKeyIdentity  ContextKey = "identity"
	CtxKeyClientIP  ContextKey = "client_ip"
	CtxKeyUserAgent ContextKey = "user_agent"
	CtxKeyStartTime ContextKey = "start_time"
	CtxKeyModule    ContextKey = "module"
	CtxKeyFunction  ContextKey = "function"
)

// Gin context keys set by the authentication middleware
const (
	GinKeyUserID   = "user_id"
	GinKeyEmail    = "email"
	GinKeyRole     = "role"
	GinKeyIdentity = "identity"
)

// GinKeyPayload holds a request body already decoded and validated by
// the validation middleware.
const GinKeyPayload = "validated_payload"
