package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
)

// Authorization scheme
const BearerScheme = "Bearer"

// Common HTTP Error Messages
const (
	MsgUnauthorized   = "Unauthorized"
	MsgInvalidToken   = "Invalid or expired token"
	MsgForbidden      = "Access forbidden"
	MsgNotFound       = "Resource not found"
	MsgBadRequest     = "Invalid request"
	MsgInternalError  = "Internal server error"
	MsgTooManyRequest = "Rate limit exceeded"
)

// HTTP Success Messages
const (
	MsgLogoutSuccess    = "Déconnexion réussie"
	MsgRecordingDeleted = "Time recording deleted successfully"
	MsgPasswordUpdated  = "Password updated successfully"
)
