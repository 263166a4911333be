package constants

const (
	HeaderUserIDKey    = "X-User-ID"
	HeaderRequestIDKey = "X-Request-ID"
)
