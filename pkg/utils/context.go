package utils

type ContextKey string

const (
	CompanyKey   ContextKey = "company"
	ChannelKey   ContextKey = "channel"
	RequestIDKey ContextKey = "request_id"
	SubjectKey   string     = "sub"
	ExpKey       string     = "exp"
)
