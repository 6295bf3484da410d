package logx

const (
	FieldAppName         = "app-name"
	FieldAppVersion      = "app-version"
	FieldDurationMs      = "duration-ms"
	FieldError           = "error"
	FieldHTTPMethod      = "http-method"
	FieldHTTPRequest     = "http-request"
	FieldHTTPResponse    = "http-response"
	FieldIP              = "ip"
	FieldRequestBody     = "request-body"
	FieldResponseBody    = "response-body"
	FieldResponseHeaders = "response-headers"
	FieldResponseStatus  = "response-status"
	FieldStack           = "stack"
	FieldTraceID         = "trace-id"
	FieldURL             = "url"

	FieldPriceKey   = "price-key"
	FieldPriceValue = "price-value"
	FieldState      = "state"
	FieldTick       = "tick"
	FieldDeleted    = "deleted"
	FieldStorage    = "storage"
)
