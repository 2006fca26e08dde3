package reliability

import "strconv"

// StatusClassTransport labels deliveries that never produced an HTTP response.
const StatusClassTransport = "transport_error"

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// StatusClass buckets a status code as "2xx", "4xx" and so on.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
