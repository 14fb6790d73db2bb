package request

// HTTPError is a non-2xx answer from a remote endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}
