package rest

import (
	"encoding/json"
	"net/http"
)

// Response holds the result of one completed, successful HTTP exchange.
// It is immutable after construction.
type Response struct {
	StatusCode int
	Body       string
	Headers    http.Header
}

// JSON parses the body as JSON and returns the decoded value. An empty body
// yields (nil, nil); a non-empty body that is not valid JSON yields a
// *ParseError. The body is parsed fresh on each call.
func (r *Response) JSON() (interface{}, error) {
	if r.Body == "" {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(r.Body), &decoded); err != nil {
		return nil, &ParseError{Err: err}
	}
	return decoded, nil
}

// Decode unmarshals the body into the provided value.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal([]byte(r.Body), v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// Header returns the value of the specified response header.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}
