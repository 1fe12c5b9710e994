package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// jsonContentType is the only Content-Type that triggers JSON serialization
// of the request body. Any other explicit value sends the body verbatim.
const jsonContentType = "application/json"

// Doer performs a single HTTP exchange. It is the sole transport dependency
// of the client; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client builds URLs by accumulating path segments and dispatches requests.
//
// A Client is a value that is never mutated after construction: Path, Version
// and Header all return derived clients. Scalars (host, version, timeout,
// trailing-slash flag) are copied, the segment slice and header map are
// snapshotted, so derived clients never alias each other's state.
type Client struct {
	host        string
	version     int
	segments    []string
	headers     map[string]string
	appendSlash bool
	timeout     time.Duration
	doer        Doer
	logger      zerolog.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a root client for the given base host with the given
// options. The host must be an absolute base URL (e.g. https://api.example.com);
// it is not validated here, a malformed host surfaces as a transport error on
// the first request.
func NewClient(host string, options ...ClientOption) *Client {
	client := &Client{
		host:    host,
		headers: make(map[string]string),
		doer:    http.DefaultClient,
		logger:  zerolog.Nop(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithHeader sets a header applied to every request made through this client
// and its derivations.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders sets multiple headers at once.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithVersion sets the API version inserted into every URL (see BuildURL).
func WithVersion(version int) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// WithPath seeds the client with initial path segments.
func WithPath(segments ...string) ClientOption {
	return func(c *Client) {
		c.segments = append([]string(nil), segments...)
	}
}

// WithTrailingSlash makes every built URL end its path with a "/".
func WithTrailingSlash() ClientOption {
	return func(c *Client) {
		c.appendSlash = true
	}
}

// WithTimeout sets the default per-request timeout. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithDoer replaces the transport used to execute requests. The default is
// http.DefaultClient.
func WithDoer(doer Doer) ClientOption {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithLogger attaches a logger; requests are logged at debug level.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// derive returns a copy of the client with the given segments appended.
// The segment slice and header map are both fully copied so the receiver
// and the derived client never share backing storage.
func (c *Client) derive(segments ...string) *Client {
	derived := *c

	derived.segments = make([]string, 0, len(c.segments)+len(segments))
	derived.segments = append(derived.segments, c.segments...)
	derived.segments = append(derived.segments, segments...)

	derived.headers = make(map[string]string, len(c.headers))
	for key, value := range c.headers {
		derived.headers[key] = value
	}

	return &derived
}

// Path returns a new client with the given path segments appended, in order.
// The receiver is unchanged. Segments are inserted as-is; callers are
// responsible for escaping.
func (c *Client) Path(segments ...string) *Client {
	return c.derive(segments...)
}

// Version returns a new client with the API version set. The path is
// unchanged; "version" is not a segment. Pass 0 to clear the version.
func (c *Client) Version(version int) *Client {
	derived := c.derive()
	derived.version = version
	return derived
}

// Header returns a new client with one header set. The receiver's header
// set is unchanged.
func (c *Client) Header(key, value string) *Client {
	derived := c.derive()
	derived.headers[key] = value
	return derived
}

// Segments returns a copy of the accumulated path segments.
func (c *Client) Segments() []string {
	return append([]string(nil), c.segments...)
}

// BuildURL assembles the final request URL from the host, the accumulated
// path segments and the given query parameters.
//
// Query parameter keys are sorted lexicographically, so the output is
// deterministic regardless of map iteration order. If a version is set the
// URL takes the form host + "/v" + version + path.
func (c *Client) BuildURL(queryParams map[string]string) string {
	var path string
	for _, segment := range c.segments {
		path += "/" + segment
	}

	if c.appendSlash {
		path += "/"
	}

	if len(queryParams) > 0 {
		values := make(url.Values, len(queryParams))
		for key, value := range queryParams {
			values.Set(key, value)
		}
		// Encode sorts by key.
		path += "?" + values.Encode()
	}

	if c.version != 0 {
		return c.host + "/v" + strconv.Itoa(c.version) + path
	}
	return c.host + path
}

// requestConfig collects the per-call options accepted by the verb methods.
type requestConfig struct {
	headers     map[string]string
	body        interface{}
	hasBody     bool
	queryParams map[string]string
	timeout     time.Duration
	hasTimeout  bool
}

// RequestOption is a function that configures a single request
type RequestOption func(*requestConfig)

// WithRequestHeader adds a header for this request only. It is merged over
// the client's headers into a call-local set; the client is not modified.
func WithRequestHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = make(map[string]string)
		}
		rc.headers[key] = value
	}
}

// WithRequestHeaders adds multiple headers for this request only.
func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = make(map[string]string, len(headers))
		}
		for key, value := range headers {
			rc.headers[key] = value
		}
	}
}

// WithBody sets the request body.
//
// With no Content-Type header set, or with Content-Type exactly
// "application/json", the body is serialized as JSON (and the header is set
// if absent). With any other Content-Type the body is sent verbatim and must
// be a string or []byte.
func WithBody(body interface{}) RequestOption {
	return func(rc *requestConfig) {
		rc.body = body
		rc.hasBody = true
	}
}

// WithQueryParam adds one query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.queryParams == nil {
			rc.queryParams = make(map[string]string)
		}
		rc.queryParams[key] = value
	}
}

// WithQueryParams adds multiple query parameters.
func WithQueryParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.queryParams == nil {
			rc.queryParams = make(map[string]string, len(params))
		}
		for key, value := range params {
			rc.queryParams[key] = value
		}
	}
}

// WithRequestTimeout overrides the client's timeout for this request only.
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(rc *requestConfig) {
		rc.timeout = timeout
		rc.hasTimeout = true
	}
}

// Get performs a GET request on the accumulated path.
func (c *Client) Get(ctx context.Context, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, options)
}

// Post performs a POST request on the accumulated path.
func (c *Client) Post(ctx context.Context, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, options)
}

// Put performs a PUT request on the accumulated path.
func (c *Client) Put(ctx context.Context, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, options)
}

// Patch performs a PATCH request on the accumulated path.
func (c *Client) Patch(ctx context.Context, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, options)
}

// Delete performs a DELETE request on the accumulated path.
func (c *Client) Delete(ctx context.Context, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, options)
}

// do is the single execution point shared by all verbs: it merges headers,
// encodes the body, builds the URL, performs the exchange and classifies
// the outcome.
func (c *Client) do(ctx context.Context, method string, options []RequestOption) (*Response, error) {
	var rc requestConfig
	for _, option := range options {
		option(&rc)
	}

	// Call-local header set: client headers first, request headers over them.
	headers := make(map[string]string, len(c.headers)+len(rc.headers))
	for key, value := range c.headers {
		headers[key] = value
	}
	for key, value := range rc.headers {
		headers[key] = value
	}

	body, err := encodeBody(&rc, headers)
	if err != nil {
		return nil, err
	}

	requestURL := c.BuildURL(rc.queryParams)

	timeout := c.timeout
	if rc.hasTimeout {
		timeout = rc.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: "request", URL: requestURL, Err: err}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", requestURL).
		Int("body_bytes", len(body)).
		Msg("performing request")

	httpResp, err := c.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "request", URL: requestURL, Err: err}
	}
	defer httpResp.Body.Close()

	// The status line is known here, but classification waits until the
	// body has been fully read: errors carry the complete raw body.
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", URL: requestURL, Err: err}
	}

	if !utf8.Valid(raw) {
		return nil, &TransportError{Op: "decode", URL: requestURL, Err: ErrInvalidEncoding}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", requestURL).
		Int("status", httpResp.StatusCode).
		Msg("request complete")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, classify(&HTTPError{
			StatusCode: httpResp.StatusCode,
			Body:       string(raw),
			Headers:    httpResp.Header,
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       string(raw),
		Headers:    httpResp.Header,
	}, nil
}

// encodeBody serializes the request body per the Content-Type rule. It may
// add a Content-Type entry to headers when defaulting to JSON.
func encodeBody(rc *requestConfig, headers map[string]string) ([]byte, error) {
	if !rc.hasBody {
		return nil, nil
	}

	contentType, hasContentType := headers["Content-Type"]
	if hasContentType && contentType != jsonContentType {
		// An explicit non-JSON Content-Type means the caller already
		// formatted the payload; send it untouched.
		switch body := rc.body.(type) {
		case string:
			return []byte(body), nil
		case []byte:
			return body, nil
		default:
			return nil, fmt.Errorf("rest: body must be string or []byte when Content-Type is %q", contentType)
		}
	}

	encoded, err := json.Marshal(rc.body)
	if err != nil {
		return nil, fmt.Errorf("rest: encoding request body: %w", err)
	}
	if !hasContentType {
		headers["Content-Type"] = jsonContentType
	}
	return encoded, nil
}

// isTimeout reports whether a transport failure was caused by the per-call
// deadline rather than the connection itself.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
