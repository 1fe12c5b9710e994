package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		client   *Client
		params   map[string]string
		expected string
	}{
		{
			name:     "No segments",
			client:   NewClient("https://api.example.com"),
			expected: "https://api.example.com",
		},
		{
			name:     "Single segment",
			client:   NewClient("https://api.example.com").Path("users"),
			expected: "https://api.example.com/users",
		},
		{
			name:     "Chained segments",
			client:   NewClient("https://api.example.com").Path("users").Path("42", "profile"),
			expected: "https://api.example.com/users/42/profile",
		},
		{
			name:     "Trailing slash",
			client:   NewClient("https://api.example.com", WithTrailingSlash()).Path("users"),
			expected: "https://api.example.com/users/",
		},
		{
			name:     "Trailing slash with no segments",
			client:   NewClient("https://api.example.com", WithTrailingSlash()),
			expected: "https://api.example.com/",
		},
		{
			name:     "Version with no path",
			client:   NewClient("https://api.example.com").Version(3),
			expected: "https://api.example.com/v3",
		},
		{
			name:     "Version with path",
			client:   NewClient("https://api.example.com").Version(3).Path("mail", "send"),
			expected: "https://api.example.com/v3/mail/send",
		},
		{
			name:     "Version is not a reserved segment name",
			client:   NewClient("https://api.example.com").Path("version"),
			expected: "https://api.example.com/version",
		},
		{
			name:     "Query parameters",
			client:   NewClient("https://api.example.com").Path("users"),
			params:   map[string]string{"limit": "10"},
			expected: "https://api.example.com/users?limit=10",
		},
		{
			name:     "Query parameters are encoded",
			client:   NewClient("https://api.example.com").Path("search"),
			params:   map[string]string{"q": "a b&c"},
			expected: "https://api.example.com/search?q=a+b%26c",
		},
		{
			name:     "Query parameters with version and slash",
			client:   NewClient("https://api.example.com", WithTrailingSlash()).Version(2).Path("users"),
			params:   map[string]string{"page": "1"},
			expected: "https://api.example.com/v2/users/?page=1",
		},
		{
			name:     "Empty params map is the same as no params",
			client:   NewClient("https://api.example.com").Path("users"),
			params:   map[string]string{},
			expected: "https://api.example.com/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.client.BuildURL(tt.params)
			if got != tt.expected {
				t.Errorf("BuildURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildURL_SortsQueryKeys(t *testing.T) {
	client := NewClient("https://api.example.com").Path("users")

	expected := "https://api.example.com/users?a=1&b=2&c=3"

	// Build repeatedly so unstable map iteration order would show up.
	for i := 0; i < 50; i++ {
		got := client.BuildURL(map[string]string{"c": "3", "a": "1", "b": "2"})
		if got != expected {
			t.Fatalf("BuildURL() = %q, want %q", got, expected)
		}
	}
}

func TestPath_DoesNotMutateReceiver(t *testing.T) {
	root := NewClient("https://api.example.com").Path("api")

	b := root.Path("x")
	c := root.Path("y")

	if got := root.BuildURL(nil); got != "https://api.example.com/api" {
		t.Errorf("receiver path changed: %q", got)
	}
	if got := b.BuildURL(nil); got != "https://api.example.com/api/x" {
		t.Errorf("first derivation = %q", got)
	}
	if got := c.BuildURL(nil); got != "https://api.example.com/api/y" {
		t.Errorf("second derivation = %q", got)
	}
}

func TestSegments_ReturnsCopy(t *testing.T) {
	client := NewClient("https://api.example.com").Path("users", "42")

	segments := client.Segments()
	segments[0] = "mutated"

	if got := client.BuildURL(nil); got != "https://api.example.com/users/42" {
		t.Errorf("mutating the Segments copy changed the client: %q", got)
	}
}

func TestHeader_SnapshotIsolation(t *testing.T) {
	root := NewClient("https://api.example.com", WithHeader("Accept", "application/json"))

	derived := root.Header("Authorization", "Bearer token")

	// The derivation sees both headers, the root only its own.
	if derived.headers["Accept"] != "application/json" {
		t.Error("derived client lost the root header")
	}
	if derived.headers["Authorization"] != "Bearer token" {
		t.Error("derived client missing its own header")
	}
	if _, ok := root.headers["Authorization"]; ok {
		t.Error("root client was mutated by derivation")
	}

	// Siblings never see each other's headers.
	sibling := root.Header("X-Other", "1")
	if _, ok := sibling.headers["Authorization"]; ok {
		t.Error("sibling clients share header state")
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected method GET, got %s", r.Method)
		}
		if r.URL.Path != "/users/42" {
			t.Errorf("Expected path /users/42, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("Expected Authorization header, got %q", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":42}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHeader("Authorization", "Bearer token"))

	resp, err := client.Path("users", "42").Get(context.Background())
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Body != `{"id":42}` {
		t.Errorf("Expected body %q, got %q", `{"id":42}`, resp.Body)
	}
	if resp.Header("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type header, got %q", resp.Header("Content-Type"))
	}
}

func TestClient_QueryParamsSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "limit=10&offset=20" {
			t.Errorf("Expected sorted query, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL).Path("users")

	_, err := client.Get(context.Background(),
		WithQueryParam("offset", "20"),
		WithQueryParam("limit", "10"),
	)
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}
}

func TestClient_BodyEncodingDefaultJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("Expected body %q, got %q", `{"a":1}`, string(body))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL).Path("things")

	// No Content-Type set: the body is serialized as JSON and the header
	// is added automatically.
	resp, err := client.Post(context.Background(), WithBody(map[string]int{"a": 1}))
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, resp.StatusCode)
	}
}

func TestClient_BodyEncodingVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("Expected Content-Type text/plain, got %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "raw" {
			t.Errorf("Expected body %q, got %q", "raw", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL).Path("things")

	// A non-JSON Content-Type disables serialization: the payload is sent
	// exactly as given, with no JSON quoting.
	_, err := client.Post(context.Background(),
		WithRequestHeader("Content-Type", "text/plain"),
		WithBody("raw"),
	)
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}
}

func TestClient_BodyEncodingJSONLiteralContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("Expected serialized body, got %q", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHeader("Content-Type", "application/json"))

	_, err := client.Path("things").Post(context.Background(), WithBody(map[string]int{"a": 1}))
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}
}

func TestClient_BodyEncodingRejectsNonText(t *testing.T) {
	client := NewClient("https://api.example.com").Path("things")

	// A struct cannot be sent verbatim under a non-JSON Content-Type.
	_, err := client.Post(context.Background(),
		WithRequestHeader("Content-Type", "text/plain"),
		WithBody(map[string]int{"a": 1}),
	)
	if err == nil {
		t.Fatal("Expected an error for a non-text body with text/plain")
	}
}

func TestClient_RequestHeadersDoNotLeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Get(context.Background(), WithRequestHeader("X-Once", "1"))
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	// The per-call merge must not have touched the client's own headers.
	if _, ok := client.headers["X-Once"]; ok {
		t.Error("per-call header leaked into the client header set")
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such user"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL).Path("users", "999")

	resp, err := client.Get(context.Background())
	if resp != nil {
		t.Error("Expected no response for a 404")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected *NotFoundError, got %T: %v", err, err)
	}
	if notFound.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", notFound.StatusCode)
	}
	if notFound.Body != `{"error":"no such user"}` {
		t.Errorf("Expected the raw body to be preserved, got %q", notFound.Body)
	}

	// The generic kind is reachable through Unwrap.
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Error("Expected *HTTPError to be reachable via errors.As")
	}
}

func TestClient_EmptyBodyNon2xxStillClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Get(context.Background())

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected *ServerError, got %T: %v", err, err)
	}
	if serverErr.Body != "" {
		t.Errorf("Expected empty body, got %q", serverErr.Body)
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(time.Minute))

	// The per-call override wins over the client timeout.
	_, err := client.Get(context.Background(), WithRequestTimeout(20*time.Millisecond))

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if !transportErr.Timeout() {
		t.Errorf("Expected a timeout error, got %v", transportErr)
	}
}

func TestClient_InvalidUTF8Body(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Get(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Op != "decode" {
		t.Errorf("Expected Op decode, got %q", transportErr.Op)
	}
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Error("Expected ErrInvalidEncoding as the cause")
	}
}

func TestClient_AllVerbs(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL).Path("resource")
	ctx := context.Background()

	verbs := []struct {
		name string
		call func() (*Response, error)
	}{
		{"GET", func() (*Response, error) { return client.Get(ctx) }},
		{"POST", func() (*Response, error) { return client.Post(ctx) }},
		{"PUT", func() (*Response, error) { return client.Put(ctx) }},
		{"PATCH", func() (*Response, error) { return client.Patch(ctx) }},
		{"DELETE", func() (*Response, error) { return client.Delete(ctx) }},
	}

	for _, verb := range verbs {
		t.Run(verb.name, func(t *testing.T) {
			if _, err := verb.call(); err != nil {
				t.Fatalf("Error executing request: %v", err)
			}
			if gotMethod != verb.name {
				t.Errorf("Expected method %s, got %s", verb.name, gotMethod)
			}
		})
	}
}

func TestClient_ConcurrentDerivedCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	root := NewClient(server.URL, WithHeader("Accept", "application/json"))

	// Sibling clients with per-call headers must not race: run under -race.
	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			c := root.Path("users").Header("X-Worker", "w")
			_, err := c.Get(context.Background(), WithRequestHeader("X-Call", "1"))
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent request failed: %v", err)
		}
	}
}
