// Package rest provides a dynamically-addressable REST client built around
// URL path chaining.
//
// A Client is rooted at a base host. Each call to Path derives a new Client
// with one or more path segments appended; the receiver is never modified,
// so a single root can fan out into many endpoint-specific clients. A chain
// ends with a verb method (Get, Post, Put, Patch, Delete) that builds the
// final URL, serializes the request, performs it, and wraps the result.
//
// Basic Usage:
//
//	client := rest.NewClient("https://api.example.com",
//	    rest.WithHeader("Authorization", "Bearer token"),
//	    rest.WithTimeout(30*time.Second),
//	)
//
//	resp, err := client.Path("users", "42", "profile").Get(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Status: %d\n", resp.StatusCode)
//
// Versioned API Example:
//
//	// Requests go to https://api.example.com/v3/users
//	users := rest.NewClient("https://api.example.com").Version(3).Path("users")
//
//	resp, err := users.Post(context.Background(),
//	    rest.WithBody(map[string]string{"name": "ada"}),
//	)
//
// Error Handling:
//
// Non-2xx responses are returned as classified errors. Callers branch on the
// specific kind with errors.As:
//
//	resp, err := users.Path("42").Get(ctx)
//	var notFound *rest.NotFoundError
//	if errors.As(err, &notFound) {
//	    // 404: notFound.Body holds the raw response body
//	}
//
// Thread Safety:
//
// A Client is immutable after construction. Deriving clients and performing
// requests from multiple goroutines is safe; each derivation snapshots the
// header set, so no two clients share mutable state.
package rest
