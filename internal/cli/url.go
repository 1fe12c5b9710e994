package cli

import (
	"fmt"
	"net/url"
	"strings"
)

// parseURL splits a URL into base URL and path segments. The query string is
// returned separately so it can be fed through the client's sorted encoder.
func parseURL(fullURL string) (base string, segments []string, query map[string]string) {
	// Add scheme if missing
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return fullURL, nil, nil
	}

	base = fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	// Include user info in the base URL if present
	if parsedURL.User != nil {
		base = fmt.Sprintf("%s://%s@%s", parsedURL.Scheme, parsedURL.User.String(), parsedURL.Host)
	}

	segments = splitSegments(parsedURL.Path)

	if parsedURL.RawQuery != "" {
		query = make(map[string]string)
		for key, values := range parsedURL.Query() {
			if len(values) > 0 {
				query[key] = values[0]
			}
		}
	}

	return base, segments, query
}

// splitSegments splits a URL path into its non-empty segments.
func splitSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// parseHeaders parses repeated "Key: Value" flags into a header map.
func parseHeaders(flags []string) map[string]string {
	headers := make(map[string]string, len(flags))
	for _, header := range flags {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}

// parseParams parses repeated "key=value" flags into a query-parameter map.
func parseParams(flags []string) map[string]string {
	params := make(map[string]string, len(flags))
	for _, param := range flags {
		parts := strings.SplitN(param, "=", 2)
		if len(parts) == 2 {
			params[parts[0]] = parts[1]
		}
	}
	return params
}

// isAbsoluteURL reports whether a URL carries its own scheme.
func isAbsoluteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
