package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reach-http/reach/internal/config"
	"github.com/reach-http/reach/internal/output"
	"github.com/reach-http/reach/pkg/jsonpath"
	"github.com/reach-http/reach/pkg/jsonschema"
	"github.com/reach-http/reach/rest"
)

// requestFlags holds the per-invocation options shared by every verb command.
type requestFlags struct {
	headers       []string
	params        []string
	data          string
	contentType   string
	apiVersion    int
	trailingSlash bool
	timeout       time.Duration
	verbose       bool
	noColor       bool
	extract       string
	schema        string
}

// registerRequestFlags adds the shared flag set to a verb command.
func registerRequestFlags(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	cmd.Flags().StringArrayP("query", "q", []string{}, "Query parameters as key=value (can be used multiple times)")
	cmd.Flags().IntP("api-version", "V", 0, "API version inserted into the URL as /v<n>")
	cmd.Flags().Bool("trailing-slash", false, "Append a trailing slash to the URL path")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "Request timeout")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().String("extract", "", "JSONPath expression to extract from the response body")
	cmd.Flags().String("schema", "", "JSON Schema file to validate the response body against")
	if withBody {
		cmd.Flags().StringP("data", "d", "", "Request body (use @file to read from a file)")
		cmd.Flags().String("content-type", "", "Content-Type for the request body")
	}
}

// collectRequestFlags reads the shared flag set back from a command.
func collectRequestFlags(cmd *cobra.Command) requestFlags {
	var flags requestFlags
	flags.headers, _ = cmd.Flags().GetStringArray("header")
	flags.params, _ = cmd.Flags().GetStringArray("query")
	flags.apiVersion, _ = cmd.Flags().GetInt("api-version")
	flags.trailingSlash, _ = cmd.Flags().GetBool("trailing-slash")
	flags.timeout, _ = cmd.Flags().GetDuration("timeout")
	flags.verbose, _ = cmd.Flags().GetBool("verbose")
	flags.noColor, _ = cmd.Flags().GetBool("no-color")
	flags.extract, _ = cmd.Flags().GetString("extract")
	flags.schema, _ = cmd.Flags().GetString("schema")
	if cmd.Flags().Lookup("data") != nil {
		flags.data, _ = cmd.Flags().GetString("data")
		flags.contentType, _ = cmd.Flags().GetString("content-type")
	}
	return flags
}

// executeVerb performs one verb invocation end to end: build the client from
// the URL argument and flags, dispatch, format, and optionally extract or
// validate the response body.
func executeVerb(cmd *cobra.Command, verb string, rawURL string) {
	flags := collectRequestFlags(cmd)
	logger := newLogger(flags.verbose)

	base, segments, query := parseURL(rawURL)

	clientOptions := []rest.ClientOption{
		rest.WithPath(segments...),
		rest.WithTimeout(flags.timeout),
		rest.WithLogger(logger),
	}
	if flags.apiVersion > 0 {
		clientOptions = append(clientOptions, rest.WithVersion(flags.apiVersion))
	}
	if flags.trailingSlash {
		clientOptions = append(clientOptions, rest.WithTrailingSlash())
	}
	client := rest.NewClient(base, clientOptions...)

	// Query parameters from the URL itself and from -q flags, merged with
	// the flags taking precedence.
	params := config.MergeVars(query, parseParams(flags.params))

	var requestOptions []rest.RequestOption
	headers := parseHeaders(flags.headers)
	if len(headers) > 0 {
		requestOptions = append(requestOptions, rest.WithRequestHeaders(headers))
	}
	if len(params) > 0 {
		requestOptions = append(requestOptions, rest.WithQueryParams(params))
	}

	var body string
	if flags.data != "" {
		var err error
		body, err = readBodyArg(flags.data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		contentType := flags.contentType
		if contentType == "" {
			contentType = headers["Content-Type"]
		}
		if flags.contentType != "" {
			requestOptions = append(requestOptions, rest.WithRequestHeader("Content-Type", flags.contentType))
		}
		prepared, err := prepareBody(body, contentType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		requestOptions = append(requestOptions, rest.WithBody(prepared))
	}

	formatter := output.NewFormatter(flags.verbose, flags.noColor)

	fmt.Print(formatter.FormatRequest(verb, client.BuildURL(params), headers, body))

	start := time.Now()
	resp, err := dispatch(context.Background(), client, verb, requestOptions)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprint(os.Stderr, formatter.FormatError(err, elapsed))
		os.Exit(1)
	}

	fmt.Print(formatter.FormatResponse(resp, elapsed))

	if flags.schema != "" {
		if err := validateSchema(resp, flags.schema, formatter); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if flags.extract != "" {
		value, err := jsonpath.Extract(resp.Body, flags.extract)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(value)
	}
}

// dispatch routes a verb name to the matching terminal operation.
func dispatch(ctx context.Context, client *rest.Client, verb string, options []rest.RequestOption) (*rest.Response, error) {
	switch strings.ToUpper(verb) {
	case "GET":
		return client.Get(ctx, options...)
	case "POST":
		return client.Post(ctx, options...)
	case "PUT":
		return client.Put(ctx, options...)
	case "PATCH":
		return client.Patch(ctx, options...)
	case "DELETE":
		return client.Delete(ctx, options...)
	default:
		return nil, fmt.Errorf("unsupported verb: %s", verb)
	}
}

// prepareBody converts raw body text into the value handed to the client.
//
// Under an absent or application/json content type the text must already be
// valid JSON and is passed through untouched as json.RawMessage; serializing
// it as a Go string would transmit a quoted JSON string instead of the
// document. Any other content type sends the text verbatim.
func prepareBody(body, contentType string) (interface{}, error) {
	if contentType != "" && contentType != "application/json" {
		return body, nil
	}
	if !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("request body is not valid JSON (set --content-type for non-JSON payloads)")
	}
	return json.RawMessage(body), nil
}

// readBodyArg resolves a --data argument, reading from a file when the value
// starts with "@".
func readBodyArg(data string) (string, error) {
	if !strings.HasPrefix(data, "@") {
		return data, nil
	}
	content, err := os.ReadFile(strings.TrimPrefix(data, "@"))
	if err != nil {
		return "", fmt.Errorf("reading body file: %w", err)
	}
	return string(content), nil
}

// validateSchema checks the response body against a JSON Schema file.
func validateSchema(resp *rest.Response, schemaPath string, formatter *output.Formatter) error {
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("reading schema file: %w", err)
	}

	valid, validationErrors := jsonschema.ValidateWithErrors(resp.Body, string(schema))
	fmt.Print(formatter.FormatValidation(valid, validationErrors))
	if !valid {
		return errors.New("response body failed schema validation")
	}
	return nil
}
