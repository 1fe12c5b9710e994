package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/reach-http/reach/internal/config"
	"github.com/reach-http/reach/internal/output"
	"github.com/reach-http/reach/pkg/jsonpath"
	"github.com/reach-http/reach/rest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a named request from a configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("config")
		environment, _ := cmd.Flags().GetString("environment")
		request, _ := cmd.Flags().GetString("request")
		verbose, _ := cmd.Flags().GetBool("verbose")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		noColor, _ := cmd.Flags().GetBool("no-color")

		if configFile == "" {
			fmt.Println("Error: config file is required")
			cmd.Help()
			return
		}
		if environment == "" {
			fmt.Println("Error: environment is required")
			cmd.Help()
			return
		}
		if request == "" {
			fmt.Println("Error: request is required")
			cmd.Help()
			return
		}

		// Load configuration
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		// Validate configuration
		if errs := config.ValidateConfig(cfg); len(errs) > 0 {
			fmt.Fprintln(os.Stderr, "Configuration validation errors:")
			for _, err := range errs {
				fmt.Fprintf(os.Stderr, "  - %s\n", err.Error())
			}
			os.Exit(1)
		}
		if err := config.ValidateEnvironment(cfg, environment); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.ValidateRequest(cfg, request); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		formatter := output.NewFormatter(verbose, noColor)
		env := cfg.Environments[environment]

		if err := executeConfiguredRequest(cfg, request, env, formatter, timeout, verbose, filepath.Dir(configFile), os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// executeConfiguredRequest executes one request definition against the given
// environment. Progress output goes to out.
func executeConfiguredRequest(cfg *config.Config, requestName string, env config.Environment, formatter *output.Formatter, timeout time.Duration, verbose bool, configDir string, out io.Writer) error {
	reqConfig := cfg.Requests[requestName]

	// Request-level variables override the environment's.
	vars := config.MergeVars(env.Vars, reqConfig.Vars)

	// Resolve the URL against the environment base, with {{var}} substitution.
	rawURL := config.ProcessEnvironment(reqConfig.URL, vars)
	if rawURL == "" {
		rawURL = env.BaseURL
	} else if !isAbsoluteURL(rawURL) {
		rawURL = env.BaseURL + "/" + trimLeadingSlash(rawURL)
	}

	base, segments, query := parseURL(rawURL)

	clientOptions := []rest.ClientOption{
		rest.WithPath(segments...),
		rest.WithTimeout(timeout),
		rest.WithHeaders(config.ProcessEnvironmentInMap(env.Headers, vars)),
		rest.WithLogger(newLogger(verbose)),
	}
	if env.Version > 0 {
		clientOptions = append(clientOptions, rest.WithVersion(env.Version))
	}
	if env.TrailingSlash {
		clientOptions = append(clientOptions, rest.WithTrailingSlash())
	}
	client := rest.NewClient(base, clientOptions...)

	requestHeaders := config.ProcessEnvironmentInMap(reqConfig.Headers, vars)
	params := config.MergeVars(query, config.ProcessEnvironmentInMap(reqConfig.QueryParams, vars))

	var requestOptions []rest.RequestOption
	if len(requestHeaders) > 0 {
		requestOptions = append(requestOptions, rest.WithRequestHeaders(requestHeaders))
	}
	if len(params) > 0 {
		requestOptions = append(requestOptions, rest.WithQueryParams(params))
	}

	var displayBody string
	if reqConfig.Body != nil {
		contentType := requestHeaders["Content-Type"]
		if contentType == "" {
			contentType = env.Headers["Content-Type"]
		}
		body, err := prepareConfigBody(reqConfig.Body, vars, contentType)
		if err != nil {
			return err
		}
		displayBody = bodyForDisplay(body)
		requestOptions = append(requestOptions, rest.WithBody(body))
	}
	if reqConfig.Timeout != "" {
		// Validated by config.ValidateRequest.
		override, _ := time.ParseDuration(reqConfig.Timeout)
		requestOptions = append(requestOptions, rest.WithRequestTimeout(override))
	}

	fmt.Fprint(out, formatter.FormatRequest(reqConfig.Method, client.BuildURL(params), requestHeaders, displayBody))

	start := time.Now()
	resp, err := dispatch(context.Background(), client, reqConfig.Method, requestOptions)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprint(os.Stderr, formatter.FormatError(err, elapsed))
		return fmt.Errorf("request %q failed", requestName)
	}

	fmt.Fprint(out, formatter.FormatResponse(resp, elapsed))

	if reqConfig.SchemaFile != "" {
		schemaPath := reqConfig.SchemaFile
		if !filepath.IsAbs(schemaPath) {
			schemaPath = filepath.Join(configDir, schemaPath)
		}
		if err := validateSchema(resp, schemaPath, formatter); err != nil {
			return err
		}
	}

	if len(reqConfig.Extract) > 0 {
		values, err := jsonpath.ExtractMultiple(resp.Body, reqConfig.Extract)
		if err != nil {
			return err
		}
		for name, value := range values {
			fmt.Fprintf(out, "%s=%s\n", name, value)
		}
	}

	return nil
}

// prepareConfigBody resolves a configured body value: string bodies get
// {{var}} substitution and the raw-JSON handling of prepareBody; structured
// bodies pass through for JSON serialization.
func prepareConfigBody(body interface{}, vars map[string]string, contentType string) (interface{}, error) {
	if s, ok := body.(string); ok {
		return prepareBody(config.ProcessEnvironment(s, vars), contentType)
	}
	return body, nil
}

// bodyForDisplay renders a prepared body for the request line.
func bodyForDisplay(body interface{}) string {
	switch b := body.(type) {
	case string:
		return b
	case json.RawMessage:
		return string(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprintf("%v", b)
		}
		return string(encoded)
	}
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

func init() {
	runCmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	runCmd.Flags().StringP("environment", "e", "", "Environment to run against")
	runCmd.Flags().StringP("request", "r", "", "Named request to execute")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	runCmd.Flags().DurationP("timeout", "t", 30*time.Second, "Request timeout")
	runCmd.Flags().Bool("no-color", false, "Disable colored output")
}
