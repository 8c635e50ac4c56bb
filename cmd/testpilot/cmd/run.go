package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/khanh1998/test-pilot-sub005/color"
	"github.com/khanh1998/test-pilot-sub005/engine"
	"github.com/khanh1998/test-pilot-sub005/schema"
)

// ErrFlowFailed is the error returned when the flow did not complete
// successfully.
var ErrFlowFailed = errors.New("flow failed")

var (
	envPath      string
	subEnv       string
	mappingsPath string
	paramFlags   []string
	proxyURL     string
	timeoutMS    int
	verbose      bool
	noColor      bool
)

func init() {
	runCmd.Flags().StringVar(&envPath, "environment", "", "environment definition file")
	runCmd.Flags().StringVar(&subEnv, "sub-env", "", "sub-environment to run against")
	runCmd.Flags().StringVar(&mappingsPath, "mappings", "", "parameter mapping file")
	runCmd.Flags().StringArrayVar(&paramFlags, "param", nil, "flow parameter value as name=value (repeatable)")
	runCmd.Flags().StringVar(&proxyURL, "proxy", "", "route requests through a proxy endpoint")
	runCmd.Flags().IntVar(&timeoutMS, "timeout", 0, "per-request timeout in milliseconds")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	runCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <flow.yaml>",
	Short: "run a flow",
	Long: `Runs the flow defined in the given file.

Required parameters without a value are reported by name; supply them with
repeated --param flags.`,
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func run(cmd *cobra.Command, args []string) error {
	flow, err := schema.LoadFlow(args[0])
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}
	if timeoutMS > 0 {
		flow.Settings.Timeout = timeoutMS
	}

	opts := []engine.Option{}
	if envPath != "" {
		env, err := schema.LoadEnvironment(envPath)
		if err != nil {
			return fmt.Errorf("failed to load environment: %w", err)
		}
		opts = append(opts, engine.WithEnvironment(env, subEnv))
	}
	if mappingsPath != "" {
		ms, err := schema.LoadMappings(mappingsPath)
		if err != nil {
			return fmt.Errorf("failed to load mappings: %w", err)
		}
		opts = append(opts, engine.WithMappings(ms))
	}
	if proxyURL != "" {
		opts = append(opts, engine.WithProxy(proxyURL))
	}

	colorConfig := color.New()
	if noColor {
		colorConfig.SetEnabled(false)
	}
	w := cmd.OutOrStdout()
	if verbose {
		opts = append(opts, engine.OnEndpoint(func(key string, state *engine.EndpointState) {
			printEndpoint(w, colorConfig, key, state)
		}))
	}

	e := engine.New(flow, opts...)
	supplied, err := parseParams(paramFlags)
	if err != nil {
		return err
	}
	if len(supplied) > 0 {
		if err := e.UpdateParameterValues(supplied); err != nil {
			return err
		}
	}

	result := e.Run(cmd.Context())
	if result.Status == engine.StatusNeedsInput {
		names := make([]string, len(result.MissingParameters))
		for i, p := range result.MissingParameters {
			names[i] = p.Name
		}
		colorConfig.Red().Fprintf(w, "missing required parameters: %s\n", strings.Join(names, ", "))
		fmt.Fprintln(w, "supply them with --param name=value")
		return ErrFlowFailed
	}

	if verbose {
		for _, entry := range e.Log() {
			fmt.Fprintf(w, "%s [%s] %s\n", entry.Time.Format("15:04:05.000"), entry.Level, entry.Message)
		}
	}
	printSummary(w, colorConfig, result)

	if !result.Success {
		if result.Error != nil {
			colorConfig.Red().Fprintln(w, result.Error.Error())
		}
		return ErrFlowFailed
	}
	return nil
}

// parseParams parses repeated name=value flags. Values decode as YAML
// scalars, so numbers and booleans keep their type.
func parseParams(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(flags))
	for _, f := range flags {
		name, raw, ok := strings.Cut(f, "=")
		if !ok {
			return nil, errors.Errorf("invalid --param %q: expected name=value", f)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		values[name] = v
	}
	return values, nil
}

func printEndpoint(w io.Writer, c *color.Config, key string, state *engine.EndpointState) {
	switch state.Status {
	case engine.EndpointCompleted:
		c.Green().Fprintf(w, "--- PASS: %s", key)
	case engine.EndpointFailed:
		c.Red().Fprintf(w, "--- FAIL: %s", key)
	default:
		return
	}
	if state.Response != nil {
		fmt.Fprintf(w, " (%d, %dms)", state.Response.StatusCode, state.Response.DurationMS)
	}
	fmt.Fprintln(w)
	if state.Error != "" {
		fmt.Fprintf(w, "        %s\n", state.Error)
	}
}

func printSummary(w io.Writer, c *color.Config, result *engine.Result) {
	summary := map[string]any{
		"status":  string(result.Status),
		"success": result.Success,
	}
	if len(result.FlowOutputs) > 0 {
		summary["outputs"] = result.FlowOutputs
	}
	b, err := c.MarshalYAML(summary)
	if err != nil {
		fmt.Fprintf(w, "status: %s\n", result.Status)
		return
	}
	w.Write(b)
}
