package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/redditpersona/internal/config"
)

// newConfigCmd prints the effective configuration after defaults, config
// file, environment and flags have been merged.
func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long: `Show the configuration redditpersona would run with.

Settings are resolved in this order, later sources winning:
  built-in defaults
  .redditpersona.yaml (current directory or ~/.config/redditpersona)
  .env file and REDDITPERSONA_* environment variables
  command-line flags`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range cfg.Entries() {
				fmt.Fprintf(out, "%s = %s\n", e.Key, e.Value)
			}
			return nil
		},
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:   currentVersion(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case short:
				fmt.Fprintln(out, info.Version)
			default:
				fmt.Fprintf(out, "redditpersona version %s\n", info.Version)
				fmt.Fprintf(out, "  go:       %s\n", info.GoVersion)
				fmt.Fprintf(out, "  platform: %s\n", info.Platform)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
