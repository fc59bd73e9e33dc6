package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casenotify/internal/config"
)

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

func newConfigCommand(wiring commandWiring) *cobra.Command {
	var (
		format   string
		defaults bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (or the defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != configFormatJSON && format != configFormatTOML {
				return usageError(cmd, fmt.Errorf("unsupported format %q", format))
			}
			cfg := config.DefaultCoreConfig()
			if !defaults {
				loaded, err := config.LoadCoreConfig()
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if format == configFormatJSON {
				enc := json.NewEncoder(wiring.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			data, err := config.EncodeTOML(cfg)
			if err != nil {
				return err
			}
			_, err = wiring.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", configFormatTOML, "output format: toml or json")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print built-in defaults instead of the loaded file")
	return cmd
}
