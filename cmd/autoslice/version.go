package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/autoslice/internal/version"
	"github.com/spf13/cobra"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the autoslice build",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printVersion(cmd.OutOrStdout(), version.Get(), versionFormat)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "Output format (text, yaml)")
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, info version.Info, format string) error {
	switch format {
	case "text":
		_, err := fmt.Fprintf(w, "autoslice %s\n", info.Full())
		return err
	case "yaml":
		out, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to encode version: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported version format %q", format)
	}
}
