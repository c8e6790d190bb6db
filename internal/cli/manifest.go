package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"envdoctor/internal/manifest"
)

var manifestYAML bool

var manifestCmd = &cobra.Command{
	Use:   CmdManifest,
	Short: "Load, validate and print a manifest",
	Long: `Load the configured manifest, validate it and print it normalized.
Comments and trailing commas in the source are dropped.

  envdoctor manifest -m https://example.com/envdoctor.json
  envdoctor manifest -m ./envdoctor.json --yaml`,
	Args: cobra.NoArgs,
	RunE: runManifestCmd,
}

func init() {
	manifestCmd.Flags().BoolVar(&manifestYAML, "yaml", false, "print as YAML instead of JSON")
	rootCmd.AddCommand(manifestCmd)
}

func runManifestCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireManifest(); err != nil {
		return NewConfigError("No manifest configured", err)
	}
	m, err := manifest.Load(cmd.Context(), cfg.Manifest)
	if err != nil {
		return NewManifestError(cfg.Manifest, err)
	}
	return writeManifest(cmd.OutOrStdout(), m, manifestYAML)
}

func writeManifest(w io.Writer, m *manifest.Manifest, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return enc.Close()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
