package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/scoring/analyzer"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "seoscore",
		Short:        "Score SEO analysis payloads and build disavow files",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("ENGINE_CONFIG"), "Engine config YAML (defaults to built-in thresholds)")

	cmd.AddCommand(reportCmd(opts), disavowCmd(opts), configCmd(opts))
	return cmd
}

func (o *rootOptions) engine() (*analyzer.Engine, error) {
	cfg, err := analyzer.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return analyzer.NewEngine(cfg), nil
}

// readPayload reads a file, or stdin for "-".
func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func reportCmd(opts *rootOptions) *cobra.Command {
	var section string
	var compact bool

	c := &cobra.Command{
		Use:   "report <payload.json|->",
		Short: "Print the scored report for a payload as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			en, err := opts.engine()
			if err != nil {
				return err
			}
			raw, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}

			var out any
			switch section {
			case "all", "":
				out = en.MapBackendToReport(raw)
			case "backlinks":
				out = en.MapBackendToBacklinksAnalysis(raw)
			case "content":
				out = en.MapBackendToContentAnalysis(raw)
			case "performance":
				out = en.MapBackendToPerformanceAnalysis(raw)
			case "security":
				out = en.MapBackendToSecurityAnalysis(raw)
			default:
				return fmt.Errorf("unknown section %q (want all|backlinks|content|performance|security)", section)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out)
		},
	}
	c.Flags().StringVarP(&section, "section", "s", "all", "Section to print: all|backlinks|content|performance|security")
	c.Flags().BoolVar(&compact, "compact", false, "Print single-line JSON")
	return c
}

func disavowCmd(opts *rootOptions) *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "disavow <payload.json|->",
		Short: "Write the disavow file for a payload's toxic links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			en, err := opts.engine()
			if err != nil {
				return err
			}
			raw, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}

			file := en.MapBackendToBacklinksAnalysis(raw).Toxicity.Disavow
			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), file.Content)
				return err
			}
			if err := os.WriteFile(output, []byte(file.Content), 0644); err != nil {
				return fmt.Errorf("write disavow file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s: %d domains from %d toxic links\n", output, file.DomainsCount, file.URLsCount)
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return c
}

func configCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective engine config as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := analyzer.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
