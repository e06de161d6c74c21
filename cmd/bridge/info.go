package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jklm-bridge/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the operator settings schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printSchema(cmd.OutOrStdout())
	},
}

func printSchema(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tGROUP\tKIND\tDEFAULT\tLABEL")
	for _, s := range domain.SettingsSchema {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", s.Key, s.Group, s.Kind, s.Default, s.Label)
	}
	return tw.Flush()
}
