package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contractwatch/internal/config"
	"contractwatch/internal/schema"
)

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.ABIPath == "" {
		return fmt.Errorf("abi path is required")
	}

	registry, err := schema.Load(cfg.ABIPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sig := range registry.Events() {
		fmt.Fprintf(out, "%-24s %s %s\n", sig.Name, sig.Topic.Hex(), sig.Signature)
	}
	return nil
}
