package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/five82/nodewatch/internal/app"
	"github.com/five82/nodewatch/internal/nodeapi"
)

func newCACertCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "cacert",
		Short: "Download the node's CA certificate",
		Long: `Download {endpoint}/cacert as a PEM file. Without -o the file is written to
the current directory under the name the node suggests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.ResolveConfig(flags.options())
			if err != nil {
				return err
			}
			client, err := nodeapi.NewClient(cfg.Endpoint)
			if err != nil {
				return fmt.Errorf("init node client: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			pem, name, err := client.FetchCACert(ctx)
			if err != nil {
				return fmt.Errorf("download CA certificate: %w", err)
			}

			dest := output
			if dest == "" {
				dest = name
			}
			if dir := filepath.Dir(dest); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			if err := os.WriteFile(dest, pem, 0o644); err != nil {
				return fmt.Errorf("write CA certificate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", dest, len(pem))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}
