package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/nodewatch/internal/app"
	"github.com/five82/nodewatch/internal/nodeapi"
	"github.com/five82/nodewatch/internal/status"
)

const oneShotTimeout = 10 * time.Second

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch the node status once and print it",
		Args:  cobra.NoArgs,
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

			got, d := app.Probe(ctx, client)
			if d != nil {
				return errors.New(d.String())
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(got)
			}
			return writeStatus(cmd.OutOrStdout(), client.Endpoint(), *got)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status document")
	return cmd
}

func writeStatus(out io.Writer, endpoint string, s status.NodeStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Endpoint:\t%s\n", endpoint)
	fmt.Fprintf(w, "Node ID:\t%s\n", s.NodeID)
	fmt.Fprintf(w, "CPU Load:\t%g%%\n", s.CPULoad)
	fmt.Fprintf(w, "Storage:\t%s of %s used (%.0f%%)\n", s.StorageSizeStr, s.MaxStorageSizeStr, s.StorageRatio()*100)
	fmt.Fprintf(w, "Uptime:\t%s\n", s.Uptime)

	peers := s.Peers()
	if len(peers) == 0 {
		fmt.Fprintf(w, "Known Nodes:\tnone\n")
	} else {
		fmt.Fprintf(w, "Known Nodes:\t%s\n", strings.Join(peers, ", "))
	}
	for i, svc := range s.LocalServices {
		label := ""
		if i == 0 {
			label = "Services:"
		}
		fmt.Fprintf(w, "%s\t%s %s\n", label, svc.Name, svc.Version)
	}
	return w.Flush()
}
