package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/five82/nodewatch/internal/app"
	"github.com/five82/nodewatch/internal/logging"
	"github.com/five82/nodewatch/internal/logtail"
)

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var (
		lines    int
		minLevel string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the diagnostic log",
		Long: `Failed polls never interrupt the display; they are classified and written
to the diagnostic log. This prints its most recent entries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.ResolveConfig(flags.options())
			if err != nil {
				return err
			}
			entries, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			level := slog.LevelDebug
			if minLevel != "" {
				level = logging.ParseLevel(minLevel)
			}
			for _, line := range logtail.FilterLevel(entries, level) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to read, 0 for all")
	cmd.Flags().StringVar(&minLevel, "level", "", "only show entries at or above this level")
	return cmd
}
