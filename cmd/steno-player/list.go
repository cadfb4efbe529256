package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jwulff/steno/player/internal/db"
	"github.com/jwulff/steno/player/internal/source"
	"github.com/spf13/cobra"
)

var listLong bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available transcripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSrc, err := openSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeSrc()

		return list(cmd.Context(), os.Stdout, src, listLong)
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "show sizes and import time (sqlite only)")
	rootCmd.AddCommand(listCmd)
}

func list(ctx context.Context, out io.Writer, src source.Source, long bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if store, ok := src.(*db.Store); ok && long {
		records, err := store.Records(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tPARAGRAPHS\tWORDS\tIMPORTED")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", r.ID, r.Name, r.Paragraphs, r.Words,
				r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	items, err := src.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tNAME")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\n", it.ID, it.Name)
	}
	return nil
}
