package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/jambu/pkg/history"
	"github.com/japaniel/jambu/pkg/query"
)

var (
	historyLimit  int
	historyFilter string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently visited listing pages",
	Long: `Lists the listing pages shown by browse and query, most recent first.

Examples:
  jambu history --limit 50
  jambu history --filter word=agn`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVarP(&historyLimit, "limit", "n", 20, "maximum number of visits to list")
	f.StringVar(&historyFilter, "filter", "", "only visits whose field contained a substring, as field=substr")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if noHistory {
		return errors.New("--no-history leaves nothing to list")
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var visits []history.Visit
	if historyFilter != "" {
		name, substr, ok := strings.Cut(historyFilter, "=")
		if !ok {
			return fmt.Errorf("filter %q: want field=substr", historyFilter)
		}
		f, err := query.ParseField(name)
		if err != nil {
			return err
		}
		visits, err = store.WithFilter(cmd.Context(), f, substr, historyLimit)
		if err != nil {
			return err
		}
	} else {
		visits, err = store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
	}
	printVisits(cmd.OutOrStdout(), visits)
	return nil
}
