package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/query"
)

var (
	setFlags []string
	sortFlag string
	pageFlag string
	urlOnly  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [url]",
	Short: "Apply filter changes to a listing URL and print the results",
	Long: `Merges parameter assignments into the listing URL the same way the
browser does: assigned keys are overwritten in place, other parameters are
kept, and the page parameter is dropped unless --page is given.

Examples:
  jambu query --set word=agni --set lang=Pa
  jambu query 'http://localhost:2222/entries?word=agni' --sort desc-origin
  jambu query --set gloss=fire --url-only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVarP(&setFlags, "set", "s", nil, "assign a parameter, as field=value (repeatable)")
	f.StringVar(&sortFlag, "sort", "", `sort as <asc|desc>-<field>; "" clears it`)
	f.StringVar(&pageFlag, "page", "", "page token to open")
	f.BoolVar(&urlOnly, "url-only", false, "print the resulting URL without fetching")
}

// buildUpdate turns the command line into one update, in flag order.
func buildUpdate(cmd *cobra.Command) (query.Update, error) {
	var u query.Update
	merge := func(a query.Update) {
		for _, k := range a.Keys() {
			v, _ := a.Value(k)
			u = u.With(k, v)
		}
	}
	for _, s := range setFlags {
		a, err := query.ParseAssignment(s)
		if err != nil {
			return query.Update{}, err
		}
		merge(a)
	}
	if cmd.Flags().Changed("sort") {
		s, err := query.ParseSort(sortFlag)
		if err != nil {
			return query.Update{}, err
		}
		merge(query.SortUpdate(s))
	}
	if cmd.Flags().Changed("page") {
		merge(query.PageUpdate(pageFlag))
	}
	return u, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := startURL(args)
	upd, err := buildUpdate(cmd)
	if err != nil {
		return err
	}

	if urlOnly {
		u, err := parseListingURL(start)
		if err != nil {
			return err
		}
		if upd.Len() > 0 {
			u = query.ApplyURL(u, upd)
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.String())
		return nil
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// Visits are recorded here rather than by the controller so that the
	// write finishes before the process exits.
	ctl, err := newController(start, nil)
	if err != nil {
		return err
	}
	defer ctl.Close()

	if err := ctl.Load(ctx); err != nil {
		return err
	}
	if upd.Len() > 0 {
		if _, err := ctl.ApplyUpdate(upd); err != nil {
			return err
		}
		if err := awaitRefresh(ctx, ctl); err != nil {
			return fmt.Errorf("refresh %s: %w", ctl.Location(), err)
		}
	}

	v := ctl.View()
	if store != nil {
		if err := store.Record(ctx, v.URL, v.Title); err != nil {
			logger.Warn("record visit", zap.Error(err))
		}
	}
	printView(cmd.OutOrStdout(), v)
	return nil
}

// awaitRefresh waits for the outcome of the request issued after Load.
func awaitRefresh(ctx context.Context, ctl *controller.Controller) error {
	for {
		select {
		case ev, ok := <-ctl.Events():
			if !ok {
				return controller.ErrClosed
			}
			if ev.Seq == 0 {
				continue
			}
			switch ev.Kind {
			case controller.EventRefreshed:
				return nil
			case controller.EventFailed:
				return ev.Err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
