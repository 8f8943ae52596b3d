package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/japaniel/jambu/pkg/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [url]",
	Short: "Open the interactive listing browser",
	Long: `Opens the listing in a terminal browser. Tab moves between the text
filters, alt+1..9 inserts a character from the palette, and the results
pane sorts, pages and walks back through visited listings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ctl, err := newController(startURL(args), store)
	if err != nil {
		return err
	}
	defer ctl.Close()

	if err := ctl.Load(ctx); err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(ctl, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
