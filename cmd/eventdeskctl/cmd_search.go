package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"eventdesk/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search events and attendees",
	Long: `Runs one search through the same debounced store the desktop app uses
and prints the results grouped by type.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is empty")
	}

	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	var started atomic.Bool
	done := make(chan models.SearchState, 1)
	stop := stores.Search.Subscribe(func(s models.SearchState) {
		if s.IsSearching {
			started.Store(true)
			return
		}
		if started.Load() {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer stop()

	stores.Search.Search(query)

	wait := cfg.Search.Debounce + cfg.API.Timeout + time.Second
	var state models.SearchState
	select {
	case state = <-done:
	case <-time.After(wait):
		return fmt.Errorf("search timed out after %s", wait)
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	if state.HasError() {
		return fmt.Errorf("search failed: %s", *state.Error)
	}
	printResults(cmd.OutOrStdout(), state)
	return nil
}

func printResults(w io.Writer, state models.SearchState) {
	if state.HasNoResults() {
		fmt.Fprintf(w, "no results for %q\n", state.Query)
		return
	}
	section := func(title string, results []models.SearchResult) {
		if len(results) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d)\n", title, len(results))
		for _, r := range results {
			fmt.Fprintf(w, "  %s  %s\n", r.Title, r.URL)
			fmt.Fprintf(w, "    %s\n", r.Snippet)
		}
	}
	section("Events", state.EventResults())
	section("Attendees", state.AttendeeResults())
}
