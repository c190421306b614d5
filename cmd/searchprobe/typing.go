package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/typeahead"
)

type typeConfig struct {
	Query     string
	Keystroke time.Duration
	Select    int
	Delay     time.Duration
}

// runTyping feeds cfg.Query into a controller one rune at a time, waits for
// the dropdown to settle, then presses ArrowDown up to the chosen row and
// Enter. It returns where that Enter navigates.
func runTyping(ctx context.Context, searcher typeahead.Searcher, cfg typeConfig) (typeahead.Navigation, error) {
	changes := make(chan typeahead.Snapshot, 64)
	ctrl := typeahead.NewController(searcher, typeahead.Options{
		Delay: cfg.Delay,
		OnChange: func(s typeahead.Snapshot) {
			select {
			case changes <- s:
			default:
			}
		},
	})
	defer ctrl.Close()

	runes := []rune(cfg.Query)
	go func() {
		for i := range runes {
			ctrl.Input(string(runes[:i+1]))
			time.Sleep(cfg.Keystroke)
		}
	}()

	timeout := time.Duration(len(runes))*cfg.Keystroke + cfg.Delay + 15*time.Second
	final, err := waitSettled(ctx, changes, cfg.Query, timeout)
	if err != nil {
		return typeahead.Navigation{}, err
	}
	printSnapshot(final)

	if final.State == typeahead.Idle {
		fmt.Println("query too short; nothing to open")
		return typeahead.Navigation{}, nil
	}
	for i := 0; i <= cfg.Select; i++ {
		ctrl.KeyDown(typeahead.KeyArrowDown)
	}
	nav := ctrl.KeyDown(typeahead.KeyEnter)
	if nav.URL == "" {
		fmt.Println("enter: no navigation")
		return nav, nil
	}
	fmt.Printf("enter: navigate to %s\n", nav.URL)
	return nav, nil
}

// waitSettled prints state changes until the controller reaches a state for
// query that no timer or request will move it out of.
func waitSettled(ctx context.Context, changes <-chan typeahead.Snapshot, query string, timeout time.Duration) (typeahead.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last typeahead.Snapshot
	for {
		select {
		case s := <-changes:
			fmt.Printf("  %-16s %q\n", s.State, s.Query)
			last = s
			if s.Query != query {
				continue
			}
			switch s.State {
			case typeahead.Idle, typeahead.ShowingResults, typeahead.NoResults, typeahead.Error:
				return last, nil
			}
		case <-ctx.Done():
			return last, errors.New("timed out waiting for search results")
		}
	}
}

func printSnapshot(s typeahead.Snapshot) {
	fmt.Println()
	fmt.Printf("State:   %s\n", s.State)
	fmt.Printf("Query:   %q\n", s.Query)
	fmt.Printf("Total:   %d\n", s.Total)
	for i, p := range s.Items {
		fmt.Printf("  [%d] %s (/posts/%s)\n", i, p.EffectiveTitle(), p.Slug)
	}
	if s.ViewAll {
		fmt.Printf("  [%d] View all %d results\n", len(s.Items), s.Total)
	}
	fmt.Println()
}
