package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sangihetrip/internal/listing"
)

const consoleHelp = `Commands:
  search <text>     search (empty clears), fetched after a short pause
  filter key=value  set a filter; key= removes it
  page <n>          go to page n
  reset             clear search and filters
  refresh           reload the current page
  delete <id>       delete an item after confirmation
  show              print the current page again
  help              show this help
  quit              leave the console`

func (a *adminApp) consoleCmd() *cobra.Command {
	var (
		pageSize int
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "console <resource>",
		Short: "Browse an admin collection interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := a.checkResource(args[0])
			if err != nil {
				return err
			}
			return a.runConsole(cmd.Context(), resource, cmd.InOrStdin(), cmd.OutOrStdout(), listing.Options{
				Endpoint: "/admin/" + resource,
				PageSize: pageSize,
				Debounce: debounce,
			})
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", listing.DefaultPageSize, "Items per page")
	cmd.Flags().DurationVar(&debounce, "debounce", listing.DefaultDebounce, "Quiet period before a search is sent")
	_ = cmd.Flags().MarkHidden("debounce")
	return cmd
}

// runConsole reads commands from in until quit, end of input or the end of
// the session. Every command that changes the list waits for the list to
// settle before the next prompt.
func (a *adminApp) runConsole(ctx context.Context, resource string, in io.Reader, w io.Writer, opts listing.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &syncWriter{w: w}
	lines := newLineReader(in)

	opts.Confirmer = &promptConfirmer{in: lines, out: out}
	opts.Alerter = writerAlerter{w: out}
	opts.Logger = a.logger

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_ = a.watcher.Run(ctx)
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	ctrl := listing.NewController[json.RawMessage](a.client, a.store, opts)
	defer ctrl.Close()

	settled := make(chan struct{}, 1)
	ctrl.Subscribe(func(s listing.Snapshot[json.RawMessage]) {
		switch s.Phase {
		case listing.PhaseIdle:
			printPage(out, s.Items, s.Meta)
		case listing.PhaseError:
			fmt.Fprintf(out, "error: %s\n", s.Error)
		default:
			return
		}
		select {
		case settled <- struct{}{}:
		default:
		}
	})

	wait := func() bool {
		select {
		case <-settled:
			return true
		case <-a.loggedOut:
			return false
		case <-ctx.Done():
			return false
		}
	}

	fmt.Fprintf(out, "Admin console for %s. Type help for commands.\n", resource)
	ctrl.Start()
	if !wait() || a.ended() {
		return a.consoleEnd(ctx)
	}

	for {
		fmt.Fprint(out, "> ")
		line, ok := lines.next()
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if a.watcher.Check(ctx) || a.ended() {
			return errSessionEnded
		}

		// Drop a signal left over from a fetch nobody waited for.
		select {
		case <-settled:
		default:
		}

		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		fetches := true

		switch strings.ToLower(name) {
		case "":
			fetches = false
		case "search":
			ctrl.SetSearch(arg)
		case "filter":
			key, value, ok := strings.Cut(arg, "=")
			if !ok || strings.TrimSpace(key) == "" {
				fmt.Fprintln(out, "usage: filter key=value")
				fetches = false
				break
			}
			ctrl.SetFilter(strings.TrimSpace(key), strings.TrimSpace(value))
		case "page":
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				fmt.Fprintln(out, "usage: page <n>")
				fetches = false
				break
			}
			ctrl.SetPage(n)
		case "reset":
			ctrl.ResetFilters()
		case "refresh":
			ctrl.Refresh()
		case "delete":
			if arg == "" {
				fmt.Fprintln(out, "usage: delete <id>")
				fetches = false
				break
			}
			deleted, err := ctrl.DeleteItem(ctx, arg)
			if err != nil {
				a.logger.Debug("console delete failed", zap.String("id", arg), zap.Error(err))
			}
			if deleted {
				fmt.Fprintf(out, "Deleted %s.\n", arg)
			}
			fetches = deleted
		case "show":
			s := ctrl.Snapshot()
			printPage(out, s.Items, s.Meta)
			fetches = false
		case "help":
			fmt.Fprintln(out, consoleHelp)
			fetches = false
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q, type help for commands\n", name)
			fetches = false
		}

		if fetches && (!wait() || a.ended()) {
			return a.consoleEnd(ctx)
		}
	}
}

func (a *adminApp) consoleEnd(ctx context.Context) error {
	if a.ended() {
		return errSessionEnded
	}
	return ctx.Err()
}
