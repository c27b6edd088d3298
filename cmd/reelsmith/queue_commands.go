package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/jobqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the production queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var title string
	var priority int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a script for background production",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(scriptPath)
			if source == "" {
				return fmt.Errorf("--script is required")
			}
			source, err := config.ExpandPath(source)
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			info, err := os.Stat(source)
			if err != nil {
				return fmt.Errorf("script %s is not readable: %w", source, err)
			}
			if info.IsDir() {
				return fmt.Errorf("script %s is a directory", source)
			}

			name := strings.TrimSpace(title)
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			}

			return ctx.withStore(func(store *jobqueue.Store) error {
				item, err := store.Enqueue(cmd.Context(), name, source, "", priority)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued item %d (%s)\n", item.ID, item.Token)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the narration script")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Production title (defaults to the script filename)")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Higher priorities run first")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]jobqueue.Status, 0, len(listStatuses))
			for _, value := range listStatuses {
				status, ok := jobqueue.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q, expected one of %s", value, statusNames())
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *jobqueue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Created", "Progress"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func statusNames() string {
	all := jobqueue.AllStatuses()
	names := make([]string, len(all))
	for i, status := range all {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemID|token>",
		Short: "Show one queue item in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.TrimSpace(args[0])
			return ctx.withStore(func(store *jobqueue.Store) error {
				item, err := findQueueItem(cmd.Context(), store, ref)
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found\n", ref)
					return nil
				}
				printQueueItem(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}
}

// findQueueItem resolves an item from a numeric ID or an enqueue token.
func findQueueItem(ctx context.Context, store *jobqueue.Store, ref string) (*jobqueue.Item, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.GetByID(ctx, id)
	}
	return store.FindByToken(ctx, ref)
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobqueue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(store *jobqueue.Store) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					updated, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed items\n", updated)
					return nil
				}

				items, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				itemsByID := make(map[int64]*jobqueue.Item, len(items))
				for _, item := range items {
					itemsByID[item.ID] = item
				}

				for _, id := range ids {
					item, ok := itemsByID[id]
					if !ok {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != jobqueue.StatusFailed {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}
					updated, err := store.RetryFailed(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Item %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(store *jobqueue.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearForce bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(store *jobqueue.Store) error {
				out := cmd.OutOrStdout()
				if clearForce {
					fmt.Fprintln(out, "Clearing queue without confirmation (--force)")
				}
				var removed int64
				var err error
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed items\n", removed)
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed items\n", removed)
				default:
					removed, err = store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d queue items\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	cmd.Flags().BoolVar(&clearForce, "force", false, "No-op flag for compatibility; removal always proceeds")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to queued",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobqueue.Store) error {
				updated, err := store.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check queue database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobqueue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %s\n", health.SchemaVersion)
				fmt.Fprintf(out, "production_jobs table present: %s\n", yesNo(health.TableExists))
				if len(health.ColumnsPresent) > 0 {
					cols := append([]string(nil), health.ColumnsPresent...)
					sort.Strings(cols)
					fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
				}
				if len(health.MissingColumns) > 0 {
					missing := append([]string(nil), health.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Total items: %d\n", health.TotalItems)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}
