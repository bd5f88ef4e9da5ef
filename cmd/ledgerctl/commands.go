package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/auth"
	"ledger/internal/backend"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/filter"
	"ledger/internal/services"
	"ledger/internal/storage"
	"ledger/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrate needs DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
			}
			if err := cfg.ValidateStorage(); err != nil {
				return err
			}
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%t)\n", cfg.SQLiteDBPath, version, dirty)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		user int64
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user <= 0 {
				return errors.New("--user must be a positive id")
			}
			cfg := config.Load()
			if len(cfg.JWTSecret) < 16 {
				return errors.New("JWT_SECRET must be at least 16 characters")
			}
			token, err := auth.GenerateToken(cfg.JWTSecret, core.UserID(user), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "user id to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var user int64
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print balance, totals and recent activity for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(st store.Store) error {
				dash, err := services.NewLedgerService(st, services.WithLogger(logger)).
					Dashboard(cmd.Context(), core.UserID(user))
				if err != nil {
					return commandError(err)
				}
				printDashboard(cmd.OutOrStdout(), dash)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func filterCmd() *cobra.Command {
	var (
		user               int64
		typ, start, end    string
		keyword, sortField string
		sortOrder          string
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List a user's incomes or expenses matching the given criteria",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := filter.Request{Type: typ, SortField: sortField, SortOrder: sortOrder}
			if cmd.Flags().Changed("keyword") {
				req.Keyword = &keyword
			}
			for _, bound := range []struct {
				raw string
				dst **core.Date
			}{{start, &req.StartDate}, {end, &req.EndDate}} {
				if bound.raw == "" {
					continue
				}
				d, err := core.ParseDate(bound.raw)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", bound.raw, err)
				}
				*bound.dst = &d
			}

			return withStore(cmd.Context(), func(st store.Store) error {
				_, records, err := services.NewTransactionService(st, services.WithLogger(logger)).
					Filter(cmd.Context(), core.UserID(user), req)
				if err != nil {
					return commandError(err)
				}
				printTransactions(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "user id")
	cmd.Flags().StringVar(&typ, "type", "expense", "income or expense")
	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&sortField, "sort", "date", "date, amount, name or createdAt")
	cmd.Flags().StringVar(&sortOrder, "order", "asc", "asc or desc")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg := config.Load()
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// Reports never publish events.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	return fn(res.Store)
}

func commandError(err error) error {
	if core.KindOf(err) == core.KindUnexpected {
		return err
	}
	return errors.New(core.MessageOf(err))
}

func printDashboard(out io.Writer, dash core.Dashboard) {
	fmt.Fprintf(out, "Balance:  %s\n", core.FormatAmount(dash.NetBalance))
	fmt.Fprintf(out, "Incomes:  %s\n", core.FormatAmount(dash.TotalIncome))
	fmt.Fprintf(out, "Expenses: %s\n\n", core.FormatAmount(dash.TotalExpense))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "TYPE\tDATE\tNAME\tAMOUNT")
	for _, r := range dash.RecentMerged {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Type, r.Date, r.Name, core.FormatAmount(r.Amount))
	}
}

func printTransactions(out io.Writer, records []core.Transaction) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No transactions match.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT")
	for _, t := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Name, t.DisplayCategory(), core.FormatAmount(t.Amount))
	}
}
