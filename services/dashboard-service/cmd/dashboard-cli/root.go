package main

import (
	"context"
	"fmt"
	"slices"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/salondesk/salondesk/libs/config"
	"github.com/salondesk/salondesk/libs/db"
	"github.com/salondesk/salondesk/libs/runtime"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/storage"
)

var ValidFormats = []string{"json", "yaml"}

// StoreOpener returns a store and a func that releases it.
type StoreOpener func(ctx context.Context) (dashboard.Store, func(), error)

type RootOptions struct {
	Format   string
	At       string
	Timezone string
	Open     StoreOpener
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openPostgres)
}

func newRootCommand(open StoreOpener) *cobra.Command {
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:           "dashboard-cli",
		Short:         "Salon dashboard snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.At, "at", "", "reference instant (RFC3339); defaults to now")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "", "dashboard time zone; defaults to DASHBOARD_TIMEZONE")

	cmd.AddCommand(NewSnapshotCommand(opts))
	return cmd
}

// service builds a dashboard.Service the same way the HTTP server does, with
// the clock pinned when --at is set.
func (o *RootOptions) service(ctx context.Context) (*dashboard.Service, func(), error) {
	loc, err := o.location()
	if err != nil {
		return nil, nil, err
	}
	var opts []dashboard.Option
	if o.At != "" {
		at, err := time.Parse(time.RFC3339, o.At)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --at: %w", err)
		}
		opts = append(opts, dashboard.WithClock(dashboard.FixedClock(at)))
	}
	store, release, err := o.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := dashboard.NewService(store, runtime.NewLoggerWithLevel("dashboard-cli", "error"), dashboard.Config{
		Location:                loc,
		AttentionCandidateLimit: config.Int("DASHBOARD_ATTENTION_CANDIDATE_LIMIT", dashboard.DefaultAttentionCandidateLimit, 1),
	}, opts...)
	return svc, release, nil
}

func (o *RootOptions) location() (*time.Location, error) {
	if o.Timezone != "" {
		return time.LoadLocation(o.Timezone)
	}
	return config.Location("DASHBOARD_TIMEZONE", "UTC")
}

func openPostgres(ctx context.Context) (dashboard.Store, func(), error) {
	config.Load()
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: 4})
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return storage.NewRepository(pool), pool.Close, nil
}
