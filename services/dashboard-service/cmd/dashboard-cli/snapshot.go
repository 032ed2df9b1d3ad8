package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
)

type SnapshotOptions struct {
	*RootOptions
	Tenant string
	Branch string
	Date   string
}

func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute a dashboard once and print it",
	}
	cmd.AddCommand(newCommandCenterCommand(rootOpts))
	cmd.AddCommand(newOwnerCommand(rootOpts))
	return cmd
}

func newCommandCenterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "command-center",
		Short: "Front-desk view of one branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			var date time.Time
			if opts.Date != "" {
				d, err := dashboard.ParseDay(opts.Date, svc.Location())
				if err != nil {
					return err
				}
				date = d
			}
			out, err := svc.CommandCenter(cmd.Context(), dashboard.Scope{TenantID: opts.Tenant, BranchID: opts.Branch}, date)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), out, opts.Format)
		},
	}
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch id")
	cmd.Flags().StringVar(&opts.Date, "date", "", "calendar day (YYYY-MM-DD); defaults to today")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func newOwnerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Business summary for a branch or the whole tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			out, err := svc.OwnerDashboard(cmd.Context(), dashboard.Scope{TenantID: opts.Tenant, BranchID: opts.Branch})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), out, opts.Format)
		},
	}
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch id; omit for every branch")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
