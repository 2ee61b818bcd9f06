package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/service"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Args:  cobra.NoArgs,
		Short: "List accounts with their suspension status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				accounts, err := a.moderation.ListAccounts(ctx)
				if err != nil {
					return err
				}

				now := time.Now()
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tSTATUS\tUNTIL")
				for _, acc := range accounts {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						acc.ID, acc.Username, acc.DisplayName, acc.Role, acc.Status(now), suspensionEnd(acc.Suspension))
				}
				return tw.Flush()
			})
		},
	}
}

func suspensionEnd(r *domain.SuspensionRecord) string {
	switch {
	case r == nil || !r.Active:
		return "-"
	case r.IsPermanent():
		return "permanent"
	default:
		return r.EndTime.Local().Format("2006-01-02 15:04")
	}
}

type durationFlags struct {
	minutes   int
	permanent bool
	reason    string
}

func (f *durationFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minutes, "minutes", 0, "suspension length in minutes")
	cmd.Flags().BoolVar(&f.permanent, "permanent", false, "suspend with no end time")
	cmd.Flags().StringVar(&f.reason, "reason", "", "reason shown to the account holder")
	cmd.MarkFlagsMutuallyExclusive("minutes", "permanent")
	cmd.MarkFlagsOneRequired("minutes", "permanent")
	_ = cmd.MarkFlagRequired("reason")
}

func (f *durationFlags) duration() domain.SuspensionDuration {
	if f.permanent {
		return domain.Permanent
	}
	return domain.Minutes(f.minutes)
}

func newSuspendCommand(opts *rootOptions) *cobra.Command {
	flags := &durationFlags{}

	cmd := &cobra.Command{
		Use:   "suspend <account-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Suspend an account temporarily or permanently",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				return acknowledge(out)(a.moderation.Suspend(ctx, id, flags.duration(), flags.reason))
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSuspendAuthorCommand(opts *rootOptions) *cobra.Command {
	flags := &durationFlags{}

	cmd := &cobra.Command{
		Use:       "suspend-author <post|comment> <id>",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.ContentPost), string(domain.ContentComment)},
		Short:     "Suspend the author of a post or comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			ref := domain.ContentRef{Kind: domain.ContentKind(args[0]), ID: id}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				return acknowledge(out)(a.moderation.SuspendAuthor(ctx, ref, flags.duration(), flags.reason))
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newUnsuspendCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unsuspend <account-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Lift an account's suspension",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				return acknowledge(out)(a.moderation.Unsuspend(ctx, id))
			})
		},
	}
}

func newRoleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "role <account-id> <USER|ADMIN>",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.RoleUser), string(domain.RoleAdmin)},
		Short:     "Change an account's role",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				return acknowledge(out)(a.moderation.ChangeRole(ctx, id, domain.Role(args[1])))
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "delete <account|post|comment> <id>",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"account", string(domain.ContentPost), string(domain.ContentComment)},
		Short:     "Delete an account, post or comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				if args[0] == "account" {
					return acknowledge(out)(a.moderation.DeleteAccount(ctx, id))
				}
				return acknowledge(out)(a.moderation.DeleteContent(ctx, domain.ContentKind(args[0]), id))
			})
		},
	}
}

// acknowledge prints a moderation result. A declined prompt is not a failure.
func acknowledge(out io.Writer) func(*service.Acknowledgement, error) error {
	return func(ack *service.Acknowledgement, err error) error {
		if errors.Is(err, domain.ErrConfirmationDeclined) {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ack.Message)
		return nil
	}
}
