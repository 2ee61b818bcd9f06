package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				if password == "" {
					fmt.Fprint(out, "Password: ")
					line, err := a.ui.readLine()
					if err != nil && line == "" {
						return fmt.Errorf("read password: %w", err)
					}
					password = line
				}

				identity, err := a.session.Login(ctx, username, password)
				if err != nil {
					return loginError(err, time.Now())
				}
				fmt.Fprintf(out, "Logged in as %s (%s)\n", identity.DisplayName, identity.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// loginError rewrites suspension failures into the text shown to the user.
func loginError(err error, now time.Time) error {
	var suspended *domain.SuspendedError
	if !errors.As(err, &suspended) {
		return err
	}
	if suspended.Permanent {
		return fmt.Errorf("this account is permanently suspended: %w", err)
	}
	if suspended.Until.IsZero() {
		return fmt.Errorf("this account is suspended: %w", err)
	}
	c := suspended.Classification(now)
	return fmt.Errorf("this account is suspended until %s (%s left): %w",
		suspended.Until.Local().Format("2006-01-02 15:04"), c.Remaining.Round(time.Minute), err)
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "End the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				if check && a.session.Current(ctx) != nil {
					resp, err := a.interceptor.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/accounts/self/role"})
					if err != nil {
						return err
					}
					if err := resp.Err(); err != nil {
						return err
					}
				}

				identity := a.session.Current(ctx)
				if identity == nil {
					fmt.Fprintln(out, "anonymous")
					return nil
				}
				fmt.Fprintf(out, "%d\t%s\t%s\n", identity.AccountID, identity.DisplayName, identity.Role)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "confirm the session with the board API first")
	return cmd
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Args:  cobra.NoArgs,
		Short: "Follow logins and logouts made by other clients sharing the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				unsubscribe := a.session.Subscribe(func(ev ports.SessionEvent) {
					switch ev.Kind {
					case ports.EventLogin:
						name := ""
						if ev.Identity != nil {
							name = ev.Identity.DisplayName
						}
						fmt.Fprintf(out, "login\t%s\n", name)
					case ports.EventLogout:
						fmt.Fprintf(out, "logout\tforced=%t\n", ev.Forced)
					}
				})
				defer unsubscribe()

				if err := a.session.Watch(ctx); err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			})
		},
	}
}
