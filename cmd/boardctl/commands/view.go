package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-client/internal/core/service"
)

func newViewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <resource-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Record a view of a resource, at most once per 24 hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				scope := service.NewViewScope(ctx)
				defer scope.Close()

				counted, err := a.views.RecordView(scope.Context(), id)
				if err != nil {
					return err
				}
				scope.Apply(func() {
					if counted {
						fmt.Fprintf(out, "view of %d recorded\n", id)
					} else {
						fmt.Fprintf(out, "view of %d already counted today\n", id)
					}
				})
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
