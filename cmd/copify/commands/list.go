package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/copify/cmd/copify/opts"
	"github.com/walteh/copify/pkg/coordinator"
	"github.com/walteh/copify/pkg/job"
	"gitlab.com/tozd/go/errors"
)

// NewListCmd creates the list command
func NewListCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <directory>",
		Short: "List the Ableton Live projects a run would process",
		Long: `List walks a directory for .als projects, leaving out the ones kept in
Backup folders. Nothing is changed on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, release, err := o.Boundary(ctx, nil)
			if err != nil {
				return err
			}
			defer release()

			c := coordinator.New[job.CopifySettings](job.Copify, b)
			items, err := c.ListCandidateItems(ctx, args[0])
			if err != nil {
				return errors.Errorf("listing projects: %w", err)
			}

			o.Logger.Header("projects in " + args[0])
			for _, item := range items {
				o.Logger.Info(item)
			}
			o.Logger.Successf("%d projects found", len(items))
			return nil
		},
	}
	return cmd
}
