package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List reference models and the current selection",
		Long: `Lists the known reference models. Models marked with [x] are selected for the
user's session; use /toggle in the chat to change the selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.build(cmd.Context()); err != nil {
				return err
			}

			sess, err := a.moa.LoadSession(a.userID)
			if err != nil {
				return err
			}

			params := a.moa.Params(sess)
			r := newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr())

			r.title("Reference models")
			fmt.Fprint(r.out, r.modelList(knownModels(a.cfg.Generation.ReferenceModels, sess.Models()), params.ReferenceModels, params.AggregatorModel))
			return nil
		},
	}
}
