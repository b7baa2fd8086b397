package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

type Validate struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewValidate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model file> ...",
		Short: "validate a model set",
	}

	c := &Validate{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Validate) Run(args []string) error {
	files, err := modelFileArgs(args)
	if err != nil {
		return err
	}
	mgr, err := c.mainopts.LoadModelSet(c.cmd.Context(), files)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "model set with %d namespaces is valid\n", len(mgr.Namespaces()))
	return nil
}
