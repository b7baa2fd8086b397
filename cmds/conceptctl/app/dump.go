package app

import (
	"github.com/spf13/cobra"
)

type Dump struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewDump(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <model file> ...",
		Short: "print the resolved model set",
	}

	c := &Dump{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Dump) Run(args []string) error {
	files, err := modelFileArgs(args)
	if err != nil {
		return err
	}
	mgr, err := c.mainopts.LoadModelSet(c.cmd.Context(), files)
	if err != nil {
		return err
	}
	mgr.Dump(c.cmd.OutOrStdout())
	return nil
}
