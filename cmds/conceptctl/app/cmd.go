package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/model/loader"
	"github.com/mandelsoft/concepts/pkg/utils"
)

type Options struct {
	fs    vfs.FileSystem
	level string
	fetch bool
}

// LoadModelSet assembles a model manager from canonical metamodel
// documents, optionally fetching external imports, and validates
// the whole set.
func (o *Options) LoadModelSet(ctx context.Context, files []string) (*model.ModelManager, error) {
	mgr := model.NewModelManager()
	for _, path := range files {
		data, err := vfs.ReadFile(o.fs, path)
		if err != nil {
			return nil, err
		}
		mm, err := metamodel.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := mgr.AddMetaModel(mm); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if o.fetch {
		if err := mgr.FetchExternal(ctx, loader.New(o.fs)); err != nil {
			return nil, err
		}
	}
	if err := mgr.Validate(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs: utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	}

	maincmd := &cobra.Command{
		Use:   "conceptctl <options> <cmd> <args>",
		Short: "work with concept model sets",
		Long: `
This command assembles model sets from canonical model files,
validates them and works with typed data instances based on them.
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.ParseLevel(opts.level)
			if err != nil {
				return fmt.Errorf("invalid log level %q", opts.level)
			}
			lctx := logging.DefaultContext()
			lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("model")))
			lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("loader")))
			return nil
		},
		Run:              nil,
		TraverseChildren: true,
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.level, "log-level", "L", "warn", "log level")
	flags.BoolVarP(&opts.fetch, "fetch", "f", false, "fetch external imports")

	maincmd.AddCommand(NewValidate(opts))
	maincmd.AddCommand(NewDump(opts))
	maincmd.AddCommand(NewSample(opts))
	return maincmd
}

func modelFileArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one model file required")
	}
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return nil, fmt.Errorf("empty model file name")
		}
	}
	return args, nil
}
