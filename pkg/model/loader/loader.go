// Package loader fetches external model definitions for imports
// carrying a resolution URI. It resolves http(s) URIs over the
// network and everything else as (virtual) file system paths.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/utils"
)

var REALM = logging.DefineRealm("loader", "External Model Loading")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

type Loader struct {
	fs     vfs.FileSystem
	client *http.Client
}

var _ model.ExternalLoader = (*Loader)(nil)

func New(fss ...vfs.FileSystem) *Loader {
	return &Loader{
		fs:     utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		client: http.DefaultClient,
	}
}

// Load fetches the canonical metamodel document for an import.
// The URI undergoes environment variable substitution first. Each
// call is independently cancellable through its context.
func (l *Loader) Load(ctx context.Context, imp metamodel.Import) ([]byte, error) {
	if imp.URI == "" {
		return nil, fmt.Errorf("import %q carries no resolution uri", imp.Namespace)
	}
	uri, err := envsubst.EvalEnv(imp.URI)
	if err != nil {
		return nil, fmt.Errorf("substituting uri %q: %w", imp.URI, err)
	}

	log.Debug("loading {{namespace}} from {{uri}}", "namespace", imp.Namespace, "uri", uri)

	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return l.loadHTTP(ctx, uri)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vfs.ReadFile(l.fs, uri)
}

func (l *Loader) loadHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q: status %s", uri, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
