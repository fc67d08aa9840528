package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/leeforge/plugincatalog/bridge"
	"github.com/leeforge/plugincatalog/concurrency"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// DefaultWorkers is the number of manifests a Dir loads concurrently.
const DefaultWorkers = 4

// Dir discovers plugins from <Root>/*/plugin.json manifests.
type Dir struct {
	Root    string
	Origin  plugin.Origin
	Logger  *zap.Logger
	Workers int
}

// NewDir creates a directory source whose items carry origin.
func NewDir(root string, origin plugin.Origin, logger *zap.Logger) *Dir {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{Root: root, Origin: origin, Logger: logger, Workers: DefaultWorkers}
}

// Discover loads every manifest under Root concurrently and returns them in
// path order. Manifests that fail to load are skipped and reported together
// in the returned error. A missing Root yields no items and no error.
func (d *Dir) Discover(ctx context.Context) ([]Discovered, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(d.Root); os.IsNotExist(err) {
		logger.Debug("plugin directory does not exist", zap.String("root", d.Root))
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(d.Root, "*", ManifestFile))
	if err != nil {
		return nil, apperrors.NewDiscovery(d.Root, err)
	}
	sort.Strings(paths)

	loaded := make([]Discovered, len(paths))
	fns := make([]func() error, len(paths))
	for i, path := range paths {
		fns[i] = func() (err error) {
			loaded[i], err = d.load(path)
			return err
		}
	}
	errs := concurrency.NewParallelExecutor(d.Workers).Execute(ctx, fns)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chain := apperrors.NewErrorChain()
	out := make([]Discovered, 0, len(paths))
	for i, path := range paths {
		if err := errs[i]; err != nil {
			logger.Warn("skipping plugin manifest", zap.String("path", path), zap.Error(err))
			chain.Add(apperrors.NewDiscovery(path, err))
			continue
		}
		out = append(out, loaded[i])
	}

	logger.Debug("plugin directory scanned",
		zap.String("root", d.Root),
		zap.Int("found", len(out)),
		zap.Int("failed", chain.Len()),
	)
	return out, chain.ErrOrNil()
}

func (d *Dir) load(path string) (Discovered, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Discovered{}, err
	}

	manifest, item, err := DecodeManifest(data)
	if err != nil {
		return Discovered{}, err
	}

	state := plugin.StateActive
	if !manifest.Enabled {
		state = plugin.StateInactive
	}
	canDisable := manifest.CanDisable

	origin := d.Origin
	if !origin.Valid() {
		origin = plugin.OriginPluginDir
	}

	return Discovered{
		Path:   path,
		Family: manifest.Family,
		Origin: origin,
		Plugin: item,
		Options: bridge.RegisterOptions{
			Origin:          origin,
			ActivationState: state,
			CanDisable:      &canDisable,
		},
	}, nil
}
