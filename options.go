package props

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-props/log"
	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/state"
)

// DefaultName is the file name, without extension, used by Save and Load.
const DefaultName = "properties"

// PathResolver maps a caller supplied path to the path handed to a format.
type PathResolver func(path string) string

// Option configures Properties.
type Option func(*config)

type config struct {
	formats         []Format
	format          string
	defaultName     string
	resolvePath     PathResolver
	logger          log.Logger
	evaluator       Evaluator
	engine          string
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
	snapshots       state.Store[[]*Record]
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = log.DiscardLogger
	}
	if cfg.defaultName == "" {
		cfg.defaultName = DefaultName
	}
	if cfg.resolvePath == nil {
		cfg.resolvePath = filepath.Clean
	}
	if cfg.format == "" {
		cfg.format = (&BinaryFormat{}).Extension()
	}
	if cfg.snapshots == nil {
		cfg.snapshots = state.NewMemoryStore(state.WithClone(cloneRecords))
	}
	return cfg
}

// WithFormat selects the format used by Save, SaveAs and SaveSnapshot by
// extension. The default is "ser".
func WithFormat(extension string) Option {
	return func(cfg *config) {
		cfg.format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".")
	}
}

// WithFormats registers additional formats. A format whose extension is
// already registered replaces the earlier one.
func WithFormats(formats ...Format) Option {
	return func(cfg *config) {
		cfg.formats = append(cfg.formats, formats...)
	}
}

// WithDefaultName sets the file name used by Save and Load.
func WithDefaultName(name string) Option {
	return func(cfg *config) {
		cfg.defaultName = strings.TrimSpace(name)
	}
}

// WithPathResolver installs the function that normalizes every path before it
// reaches a format.
func WithPathResolver(resolver PathResolver) Option {
	return func(cfg *config) {
		cfg.resolvePath = resolver
	}
}

// WithBaseDir resolves relative paths against dir.
func WithBaseDir(dir string) Option {
	return WithPathResolver(func(path string) string {
		if filepath.IsAbs(path) || dir == "" {
			return filepath.Clean(path)
		}
		return filepath.Join(dir, path)
	})
}

// WithLogger sets the logger used by Properties and the built-in formats.
func WithLogger(logger log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithEvaluator configures the evaluator used by Select and SaveWhere.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithEvaluatorEngine picks a built-in evaluator by name: "expr" (the
// default), "cel" or "js". The js engine needs the js_eval build tag.
func WithEvaluatorEngine(name string) Option {
	return func(cfg *config) {
		cfg.engine = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithProgramCache registers a cache for compiled selection programs.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithSnapshotStore replaces the in-memory snapshot store.
func WithSnapshotStore(store state.Store[[]*Record]) Option {
	return func(cfg *config) {
		cfg.snapshots = store
	}
}
