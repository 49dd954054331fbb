package transformer

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
)

// Factory creates a transformer from options.
type Factory func(opts Options) (Transformer, error)

// Info describes a registered transformer.
type Info struct {
	Name        string
	Aliases     []string
	Description string
	// Extension is the default output filename extension.
	Extension string
	Factory   Factory
}

// Registry manages transformer registration and instantiation
type Registry struct {
	transformers map[string]*Info
	aliases      map[string]string
	mu           sync.RWMutex
	logger       *zap.Logger
}

var globalRegistry = newDefaultRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		transformers: make(map[string]*Info),
		aliases:      make(map[string]string),
		logger:       logger.Get().With(zap.String("component", "transformer_registry")),
	}
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, info := range builtins() {
		if err := r.Register(info); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a transformer and its aliases
func (r *Registry) Register(info Info) error {
	if info.Name == "" || info.Factory == nil {
		return errors.New(errors.ErrorTypeConfig, "transformer registration needs a name and a factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range append([]string{info.Name}, info.Aliases...) {
		if _, exists := r.transformers[name]; exists {
			return errors.Newf(errors.ErrorTypeConfig, "transformer %s already registered", name)
		}
		if _, exists := r.aliases[name]; exists {
			return errors.Newf(errors.ErrorTypeConfig, "transformer %s already registered", name)
		}
	}

	entry := info
	r.transformers[info.Name] = &entry
	for _, alias := range info.Aliases {
		r.aliases[alias] = info.Name
	}
	r.logger.Debug("transformer registered", zap.String("name", info.Name), zap.Strings("aliases", info.Aliases))
	return nil
}

// Lookup resolves a name or alias
func (r *Registry) Lookup(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	info, ok := r.transformers[name]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Create instantiates a transformer by name or alias
func (r *Registry) Create(name string, opts Options) (Transformer, error) {
	info, ok := r.Lookup(name)
	if !ok {
		return nil, errors.UnknownTransformer(name, r.Names())
	}

	t, err := info.Factory(opts.withDefaults(info.Extension))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create transformer "+info.Name)
	}
	return t, nil
}

// Names returns every registered name and alias, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.transformers)+len(r.aliases))
	for name := range r.transformers {
		names = append(names, name)
	}
	for alias := range r.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// List returns the registered transformers sorted by name
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.transformers))
	for _, info := range r.transformers {
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Global registry functions

// Register adds a transformer to the global registry
func Register(info Info) error {
	return globalRegistry.Register(info)
}

// Create instantiates a transformer from the global registry
func Create(name string, opts Options) (Transformer, error) {
	return globalRegistry.Create(name, opts)
}

// List returns the transformers of the global registry
func List() []Info {
	return globalRegistry.List()
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}

func builtins() []Info {
	return []Info{
		{
			Name:        TraitSuffixName,
			Aliases:     []string{"csv"},
			Description: "split columns by the growout code at the end of each trait name",
			Extension:   ".csv",
			Factory:     newTraitSuffixFactory(TraitSuffixName),
		},
		{
			Name:        PhenotypeName,
			Aliases:     []string{"csv_b", "csv_c"},
			Description: "trait-suffix split written as phenotype files",
			Extension:   ".ph.csv",
			Factory:     newTraitSuffixFactory(PhenotypeName),
		},
		{
			Name:        RowTagName,
			Aliases:     []string{"csv_a"},
			Description: "split rows by the growout code in a tag column",
			Extension:   ".csv",
			Factory:     newRowTagFactory(RowTagName),
		},
	}
}
