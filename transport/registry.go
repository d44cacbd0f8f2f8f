package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-lzreceiver/core"
)

type Factory func(config map[string]any) (core.Transport, error)

// Registry maps a channel's transport reference to a Transport. Built
// transports are cached so every channel bound to a ref shares one endpoint.
type Registry struct {
	mu         sync.RWMutex
	transports map[string]core.Transport
	factories  map[string]Factory
	configs    map[string]map[string]any
}

func NewRegistry() *Registry {
	return &Registry{
		transports: map[string]core.Transport{},
		factories:  map[string]Factory{},
		configs:    map[string]map[string]any{},
	}
}

// NewDefaultRegistry registers the reference endpoint under its default id.
func NewDefaultRegistry(localChainID uint32, opts ...EndpointOption) *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewEndpoint(DefaultEndpointID, localChainID, opts...))
	_ = registry.RegisterFactory("memory", EndpointFactory(opts...))
	return registry
}

// EndpointFactory builds endpoints from a config map with keys "id" and
// "local_chain_id".
func EndpointFactory(opts ...EndpointOption) Factory {
	return func(config map[string]any) (core.Transport, error) {
		id := strings.TrimSpace(fmt.Sprint(config["id"]))
		if id == "" || id == "<nil>" {
			id = DefaultEndpointID
		}
		var chainID uint32
		switch value := config["local_chain_id"].(type) {
		case nil:
		case uint32:
			chainID = value
		case int:
			if value < 0 {
				return nil, fmt.Errorf("transport: invalid local_chain_id %d", value)
			}
			chainID = uint32(value)
		default:
			return nil, fmt.Errorf("transport: invalid local_chain_id %v", value)
		}
		return NewEndpoint(id, chainID, opts...), nil
	}
}

func (r *Registry) Register(transport core.Transport) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if transport == nil {
		return fmt.Errorf("transport: transport is nil")
	}
	ref := normalizeRef(transport.ID())
	if ref == "" {
		return fmt.Errorf("transport: transport id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transports[ref]; exists {
		return fmt.Errorf("transport: transport %q already registered", ref)
	}
	r.transports[ref] = transport
	return nil
}

func (r *Registry) RegisterFactory(ref string, factory Factory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	ref = normalizeRef(ref)
	if ref == "" {
		return fmt.Errorf("transport: transport ref is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: transport factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[ref]; exists {
		return fmt.Errorf("transport: transport factory %q already registered", ref)
	}
	r.factories[ref] = factory
	return nil
}

// Configure stores the config handed to ref's factory on first resolve.
func (r *Registry) Configure(ref string, config map[string]any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[normalizeRef(ref)] = cloneMap(config)
}

func (r *Registry) Resolve(ref string) (core.Transport, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	ref = normalizeRef(ref)
	if ref == "" {
		return nil, fmt.Errorf("transport: transport ref is required")
	}

	r.mu.RLock()
	transport, ok := r.transports[ref]
	factory := r.factories[ref]
	config := cloneMap(r.configs[ref])
	r.mu.RUnlock()
	if ok {
		return transport, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("transport: transport %q not registered", ref)
	}
	if _, set := config["id"]; !set {
		config["id"] = ref
	}
	built, err := factory(config)
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil transport", ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, raced := r.transports[ref]; raced {
		return existing, nil
	}
	r.transports[ref] = built
	return built, nil
}

func (r *Registry) Get(ref string) (core.Transport, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	transport, ok := r.transports[normalizeRef(ref)]
	return transport, ok
}

func (r *Registry) List() []core.Transport {
	if r == nil {
		return []core.Transport{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.transports))
	for ref := range r.transports {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	result := make([]core.Transport, 0, len(refs))
	for _, ref := range refs {
		result = append(result, r.transports[ref])
	}
	return result
}

func normalizeRef(ref string) string {
	return strings.TrimSpace(strings.ToLower(ref))
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

var _ core.TransportResolver = (*Registry)(nil)
