package mediation

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/echoface/admediation/pkg/logger"
)

// NetworkConfig is the per ad network SDK setup taken from host config.
type NetworkConfig struct {
	Endpoint string        `mapstructure:"endpoint" json:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Services carries the runtime dependencies handed to adapter factories.
// Network SDKs are shared by every adapter instance of one host, like the
// process wide singletons they are on device.
type Services struct {
	Logger     logger.Logger
	HTTPClient *http.Client
	Networks   map[string]NetworkConfig

	mu         sync.Mutex
	singletons map[string]any
}

func NewServices(l logger.Logger, client *http.Client, networks map[string]NetworkConfig) *Services {
	if l == nil {
		l = logger.Default
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Services{
		Logger:     l,
		HTTPClient: client,
		Networks:   networks,
		singletons: make(map[string]any),
	}
}

// Network returns the config for name; zero value when absent.
func (s *Services) Network(name string) NetworkConfig {
	return s.Networks[name]
}

// Singleton returns the value stored under key, building it on first use.
func Singleton[T any](s *Services, key string, build func() T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.singletons[key]; ok {
		return v.(T)
	}
	v := build()
	s.singletons[key] = v
	return v
}

// Factory builds a fresh adapter instance. The host creates one instance per
// ad request, as the mobile host does.
type Factory func(s *Services) Adapter

// Registry manages adapter factories keyed by adapter class name.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a factory under className
func (r *Registry) Register(className string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %q", className)
	}
	if className == "" {
		return fmt.Errorf("adapter class name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[className]; exists {
		return fmt.Errorf("adapter '%s' is already registered", className)
	}
	r.factories[className] = factory
	return nil
}

// New creates an adapter instance of className
func (r *Registry) New(className string, s *Services) (Adapter, error) {
	r.mu.RLock()
	factory, exists := r.factories[className]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("adapter '%s' not found", className)
	}
	return factory(s), nil
}

// Has checks if className is registered
func (r *Registry) Has(className string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[className]
	return exists
}

// Unregister removes className from the registry
func (r *Registry) Unregister(className string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[className]; !exists {
		return fmt.Errorf("adapter '%s' not found", className)
	}
	delete(r.factories, className)
	return nil
}

// Names returns the registered class names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered adapters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Global registry instance; adapter packages register themselves in init().
var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// DefaultRegistry returns the global adapter registry (singleton)
func DefaultRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// MustRegister registers into the global registry and panics on conflict.
func MustRegister(className string, factory Factory) {
	if err := DefaultRegistry().Register(className, factory); err != nil {
		panic(err)
	}
}
