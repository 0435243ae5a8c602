package provider

import (
	"fmt"
	"sync"

	"configllm/internal/domain"
	"configllm/internal/port"
)

// registry of provider factories, populated via RegisterProvider at startup.
// Keys are restricted to the closed set domain.ProviderKinds.
var (
	providersMu sync.RWMutex
	providers   = map[domain.ProviderKind]port.ProviderFactory{}
)

// RegisterProvider registers the factory for one provider kind.
func RegisterProvider(kind domain.ProviderKind, factory port.ProviderFactory) {
	if !kind.Valid() {
		panic(fmt.Sprintf("provider: cannot register unknown kind %q", kind))
	}
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[kind] = factory
}

// NewProvider builds the adapter for settings.Provider using the registered factory.
func NewProvider(settings domain.Settings) (port.Provider, error) {
	if !settings.Provider.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, settings.Provider)
	}
	providersMu.RLock()
	factory, ok := providers[settings.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q has no registered adapter", domain.ErrUnknownProvider, settings.Provider)
	}
	return factory(settings)
}
