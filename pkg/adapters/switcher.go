package adapters

import (
	"strings"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/client"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/provider"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/transport"
)

// TransportFactory builds a fresh provider socket for one session.
type TransportFactory func() transport.Transport

type providerEntry struct {
	adapter   provider.Adapter
	transport TransportFactory
}

// Switcher resolves adapters and transports from provider/client
// identifiers. Register everything during setup; resolution is read-only and
// safe for unlimited concurrent use across sessions.
type Switcher struct {
	providers map[string]providerEntry
	clients   map[string]client.Adapter
	fallback  client.Adapter
}

// NewSwitcher creates an empty registry with the generic client adapter as
// fallback.
func NewSwitcher() *Switcher {
	return &Switcher{
		providers: make(map[string]providerEntry),
		clients:   make(map[string]client.Adapter),
		fallback:  client.NewGenericAdapter(),
	}
}

// RegisterProvider binds a provider id to its adapter and transport factory.
// A nil factory defaults to a fresh WssClient per session.
func (s *Switcher) RegisterProvider(id string, adapter provider.Adapter, factory TransportFactory) {
	if factory == nil {
		factory = func() transport.Transport { return transport.NewWssClient() }
	}
	s.providers[normalizeID(id)] = providerEntry{adapter: adapter, transport: factory}
}

// RegisterClient binds a client kind to its adapter.
func (s *Switcher) RegisterClient(id string, adapter client.Adapter) {
	s.clients[normalizeID(id)] = adapter
}

// ResolveProvider returns the provider's adapter and a fresh transport.
func (s *Switcher) ResolveProvider(id string) (provider.Adapter, transport.Transport, error) {
	entry, ok := s.providers[normalizeID(id)]
	if !ok {
		return nil, nil, errorsx.New(errorsx.ReasonAdapterNotRegistered, "provider not registered: %s", id)
	}
	return entry.adapter, entry.transport(), nil
}

// ResolveClient returns the client adapter for a kind, falling back to the
// generic adapter for unknown kinds.
func (s *Switcher) ResolveClient(id string) client.Adapter {
	if adapter, ok := s.clients[normalizeID(id)]; ok {
		return adapter
	}
	return s.fallback
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
