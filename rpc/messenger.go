package rpc

import (
	"context"
	"sync"
)

// Messenger pools DiscoveryClients by address, the same shape as the
// teacher's cluster/client.clientMgr keyed by node id rather than by the
// raw address a catalog peer is addressed by.
type Messenger interface {
	Get(ctx context.Context, addr string) (DiscoveryClient, error)
	Close()
}

type Config struct {
	Transport TransportConfig `json:"transport"`
}

type messenger struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]DiscoveryClient
}

func NewMessenger(cfg Config) Messenger {
	return &messenger{cfg: cfg, clients: make(map[string]DiscoveryClient)}
}

func (m *messenger) Get(ctx context.Context, addr string) (DiscoveryClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[addr]; ok {
		return c, nil
	}
	c, err := DialDiscoveryClient(addr, m.cfg.Transport)
	if err != nil {
		return nil, err
	}
	m.clients[addr] = c
	return c, nil
}

func (m *messenger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for addr, c := range m.clients {
		c.Close()
		delete(m.clients, addr)
	}
}
