package store

import (
	"context"
	"slices"
	"sync"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
)

// Memory implements every directory store interface in process. Register
// holds the lock across both inserts so it is atomic like the SQL version.
type Memory struct {
	mu          sync.RWMutex
	services    map[id.ServiceID]*directory.Service
	keys        map[id.ServiceID][]*directory.Key
	definitions map[id.ServiceID]*directory.Definition
	users       map[id.UserID]*directory.User
	identifiers map[id.IdentifierID]*directory.Identifier
}

func NewMemory() *Memory {
	return &Memory{
		services:    make(map[id.ServiceID]*directory.Service),
		keys:        make(map[id.ServiceID][]*directory.Key),
		definitions: make(map[id.ServiceID]*directory.Definition),
		users:       make(map[id.UserID]*directory.User),
		identifiers: make(map[id.IdentifierID]*directory.Identifier),
	}
}

func (m *Memory) FindService(_ context.Context, serviceID id.ServiceID) (*directory.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.services[serviceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (m *Memory) FindServiceByName(_ context.Context, name string) (*directory.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, svc := range m.services {
		if svc.Name == name {
			cp := *svc
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) CreateService(_ context.Context, service *directory.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.services {
		if existing.Name == service.Name {
			return sentinel.ErrConflict
		}
	}
	cp := *service
	m.services[service.ID] = &cp
	return nil
}

func (m *Memory) PreferredKey(_ context.Context, serviceID id.ServiceID, kind directory.KeyKind) (*directory.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *directory.Key
	for _, k := range m.keys[serviceID] {
		if !k.IsActive || k.Kind != kind {
			continue
		}
		if best == nil || k.Priority > best.Priority {
			best = k
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *best
	cp.Value = slices.Clone(best.Value)
	return &cp, nil
}

func (m *Memory) CreateKey(_ context.Context, key *directory.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[key.ServiceID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *key
	cp.Value = slices.Clone(key.Value)
	m.keys[key.ServiceID] = append(m.keys[key.ServiceID], &cp)
	return nil
}

func (m *Memory) DefaultDefinition(_ context.Context, serviceID id.ServiceID) (*directory.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.definitions[serviceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *def
	cp.Fields = slices.Clone(def.Fields)
	return &cp, nil
}

func (m *Memory) SetDefaultDefinition(_ context.Context, def *directory.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[def.ServiceID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *def
	cp.Fields = slices.Clone(def.Fields)
	cp.IsDefault = true
	m.definitions[def.ServiceID] = &cp
	return nil
}

func (m *Memory) FindUser(_ context.Context, userID id.UserID) (*directory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindIdentifier(_ context.Context, identifierID id.IdentifierID) (*directory.Identifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ident, ok := m.identifiers[identifierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

func (m *Memory) FindIdentifierByValue(_ context.Context, value string) (*directory.Identifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ident := range m.identifiers {
		if ident.Value == value {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) Register(_ context.Context, user *directory.User, identifier *directory.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range m.identifiers {
		if existing.Value == identifier.Value {
			return sentinel.ErrConflict
		}
	}
	u := *user
	ident := *identifier
	m.users[user.ID] = &u
	m.identifiers[identifier.ID] = &ident
	return nil
}

var (
	_ directory.ServiceStore    = (*Memory)(nil)
	_ directory.KeyStore        = (*Memory)(nil)
	_ directory.DefinitionStore = (*Memory)(nil)
	_ directory.UserStore       = (*Memory)(nil)
	_ directory.IdentifierStore = (*Memory)(nil)
	_ directory.Registrar       = (*Memory)(nil)
)
