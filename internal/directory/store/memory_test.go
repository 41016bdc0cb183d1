package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store   *Memory
	ctx     context.Context
	service *directory.Service
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()

	svc, err := directory.NewService("shop", "https://shop.example/in", "https://shop.example/out", "https://shop.example/hook", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateService(s.ctx, svc))
	s.service = svc
}

func (s *MemoryStoreSuite) newUser(did string) (*directory.User, *directory.Identifier) {
	now := time.Now()
	user := &directory.User{ID: id.NewUserID(), ServiceID: s.service.ID, CreatedAt: now}
	ident := &directory.Identifier{ID: id.NewIdentifierID(), Value: did, UserID: user.ID, CreatedAt: now}
	return user, ident
}

func (s *MemoryStoreSuite) TestServices() {
	s.Run("finds by id and name", func() {
		found, err := s.store.FindService(s.ctx, s.service.ID)
		s.Require().NoError(err)
		s.Equal("shop", found.Name)

		byName, err := s.store.FindServiceByName(s.ctx, "shop")
		s.Require().NoError(err)
		s.Equal(s.service.ID, byName.ID)
	})

	s.Run("rejects duplicate name", func() {
		dup, err := directory.NewService("shop", "https://a.example", "https://a.example", "https://a.example", time.Now())
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreateService(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("unknown service is not found", func() {
		_, err := s.store.FindService(s.ctx, id.NewServiceID())
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindServiceByName(s.ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestPreferredKey() {
	add := func(kind directory.KeyKind, priority int, active bool, value string) {
		s.Require().NoError(s.store.CreateKey(s.ctx, &directory.Key{
			ID:        id.NewKeyID(),
			ServiceID: s.service.ID,
			Kind:      kind,
			Value:     []byte(value),
			Priority:  priority,
			IsActive:  active,
			CreatedAt: time.Now(),
		}))
	}
	add(directory.KeyKindToken, 1, true, "low")
	add(directory.KeyKindToken, 5, true, "high")
	add(directory.KeyKindToken, 9, false, "inactive")
	add(directory.KeyKindAPI, 10, true, "api")

	key, err := s.store.PreferredKey(s.ctx, s.service.ID, directory.KeyKindToken)
	s.Require().NoError(err)
	s.Equal([]byte("high"), key.Value)

	_, err = s.store.PreferredKey(s.ctx, id.NewServiceID(), directory.KeyKindToken)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.CreateKey(s.ctx, &directory.Key{ServiceID: id.NewServiceID()}), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDefaultDefinition() {
	_, err := s.store.DefaultDefinition(s.ctx, s.service.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.SetDefaultDefinition(s.ctx, &directory.Definition{
		ID: id.NewDefinitionID(), ServiceID: s.service.ID, Name: "v1", Fields: []string{"Email"},
	}))
	s.Require().NoError(s.store.SetDefaultDefinition(s.ctx, &directory.Definition{
		ID: id.NewDefinitionID(), ServiceID: s.service.ID, Name: "v2", Fields: []string{"Given Name", "Email"},
	}))

	def, err := s.store.DefaultDefinition(s.ctx, s.service.ID)
	s.Require().NoError(err)
	s.Equal("v2", def.Name)
	s.True(def.IsDefault)
	s.Equal([]string{"Given Name", "Email"}, def.Fields)
}

func (s *MemoryStoreSuite) TestRegister() {
	s.Run("creates user and identifier", func() {
		user, ident := s.newUser("did:example:alice")
		s.Require().NoError(s.store.Register(s.ctx, user, ident))

		found, err := s.store.FindIdentifierByValue(s.ctx, "did:example:alice")
		s.Require().NoError(err)
		s.Equal(user.ID, found.UserID)

		byID, err := s.store.FindIdentifier(s.ctx, ident.ID)
		s.Require().NoError(err)
		s.Equal(ident.Value, byID.Value)

		u, err := s.store.FindUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(s.service.ID, u.ServiceID)
	})

	s.Run("duplicate identifier leaves no user behind", func() {
		user, ident := s.newUser("did:example:alice")
		s.ErrorIs(s.store.Register(s.ctx, user, ident), sentinel.ErrConflict)

		_, err := s.store.FindUser(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestConcurrentRegisterSameIdentifier() {
	const goroutines = 50
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, ident := s.newUser("did:example:race")
			switch err := s.store.Register(s.ctx, user, ident); err {
			case nil:
				successes.Add(1)
			case sentinel.ErrConflict:
				conflicts.Add(1)
			default:
				s.Fail(fmt.Sprintf("unexpected error: %v", err))
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
