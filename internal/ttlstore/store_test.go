package ttlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StoreSuite struct {
	suite.Suite
	now     time.Time
	backend *MemoryBackend
	store   *Store[record]
	ctx     context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.backend = NewMemoryBackend(WithClock(func() time.Time { return s.now }))
	s.store = New[record](s.backend, "auth")
	s.ctx = context.Background()
}

func (s *StoreSuite) TestKeyUsesPrefix() {
	sessionID := id.NewSessionID()
	s.Equal("auth-"+sessionID.String(), s.store.Key(sessionID))
}

func (s *StoreSuite) TestSetThenGet() {
	key := id.NewSessionID()
	s.Require().NoError(s.store.Set(s.ctx, key, record{Name: "ada", Count: 1}, time.Minute))

	got, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(record{Name: "ada", Count: 1}, got)
}

func (s *StoreSuite) TestSetOverwrites() {
	key := id.NewSessionID()
	s.Require().NoError(s.store.Set(s.ctx, key, record{Count: 1}, time.Minute))
	s.Require().NoError(s.store.Set(s.ctx, key, record{Count: 2}, time.Minute))

	got, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(2, got.Count)
}

func (s *StoreSuite) TestGetAfterDelIsNotFound() {
	key := id.NewSessionID()
	s.Require().NoError(s.store.Set(s.ctx, key, record{}, time.Minute))
	s.Require().NoError(s.store.Del(s.ctx, key))

	_, err := s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.True(IsNotFound(err))
}

func (s *StoreSuite) TestGetAfterTTLIsNotFound() {
	key := id.NewSessionID()
	s.Require().NoError(s.store.Set(s.ctx, key, record{}, 5*time.Minute))

	s.now = s.now.Add(5*time.Minute - time.Second)
	_, err := s.store.Get(s.ctx, key)
	s.NoError(err)

	s.now = s.now.Add(time.Second)
	_, err = s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestExtendingTTL() {
	key := id.NewSessionID()
	s.Require().NoError(s.store.Set(s.ctx, key, record{Count: 1}, 5*time.Minute))
	s.Require().NoError(s.store.Set(s.ctx, key, record{Count: 2}, 8*time.Hour))

	s.now = s.now.Add(time.Hour)
	got, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(2, got.Count)
}

func (s *StoreSuite) TestCorruptValue() {
	key := id.NewSessionID()
	s.backend.Put(s.store.Key(key), []byte("{not json"))

	_, err := s.store.Get(s.ctx, key)
	s.Require().Error(err)
	s.ErrorIs(err, ErrCorrupt)
	var corrupt *CorruptError
	s.Require().True(errors.As(err, &corrupt))
	s.Equal(s.store.Key(key), corrupt.Key)
}

func (s *StoreSuite) TestDelMissingKeyIsNoop() {
	s.NoError(s.store.Del(s.ctx, id.NewSessionID()))
}
