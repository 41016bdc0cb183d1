//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"didgate/internal/directory"
	"didgate/internal/directory/store"
	"didgate/internal/platform/postgres"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	service  *directory.Service
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "identifiers", "users", "definitions", "keys", "services"))

	svc, err := directory.NewService("shop", "https://shop.example/in", "https://shop.example/out", "https://shop.example/hook", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateService(ctx, svc))
	s.service = svc
}

func (s *PostgresStoreSuite) newUser(did string) (*directory.User, *directory.Identifier) {
	now := time.Now().UTC()
	user := &directory.User{ID: id.NewUserID(), ServiceID: s.service.ID, CreatedAt: now}
	return user, &directory.Identifier{ID: id.NewIdentifierID(), Value: did, UserID: user.ID, CreatedAt: now}
}

func (s *PostgresStoreSuite) TestServiceRoundTrip() {
	ctx := context.Background()
	found, err := s.store.FindServiceByName(ctx, "shop")
	s.Require().NoError(err)
	s.Equal(s.service.ID, found.ID)
	s.Equal(s.service.WebhookURL, found.WebhookURL)

	dup, err := directory.NewService("shop", "https://a.example", "https://a.example", "https://a.example", time.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateService(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestPreferredKeyOrdersByPriority() {
	ctx := context.Background()
	for i, value := range []string{"first", "second"} {
		s.Require().NoError(s.store.CreateKey(ctx, &directory.Key{
			ID: id.NewKeyID(), ServiceID: s.service.ID, Kind: directory.KeyKindToken,
			Value: []byte(value), Priority: i, IsActive: true, CreatedAt: time.Now(),
		}))
	}
	key, err := s.store.PreferredKey(ctx, s.service.ID, directory.KeyKindToken)
	s.Require().NoError(err)
	s.Equal([]byte("second"), key.Value)

	_, err = s.store.PreferredKey(ctx, s.service.ID, directory.KeyKindAPI)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDefaultDefinitionReplaced() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetDefaultDefinition(ctx, &directory.Definition{
		ID: id.NewDefinitionID(), ServiceID: s.service.ID, Name: "v1", Fields: []string{"Email"},
	}))
	s.Require().NoError(s.store.SetDefaultDefinition(ctx, &directory.Definition{
		ID: id.NewDefinitionID(), ServiceID: s.service.ID, Name: "v2", Fields: []string{"Given Name"},
	}))

	def, err := s.store.DefaultDefinition(ctx, s.service.ID)
	s.Require().NoError(err)
	s.Equal("v2", def.Name)
	s.Equal([]string{"Given Name"}, def.Fields)
}

// TestConcurrentRegisterCollision verifies that concurrent sign-ups for the
// same DID result in exactly one user.
func (s *PostgresStoreSuite) TestConcurrentRegisterCollision() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, ident := s.newUser("did:example:race")
			err := s.store.Register(ctx, user, ident)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one register should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")

	var users int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&users))
	s.Equal(1, users, "losing registrations must roll back their user row")
}
