package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"restaurant-review-api/logging"
	"restaurant-review-api/models"
	"restaurant-review-api/store"
)

var errInjected = errors.New("injected store fault")

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "services.db") + "?_pragma=busy_timeout(5000)"
	s, err := store.OpenSQLite(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newServices(t *testing.T, s store.Store) (*UserService, *RestaurantService) {
	t.Helper()
	log := logging.Nop()
	return NewUserService(s, log, WithBcryptCost(bcrypt.MinCost)), NewRestaurantService(s, log)
}

func signup(t *testing.T, users *UserService, email string) *models.User {
	t.Helper()
	u, err := users.Signup(context.Background(), SignupInput{
		Username: "maria",
		Email:    email,
		Password: "maria*123",
	})
	require.NoError(t, err)
	return u
}

// faultyStore wraps a real store and fails selected operations. Faults apply
// inside transactions too, so rollback behaviour is exercised for real.
type faultyStore struct {
	store.Store
	failUserUpdate       bool
	failRestaurantInsert bool
	failRestaurantDelete bool
	failFindAll          bool
	hideEmails           bool
}

func (f *faultyStore) Users() store.UserRepository {
	return &faultyUsers{UserRepository: f.Store.Users(), f: f}
}

func (f *faultyStore) Restaurants() store.RestaurantRepository {
	return &faultyRestaurants{RestaurantRepository: f.Store.Restaurants(), f: f}
}

func (f *faultyStore) WithTx(ctx context.Context, fn store.TxFunc) error {
	return f.Store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		inner := *f
		inner.Store = tx
		return fn(ctx, &inner)
	})
}

type faultyUsers struct {
	store.UserRepository
	f *faultyStore
}

func (u *faultyUsers) Update(ctx context.Context, user *models.User) error {
	if u.f.failUserUpdate {
		return errInjected
	}
	return u.UserRepository.Update(ctx, user)
}

func (u *faultyUsers) FindAll(ctx context.Context) ([]models.User, error) {
	if u.f.failFindAll {
		return nil, errInjected
	}
	return u.UserRepository.FindAll(ctx)
}

// FindByEmail pretends no user exists, simulating a concurrent signup that
// passed the lookup before the other one committed.
func (u *faultyUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u.f.hideEmails {
		return nil, store.ErrNotFound
	}
	return u.UserRepository.FindByEmail(ctx, email)
}

type faultyRestaurants struct {
	store.RestaurantRepository
	f *faultyStore
}

func (r *faultyRestaurants) Insert(ctx context.Context, rest *models.Restaurant) error {
	if r.f.failRestaurantInsert {
		return errInjected
	}
	return r.RestaurantRepository.Insert(ctx, rest)
}

func (r *faultyRestaurants) Delete(ctx context.Context, id string) error {
	if r.f.failRestaurantDelete {
		return errInjected
	}
	return r.RestaurantRepository.Delete(ctx, id)
}

func (r *faultyRestaurants) FindAll(ctx context.Context) ([]models.Restaurant, error) {
	if r.f.failFindAll {
		return nil, errInjected
	}
	return r.RestaurantRepository.FindAll(ctx)
}
