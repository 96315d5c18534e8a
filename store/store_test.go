package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"restaurant-review-api/models"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	s, err := OpenSQLite(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newMongoStore(t *testing.T) Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := OpenMongo(ctx, uri, "restaurant_review_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestGormStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore)
}

func TestMongoStore(t *testing.T) {
	runStoreSuite(t, newMongoStore)
}

func newUser(email string) *models.User {
	return &models.User{ID: uuid.NewString(), Username: "maria", Email: email, Password: "hash"}
}

func newRestaurant(creator string) *models.Restaurant {
	return &models.Restaurant{
		ID:          uuid.NewString(),
		Title:       "Pizza Place",
		Description: "Great pizza",
		Address:     "123 Main St",
		CreatorID:   creator,
	}
}

func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	for name, test := range map[string]func(t *testing.T, s Store){
		"UserInsertAndFind": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("maria@up.com.ar")
			require.NoError(t, s.Users().Insert(ctx, u))

			got, err := s.Users().FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "maria@up.com.ar", got.Email)
			assert.Empty(t, got.Restaurants)
			assert.NotNil(t, got.Restaurants)

			got, err = s.Users().FindByEmail(ctx, "maria@up.com.ar")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
		},
		"UserNotFound": func(t *testing.T, s Store) {
			_, err := s.Users().FindByID(context.Background(), uuid.NewString())
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Users().FindByEmail(context.Background(), "nobody@example.com")
			assert.ErrorIs(t, err, ErrNotFound)
		},
		"UserEmailUnique": func(t *testing.T, s Store) {
			ctx := context.Background()
			require.NoError(t, s.Users().Insert(ctx, newUser("dup@example.com")))
			err := s.Users().Insert(ctx, newUser("dup@example.com"))
			assert.ErrorIs(t, err, ErrDuplicateKey)

			users, err := s.Users().FindAll(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 1)
		},
		"UserUpdateKeepsOrder": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("order@example.com")
			require.NoError(t, s.Users().Insert(ctx, u))

			u.AddRestaurant("r1")
			u.AddRestaurant("r2")
			require.NoError(t, s.Users().Update(ctx, u))

			got, err := s.Users().FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"r1", "r2"}, got.Restaurants)

			missing := newUser("ghost@example.com")
			assert.ErrorIs(t, s.Users().Update(ctx, missing), ErrNotFound)
		},
		"RestaurantCRUD": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("owner@example.com")
			require.NoError(t, s.Users().Insert(ctx, u))
			r := newRestaurant(u.ID)
			require.NoError(t, s.Restaurants().Insert(ctx, r))

			got, err := s.Restaurants().FindByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "Pizza Place", got.Title)
			assert.Equal(t, u.ID, got.CreatorID)

			got.Title = "Pasta Place"
			got.Description = "Great pasta"
			got.Address = "ignored"
			require.NoError(t, s.Restaurants().Update(ctx, got))

			got, err = s.Restaurants().FindByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "Pasta Place", got.Title)
			assert.Equal(t, "Great pasta", got.Description)
			assert.Equal(t, "123 Main St", got.Address)

			byCreator, err := s.Restaurants().FindByCreator(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, byCreator, 1)

			all, err := s.Restaurants().FindAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)

			require.NoError(t, s.Restaurants().Delete(ctx, r.ID))
			_, err = s.Restaurants().FindByID(ctx, r.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Restaurants().Delete(ctx, r.ID), ErrNotFound)
			assert.ErrorIs(t, s.Restaurants().Update(ctx, r), ErrNotFound)
		},
		"FindByIDWithCreator": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("joined@example.com")
			require.NoError(t, s.Users().Insert(ctx, u))
			r := newRestaurant(u.ID)
			require.NoError(t, s.Restaurants().Insert(ctx, r))

			got, err := s.Restaurants().FindByIDWithCreator(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, r.ID, got.Restaurant.ID)
			assert.Equal(t, u.ID, got.Creator.ID)
			assert.Equal(t, "joined@example.com", got.Creator.Email)

			orphan := newRestaurant(uuid.NewString())
			require.NoError(t, s.Restaurants().Insert(ctx, orphan))
			_, err = s.Restaurants().FindByIDWithCreator(ctx, orphan.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Restaurants().FindByIDWithCreator(ctx, uuid.NewString())
			assert.ErrorIs(t, err, ErrNotFound)
		},
		"TxCommit": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("commit@example.com")
			require.NoError(t, s.Users().Insert(ctx, u))
			r := newRestaurant(u.ID)

			err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
				if err := tx.Restaurants().Insert(ctx, r); err != nil {
					return err
				}
				owner, err := tx.Users().FindByID(ctx, u.ID)
				if err != nil {
					return err
				}
				owner.AddRestaurant(r.ID)
				return tx.Users().Update(ctx, owner)
			})
			require.NoError(t, err)

			owner, err := s.Users().FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{r.ID}, owner.Restaurants)
			_, err = s.Restaurants().FindByID(ctx, r.ID)
			assert.NoError(t, err)
		},
		"TxRollback": func(t *testing.T, s Store) {
			ctx := context.Background()
			u := newUser("rollback@example.com")
			require.NoError(t, s.Users().Insert(ctx, u))
			r := newRestaurant(u.ID)
			boom := errors.New("boom")

			err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
				if err := tx.Restaurants().Insert(ctx, r); err != nil {
					return err
				}
				owner, err := tx.Users().FindByID(ctx, u.ID)
				if err != nil {
					return err
				}
				owner.AddRestaurant(r.ID)
				if err := tx.Users().Update(ctx, owner); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			_, err = s.Restaurants().FindByID(ctx, r.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			owner, err := s.Users().FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Empty(t, owner.Restaurants)
		},
	} {
		t.Run(name, func(t *testing.T) {
			test(t, open(t))
		})
	}
}
