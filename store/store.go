// Package store persists users and restaurants. A Store exposes one
// repository per aggregate and runs multi-record writes atomically through
// WithTx. Two backends are provided: GormStore (SQLite through gorm) and
// MongoStore (MongoDB, transactions require a replica set).
package store

import (
	"context"
	"errors"

	"restaurant-review-api/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// TxFunc runs inside a transaction. It must use tx, not the outer store, for
// every read and write that belongs to the transaction.
type TxFunc func(ctx context.Context, tx Store) error

type Store interface {
	Users() UserRepository
	Restaurants() RestaurantRepository

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Calling WithTx on a transactional Store runs fn
	// in the enclosing transaction.
	WithTx(ctx context.Context, fn TxFunc) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type RestaurantRepository interface {
	Insert(ctx context.Context, r *models.Restaurant) error
	FindByID(ctx context.Context, id string) (*models.Restaurant, error)
	FindAll(ctx context.Context) ([]models.Restaurant, error)
	FindByCreator(ctx context.Context, userID string) ([]models.Restaurant, error)

	// FindByIDWithCreator returns ErrNotFound if either the restaurant or its
	// creator is missing.
	FindByIDWithCreator(ctx context.Context, id string) (*models.RestaurantWithCreator, error)

	// Update writes title and description only.
	Update(ctx context.Context, r *models.Restaurant) error
	Delete(ctx context.Context, id string) error
}
