package store

import (
	"context"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"restaurant-review-api/models"
)

type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Restaurant{}); err != nil {
		return nil, errors.Wrap(err, "migrating schema")
	}
	return &GormStore{db: db}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at dsn.
func OpenSQLite(dsn string, level logger.LogLevel) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database '%s'", dsn)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql handle")
	}
	// SQLite allows a single writer; serialize access instead of failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	return NewGormStore(db)
}

func (s *GormStore) Users() UserRepository             { return &gormUsers{db: s.db} }
func (s *GormStore) Restaurants() RestaurantRepository { return &gormRestaurants{db: s.db} }

func (s *GormStore) WithTx(ctx context.Context, fn TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicateKey
	default:
		return err
	}
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Insert(ctx context.Context, u *models.User) error {
	if u.Restaurants == nil {
		u.Restaurants = []string{}
	}
	if err := translate(r.db.WithContext(ctx).Create(u).Error); err != nil {
		return errors.Wrapf(err, "inserting user '%s'", u.ID)
	}
	return nil
}

func (r *gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "finding user '%s'", id)
	}
	return &u, nil
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, errors.Wrap(translate(err), "finding user by email")
	}
	return &u, nil
}

func (r *gormUsers) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "finding users")
	}
	return users, nil
}

func (r *gormUsers) Update(ctx context.Context, u *models.User) error {
	if u.Restaurants == nil {
		u.Restaurants = []string{}
	}
	res := r.db.WithContext(ctx).Model(u).Select("*").Omit("id", "created_at").Updates(u)
	if err := translate(res.Error); err != nil {
		return errors.Wrapf(err, "updating user '%s'", u.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "updating user '%s'", u.ID)
	}
	return nil
}

type gormRestaurants struct {
	db *gorm.DB
}

func (r *gormRestaurants) Insert(ctx context.Context, rest *models.Restaurant) error {
	if err := translate(r.db.WithContext(ctx).Create(rest).Error); err != nil {
		return errors.Wrapf(err, "inserting restaurant '%s'", rest.ID)
	}
	return nil
}

func (r *gormRestaurants) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.db.WithContext(ctx).First(&rest, "id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "finding restaurant '%s'", id)
	}
	return &rest, nil
}

func (r *gormRestaurants) FindAll(ctx context.Context) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&restaurants).Error; err != nil {
		return nil, errors.Wrap(err, "finding restaurants")
	}
	return restaurants, nil
}

func (r *gormRestaurants) FindByCreator(ctx context.Context, userID string) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	err := r.db.WithContext(ctx).Where("creator = ?", userID).Order("created_at asc").Find(&restaurants).Error
	if err != nil {
		return nil, errors.Wrapf(err, "finding restaurants for user '%s'", userID)
	}
	return restaurants, nil
}

func (r *gormRestaurants) FindByIDWithCreator(ctx context.Context, id string) (*models.RestaurantWithCreator, error) {
	var out models.RestaurantWithCreator
	db := r.db.WithContext(ctx)
	if err := db.First(&out.Restaurant, "id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "finding restaurant '%s'", id)
	}
	if err := db.First(&out.Creator, "id = ?", out.Restaurant.CreatorID).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "finding creator '%s' of restaurant '%s'", out.Restaurant.CreatorID, id)
	}
	return &out, nil
}

func (r *gormRestaurants) Update(ctx context.Context, rest *models.Restaurant) error {
	rest.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(rest).Select("title", "description", "updated_at").Updates(rest)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "updating restaurant '%s'", rest.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "updating restaurant '%s'", rest.ID)
	}
	return nil
}

func (r *gormRestaurants) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Restaurant{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "deleting restaurant '%s'", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "deleting restaurant '%s'", id)
	}
	return nil
}
