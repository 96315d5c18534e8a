// Package services holds the business logic of the API. RestaurantService
// keeps every restaurant and its creator's back-reference list consistent by
// writing both inside one store transaction.
package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"restaurant-review-api/apperr"
	"restaurant-review-api/logging"
	"restaurant-review-api/models"
	"restaurant-review-api/store"
)

const msgInvalidInputs = "Invalid inputs passed."

type CreateRestaurantInput struct {
	Title       string `validate:"required"`
	Description string `validate:"min=5"`
	Address     string `validate:"required"`
	Creator     string `validate:"required"`
}

type UpdateRestaurantInput struct {
	Title       string `validate:"required"`
	Description string `validate:"min=5"`
}

type RestaurantService struct {
	store    store.Store
	log      logging.Logger
	validate *validator.Validate
}

func NewRestaurantService(s store.Store, log logging.Logger) *RestaurantService {
	return &RestaurantService{
		store:    s,
		log:      log.With("component", "restaurants"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateRestaurant inserts the restaurant and appends its id to the
// creator's restaurant list in one transaction.
func (s *RestaurantService) CreateRestaurant(ctx context.Context, in CreateRestaurantInput) (*models.Restaurant, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation(msgInvalidInputs, err)
	}

	creator, err := s.store.Users().FindByID(ctx, in.Creator)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Could not find user for provided Id")
		}
		s.log.Error(ctx, "looking up creator", "creator", in.Creator, "error", err)
		return nil, apperr.Storage("Creating restaurant failed.", err)
	}

	r := &models.Restaurant{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		CreatorID:   creator.ID,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Restaurants().Insert(ctx, r); err != nil {
			return err
		}
		// Re-read so the append applies to the version visible in this transaction.
		owner, err := tx.Users().FindByID(ctx, creator.ID)
		if err != nil {
			return err
		}
		owner.AddRestaurant(r.ID)
		return tx.Users().Update(ctx, owner)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Could not find user for provided Id")
		}
		s.log.Error(ctx, "creating restaurant", "creator", creator.ID, "error", err)
		return nil, apperr.Storage("Creating restaurant failed.", err)
	}

	s.log.Info(ctx, "restaurant created", "id", r.ID, "creator", creator.ID)
	return r, nil
}

// DeleteRestaurant removes the restaurant and its id from the creator's list
// in one transaction.
func (s *RestaurantService) DeleteRestaurant(ctx context.Context, id string) error {
	rc, err := s.store.Restaurants().FindByIDWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Could not find restaurant for this id.")
		}
		s.log.Error(ctx, "looking up restaurant", "id", id, "error", err)
		return apperr.Storage("Something went wrong, could not delete restaurant", err)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Restaurants().Delete(ctx, id); err != nil {
			return err
		}
		owner, err := tx.Users().FindByID(ctx, rc.Creator.ID)
		if err != nil {
			return err
		}
		owner.RemoveRestaurant(id)
		return tx.Users().Update(ctx, owner)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Could not find restaurant for this id.")
		}
		s.log.Error(ctx, "deleting restaurant", "id", id, "error", err)
		return apperr.Storage("Something went wrong, could not delete restaurant", err)
	}

	s.log.Info(ctx, "restaurant deleted", "id", id, "creator", rc.Creator.ID)
	return nil
}

// UpdateRestaurantByID changes title and description. Ownership is untouched,
// so no transaction is needed.
func (s *RestaurantService) UpdateRestaurantByID(ctx context.Context, id string, in UpdateRestaurantInput) (*models.Restaurant, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation(msgInvalidInputs, err)
	}

	r, err := s.store.Restaurants().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Could not find restaurant for this id.")
		}
		s.log.Error(ctx, "looking up restaurant", "id", id, "error", err)
		return nil, apperr.Storage("Something went wrong, could not update restaurant", err)
	}

	r.Title = in.Title
	r.Description = in.Description
	if err := s.store.Restaurants().Update(ctx, r); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Could not find restaurant for this id.")
		}
		s.log.Error(ctx, "updating restaurant", "id", id, "error", err)
		return nil, apperr.Storage("Something went wrong, could not update restaurant", err)
	}
	return r, nil
}

func (s *RestaurantService) GetAllRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.store.Restaurants().FindAll(ctx)
	if err != nil {
		s.log.Error(ctx, "listing restaurants", "error", err)
		return nil, apperr.Storage("Fetching restaurants failed.", err)
	}
	return restaurants, nil
}

func (s *RestaurantService) GetRestaurantByID(ctx context.Context, id string) (*models.Restaurant, error) {
	r, err := s.store.Restaurants().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("could not find a restaurant for the provided Id")
		}
		s.log.Error(ctx, "looking up restaurant", "id", id, "error", err)
		return nil, apperr.Storage("Something went wrong, could not find a restaurant", err)
	}
	return r, nil
}

// GetRestaurantsByUserID returns NotFound when the user has no restaurants,
// whether or not the user exists.
func (s *RestaurantService) GetRestaurantsByUserID(ctx context.Context, userID string) ([]models.Restaurant, error) {
	restaurants, err := s.store.Restaurants().FindByCreator(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "listing restaurants by user", "user", userID, "error", err)
		return nil, apperr.Storage("Fetching restaurants failed.", err)
	}
	if len(restaurants) == 0 {
		return nil, apperr.NotFound("could not find restaurants for the provided user Id")
	}
	return restaurants, nil
}
