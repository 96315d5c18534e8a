package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"restaurant-review-api/apperr"
	"restaurant-review-api/logging"
	"restaurant-review-api/models"
	"restaurant-review-api/store"
)

type SignupInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6,max=72"`
}

// UserService handles signup, login and listing users. Passwords are stored
// as bcrypt hashes.
type UserService struct {
	store      store.Store
	log        logging.Logger
	validate   *validator.Validate
	bcryptCost int
}

type UserOption func(*UserService)

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) { s.bcryptCost = cost }
}

func NewUserService(s store.Store, log logging.Logger, opts ...UserOption) *UserService {
	svc := &UserService{
		store:      s,
		log:        log.With("component", "users"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user. A taken email yields a Conflict error whether it is
// caught by the lookup or by the store's unique index.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation(msgInvalidInputs, err)
	}

	_, err := s.store.Users().FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("User already exists.")
	case !errors.Is(err, store.ErrNotFound):
		s.log.Error(ctx, "looking up email", "error", err)
		return nil, apperr.Storage("Signing up failed.", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// max=72 counts runes; bcrypt limits bytes.
		return nil, apperr.Validation(msgInvalidInputs, err)
	}
	if err != nil {
		s.log.Error(ctx, "hashing password", "error", err)
		return nil, apperr.Storage("Signing up failed.", err)
	}

	u := &models.User{
		ID:          uuid.NewString(),
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hash),
		Restaurants: []string{},
	}
	if err := s.store.Users().Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperr.Conflict("User already exists.")
		}
		s.log.Error(ctx, "inserting user", "error", err)
		return nil, apperr.Storage("Signing up failed.", err)
	}

	s.log.Info(ctx, "user signed up", "id", u.ID)
	return u, nil
}

// Login checks the credentials and returns Unauthorized on any mismatch.
func (s *UserService) Login(ctx context.Context, email, password string) error {
	u, err := s.store.Users().FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Unauthorized("Invalid credentials.")
		}
		s.log.Error(ctx, "looking up user", "error", err)
		return apperr.Storage("Logging in failed.", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return apperr.Unauthorized("Invalid credentials.")
	}
	return nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		s.log.Error(ctx, "listing users", "error", err)
		return nil, apperr.Storage("Fetching users failed.", err)
	}
	return users, nil
}
