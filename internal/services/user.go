package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/dbctx"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
	"github.com/shamss11/pychiatrist-backend/internal/repos"
)

const bootstrapUsername = "journal_user"

type UserService interface {
	// EnsureBootstrapUser creates the single local user if absent and
	// returns it. There is no account system; the credential is a hashed
	// placeholder so the column is never stored in clear.
	EnsureBootstrapUser(ctx context.Context) (*domain.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) EnsureBootstrapUser(ctx context.Context) (*domain.User, error) {
	existing, err := us.userRepo.GetByUsername(dbctx.Context{Ctx: ctx}, bootstrapUsername)
	if err != nil {
		return nil, fmt.Errorf("lookup bootstrap user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("local-placeholder"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder credential: %w", err)
	}

	user := &domain.User{
		Username: bootstrapUsername,
		Password: string(hashed),
	}
	if err := us.userRepo.Create(dbctx.Context{Ctx: ctx}, user); err != nil {
		return nil, fmt.Errorf("create bootstrap user: %w", err)
	}
	us.log.Info("Bootstrap user created", "user_id", user.ID)
	return user, nil
}
