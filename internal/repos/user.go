package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/dbctx"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *domain.User) error
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*domain.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*domain.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return ur.db
}

func (ur *userRepo) Create(dbc dbctx.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return ur.conn(dbc).WithContext(dbc.Ctx).Create(user).Error
}

func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := ur.conn(dbc).WithContext(dbc.Ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByUsername(dbc dbctx.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ur.conn(dbc).WithContext(dbc.Ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
