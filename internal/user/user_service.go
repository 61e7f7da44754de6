package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chathub/internal/common"
	"chathub/internal/dbmysql"
)

type UserService interface {
	CreateUser(ctx context.Context, username, password string) (*dbmysql.User, string, error)
	Login(ctx context.Context, username, password string) (*dbmysql.User, string, error)
	GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error)
	UpdateUserStatus(ctx context.Context, userID, status string) (*dbmysql.User, error)
}

type userService struct {
	userRepo UserRepository
}

func NewUserService(userRepo UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, username, password string) (*dbmysql.User, string, error) {
	if err := common.ValidateUsername(username); err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	taken, err := s.userRepo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", fmt.Errorf("%w: username already exists", common.ErrConflict)
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &dbmysql.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashed,
		Status:       dbmysql.StatusOnline,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := common.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*dbmysql.User, string, error) {
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username and password required", common.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("%w: invalid username or password", common.ErrAccessDenied)
	}
	if err != nil {
		return nil, "", err
	}

	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", fmt.Errorf("%w: invalid username or password", common.ErrAccessDenied)
	}

	token, err := common.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}
	return user, err
}

// UpdateUserStatus changes presence and stamps last_seen when the user
// goes offline.
func (s *userService) UpdateUserStatus(ctx context.Context, userID, status string) (*dbmysql.User, error) {
	if !dbmysql.ValidStatus(status) {
		return nil, fmt.Errorf("%w: status must be one of online, away, busy, offline", common.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	user.Status = status
	if status == dbmysql.StatusOffline {
		now := time.Now().UTC()
		user.LastSeen = &now
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
