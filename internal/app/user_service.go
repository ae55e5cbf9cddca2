package app

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"botgpt-backend/internal/model"
	"botgpt-backend/internal/repository"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUsernameTaken = errors.New("username already registered")
	ErrUserNotFound  = errors.New("user not found")
)

const maxUsernameRunes = 64

type UserService struct {
	store *repository.Store
	hooks *conversationHooks
}

func NewUserService(store *repository.Store, opts ...Option) *UserService {
	return &UserService{store: store, hooks: newHooks(opts)}
}

func (s *UserService) Create(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameRunes {
		return nil, ErrInvalidInput
	}

	existing, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	user := &model.User{Username: username}
	if err := s.store.Users.Create(ctx, user); err != nil {
		// lost a race with a concurrent create
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the user along with every conversation they own.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	removed, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range removed {
		s.hooks.conversationDeleted(ctx, id)
	}
	return nil
}
