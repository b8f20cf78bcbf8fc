package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/repository"
)

// UserService is the administrator's user directory.
type UserService struct {
	users UserStore
	options
}

func NewUserService(users UserStore, opts ...Option) *UserService {
	return &UserService{users: users, options: newOptions(opts)}
}

// Create validates and registers a user. Emails are unique, case-insensitively.
func (s *UserService) Create(ctx context.Context, in model.NewUserRequest) (_ *model.User, err error) {
	ctx, end := s.begin(ctx, "user.create")
	defer end(&err)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := checkLength("name", in.Name, 2, 250); err != nil {
		return nil, err
	}
	if err := checkLength("email", in.Email, 6, 254); err != nil {
		return nil, err
	}
	if !isValidEmail(in.Email) {
		return nil, apperr.BadRequest("email is not a valid email address")
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.ReasonConditions, "Email %s is already registered", in.Email)
		}
		return nil, storeErr(err, "create user")
	}
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// List pages through users, optionally restricted to ids.
func (s *UserService) List(ctx context.Context, ids []string, page model.Page) (_ []model.User, err error) {
	ctx, end := s.begin(ctx, "user.list")
	defer end(&err)

	if err := validatePage(page.From, page.Size); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx, ids, page)
	if err != nil {
		return nil, storeErr(err, "list users")
	}
	return nonNil(users), nil
}

// Delete removes a user together with their events and requests.
func (s *UserService) Delete(ctx context.Context, id string) (err error) {
	ctx, end := s.begin(ctx, "user.delete")
	defer end(&err)

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return userNotFound(id)
		}
		return storeErr(err, "delete user")
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
