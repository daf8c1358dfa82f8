package repository

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fjod/go_storefront/internal/docstore"
	"github.com/fjod/go_storefront/internal/domain"
)

type UserRepository struct {
	docs docstore.Collection[domain.UserProfile]
}

func NewUserRepository(docs docstore.Collection[domain.UserProfile]) *UserRepository {
	return &UserRepository{docs: docs}
}

// ProfileUpdate carries the editable profile fields; nil fields are left alone.
// Email is only changed through user administration.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Create stores a profile under profile.ID.
func (r *UserRepository) Create(ctx context.Context, profile domain.UserProfile) error {
	if profile.ID == "" {
		return errors.New("user id is required")
	}
	_, err := r.docs.Create(ctx, profile)
	if errors.Is(err, docstore.ErrDuplicate) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	return r.docs.Find(ctx, docstore.Query{SortBy: "createdAt"})
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.UserProfile, error) {
	u, err := r.docs.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return u, ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	users, err := r.docs.Find(ctx, docstore.Query{Field: "email", Equals: email, Limit: 1})
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("find user by email: %w", err)
	}
	if len(users) == 0 {
		return domain.UserProfile{}, ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (domain.UserProfile, error) {
	fields := make(map[string]interface{})
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Address != nil {
		fields["address"] = *u.Address
	}
	if u.Email != nil {
		email, err := r.checkEmail(ctx, id, *u.Email)
		if err != nil {
			return domain.UserProfile{}, err
		}
		fields["email"] = email
	}
	if len(fields) > 0 {
		err := r.docs.Update(ctx, id, fields)
		if errors.Is(err, docstore.ErrNotFound) {
			return domain.UserProfile{}, ErrUserNotFound
		}
		if err != nil {
			return domain.UserProfile{}, err
		}
	}
	return r.Get(ctx, id)
}

// checkEmail normalizes email and makes sure no other user holds it.
func (r *UserRepository) checkEmail(ctx context.Context, id, raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidUser)
	}

	existing, err := r.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != id:
		return "", ErrEmailTaken
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return "", err
	}
	return email, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	err := r.docs.Delete(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
