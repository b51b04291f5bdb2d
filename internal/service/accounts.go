package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"collabolab/internal/auth"
	"collabolab/internal/logger"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

// TokenIssuer signs session tokens. auth.TokenManager implements it.
type TokenIssuer interface {
	Generate(userID uuid.UUID) (string, error)
}

type Accounts struct {
	store    repository.Store
	tokens   TokenIssuer
	notifier *Notifier
	log      *logger.Logger
}

func NewAccounts(store repository.Store, tokens TokenIssuer, notifier *Notifier, log *logger.Logger) *Accounts {
	return &Accounts{store: store, tokens: tokens, notifier: notifier, log: log}
}

type SignUp struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// CreateUser registers the credentials and the profile in one transaction.
func (s *Accounts) CreateUser(ctx context.Context, in SignUp) (uuid.UUID, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || email == "" || in.Password == "" {
		return uuid.Nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		identity := &model.Identity{ID: id, Email: email, HashedPassword: hashed}
		if err := tx.Identities().Create(ctx, identity); err != nil {
			return err
		}
		user := &model.User{
			ID:       id,
			Name:     in.Name,
			Email:    email,
			Phone:    in.Phone,
			Projects: model.NewIDList(),
		}
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	if err != nil {
		return uuid.Nil, err
	}

	s.log.WithContext(ctx).Info("user created", "user_id", id)
	return id, nil
}

func (s *Accounts) Login(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	identity, err := s.store.Identities().FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return "", uuid.Nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", uuid.Nil, err
	}
	if !auth.CheckPassword(identity.HashedPassword, password) {
		return "", uuid.Nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(identity.ID)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, identity.ID, nil
}

// SearchUsers matches text against names and emails, leaving out members of
// projectID when it is set.
func (s *Accounts) SearchUsers(ctx context.Context, text string, projectID uuid.UUID) ([]model.User, error) {
	var project *model.Project
	if projectID != uuid.Nil {
		p, err := s.store.Projects().GetByID(ctx, projectID)
		if err != nil {
			return nil, wrapNotFound(err)
		}
		project = p
	}

	users, err := s.store.Users().Search(ctx, strings.ToLower(text), 0)
	if err != nil {
		return nil, err
	}

	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if project != nil && project.HasMember(u.ID) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// RegisterDevice stores the device token and subscribes it to every project
// the user belongs to. A replaced token is unsubscribed.
func (s *Accounts) RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err)
	}
	if err := s.store.Users().SetDeviceToken(ctx, userID, token); err != nil {
		return wrapNotFound(err)
	}

	for _, projectID := range user.Projects {
		topic := projectID.String()
		if user.DeviceToken != token {
			s.notifier.Unsubscribe(ctx, user.DeviceToken, topic)
		}
		s.notifier.Subscribe(ctx, token, topic)
	}
	return nil
}

// VerifyDevice checks that token is the device currently registered to the
// user, so a caller can only open the push channel of their own device.
func (s *Accounts) VerifyDevice(ctx context.Context, userID uuid.UUID, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err)
	}
	if user.DeviceToken != token {
		return ErrUnauthorized
	}
	return nil
}

func (s *Accounts) ListUpdates(ctx context.Context, userID uuid.UUID) ([]model.UserUpdate, error) {
	return s.store.Updates().ListForUser(ctx, userID)
}
