package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/shared/apperr"
)

// dummyHash is compared against when the email is unknown so that both login
// failure paths spend the same bcrypt time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository abstracts persistence of user records.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user together with its initial tokens.
	// Returns ErrEmailAlreadyExists when the email is taken.
	Create(ctx context.Context, user *entity.User) error

	// FindByID returns ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByEmail returns ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByToken returns the user with the id only if token is among its active tokens.
	// Returns ErrUserNotFound otherwise.
	FindByToken(ctx context.Context, id, token string) (*entity.User, error)

	// Update saves name, email, age, password and avatar. Tokens are left untouched.
	// Returns ErrUserNotFound or ErrEmailAlreadyExists.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes the user record. Returns ErrUserNotFound when already gone.
	Delete(ctx context.Context, id string) error

	AddToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error
}

// TaskPurger removes every task of an owner. It is how account deletion cascades.
type TaskPurger interface {
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

// TokenIssuer creates session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Notifier sends transactional emails. Calls must not block on delivery.
type Notifier interface {
	SendWelcome(email, name string)
	SendCancellation(email, name string)
}

// AvatarProcessor validates an uploaded image and converts it to the stored format.
// Every error it returns is a client input problem.
type AvatarProcessor interface {
	Process(filename string, data []byte) ([]byte, error)
}

// UserPatch carries the fields of a profile update. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Age      *int
	Password *string
}

type userUsecase struct {
	users      UserRepository
	tasks      TaskPurger
	tokens     TokenIssuer
	notifier   Notifier
	avatars    AvatarProcessor
	bcryptCost int
}

// NewUserUsecase creates the users usecase. bcryptCost outside bcrypt's range falls back to 8.
func NewUserUsecase(users UserRepository, tasks TaskPurger, tokens TokenIssuer, notifier Notifier, avatars AvatarProcessor, bcryptCost int) *userUsecase {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 8
	}
	return &userUsecase{
		users:      users,
		tasks:      tasks,
		tokens:     tokens,
		notifier:   notifier,
		avatars:    avatars,
		bcryptCost: bcryptCost,
	}
}

func (u *userUsecase) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register validates the profile, stores the new user with a first session token
// and sends the welcome email in the background.
func (u *userUsecase) Register(ctx context.Context, p entity.Profile) (*entity.User, string, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, "", apperr.WrapValidation(err)
	}
	if err := entity.ValidatePassword(p.Password); err != nil {
		return nil, "", apperr.WrapValidation(err)
	}

	hashed, err := u.hash(p.Password)
	if err != nil {
		return nil, "", err
	}

	user := &entity.User{
		ID:       uuid.NewString(),
		Name:     p.Name,
		Email:    p.Email,
		Age:      p.Age,
		Password: hashed,
	}
	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	user.Tokens = []string{token}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, "", apperr.Validation(msgEmailTaken)
		}
		return nil, "", apperr.Storage("create user", err)
	}

	u.notifier.SendWelcome(user.Email, user.Name)
	zap.L().Info("user registered", zap.String("userID", user.ID))
	return user, token, nil
}

// Login checks the credentials and opens a new session.
// Unknown email and wrong password produce the same error.
func (u *userUsecase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, "", apperr.Storage("find user by email", err)
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return nil, "", apperr.Authentication(MsgUnableToLogin)
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	if err := u.users.AddToken(ctx, user.ID, token); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", apperr.Authentication(MsgUnableToLogin)
		}
		return nil, "", apperr.Storage("add token", err)
	}
	user.Tokens = append(user.Tokens, token)

	return user, token, nil
}

// Authenticate resolves an active session to its user.
func (u *userUsecase) Authenticate(ctx context.Context, userID, token string) (*entity.User, error) {
	user, err := u.users.FindByToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Authentication(MsgPleaseAuthenticate)
		}
		return nil, apperr.Storage("find user by token", err)
	}
	return user, nil
}

// Logout ends only the session identified by token.
func (u *userUsecase) Logout(ctx context.Context, user *entity.User, token string) error {
	if err := u.users.RemoveToken(ctx, user.ID, token); err != nil {
		return u.sessionWriteError("remove token", err)
	}
	user.Tokens = removeToken(user.Tokens, token)
	return nil
}

// LogoutAll ends every session of the user.
func (u *userUsecase) LogoutAll(ctx context.Context, user *entity.User) error {
	if err := u.users.ClearTokens(ctx, user.ID); err != nil {
		return u.sessionWriteError("clear tokens", err)
	}
	user.Tokens = nil
	return nil
}

func (u *userUsecase) sessionWriteError(op string, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return apperr.Authentication(MsgPleaseAuthenticate)
	}
	return apperr.Storage(op, err)
}

// Update applies a profile patch. All validators run on the resulting profile
// and a changed password is re-hashed.
func (u *userUsecase) Update(ctx context.Context, user *entity.User, patch UserPatch) (*entity.User, error) {
	p := entity.Profile{Name: user.Name, Email: user.Email, Age: user.Age}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Password != nil {
		p.Password = *patch.Password
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, apperr.WrapValidation(err)
	}

	updated := *user
	updated.Name, updated.Email, updated.Age = p.Name, p.Email, p.Age
	if patch.Password != nil {
		if err := entity.ValidatePassword(p.Password); err != nil {
			return nil, apperr.WrapValidation(err)
		}
		hashed, err := u.hash(p.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = hashed
	}

	if err := u.users.Update(ctx, &updated); err != nil {
		return nil, u.updateError(err)
	}
	*user = updated
	return user, nil
}

func (u *userUsecase) updateError(err error) error {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		return apperr.Validation(msgEmailTaken)
	case errors.Is(err, ErrUserNotFound):
		return apperr.NotFound(msgUserNotFound)
	default:
		return apperr.Storage("update user", err)
	}
}

// Delete removes the user's tasks, then the user, then sends the cancellation email.
func (u *userUsecase) Delete(ctx context.Context, user *entity.User) (*entity.User, error) {
	n, err := u.tasks.DeleteByOwner(ctx, user.ID)
	if err != nil {
		return nil, apperr.Storage("delete tasks of user", err)
	}
	if err := u.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Storage("delete user", err)
	}

	u.notifier.SendCancellation(user.Email, user.Name)
	zap.L().Info("user deleted", zap.String("userID", user.ID), zap.Int64("tasks_deleted", n))
	return user, nil
}

// SetAvatar validates and normalizes an uploaded image and stores it on the user.
func (u *userUsecase) SetAvatar(ctx context.Context, user *entity.User, filename string, data []byte) error {
	img, err := u.avatars.Process(filename, data)
	if err != nil {
		if apperr.KindOf(err) != 0 {
			return err
		}
		return apperr.WrapValidation(err)
	}

	updated := *user
	updated.Avatar = img
	if err := u.users.Update(ctx, &updated); err != nil {
		return u.updateError(err)
	}
	*user = updated
	return nil
}

// DeleteAvatar clears the user's avatar.
func (u *userUsecase) DeleteAvatar(ctx context.Context, user *entity.User) error {
	if !user.HasAvatar() {
		return apperr.NotFound(msgAvatarNotFound)
	}

	updated := *user
	updated.Avatar = nil
	if err := u.users.Update(ctx, &updated); err != nil {
		return u.updateError(err)
	}
	*user = updated
	return nil
}

// Avatar returns the stored PNG of any user.
func (u *userUsecase) Avatar(ctx context.Context, userID string) ([]byte, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound(msgAvatarNotFound)
		}
		return nil, apperr.Storage("find user", err)
	}
	if !user.HasAvatar() {
		return nil, apperr.NotFound(msgAvatarNotFound)
	}
	return user.Avatar, nil
}

func removeToken(tokens []string, token string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
