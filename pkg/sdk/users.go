package osinter

import (
	"context"
	"time"

	"github.com/osinter/osinter/internal/app"
	useruc "github.com/osinter/osinter/internal/usecase/user"
)

// UserService manages accounts.
type UserService struct {
	app *app.App
	obs *observer
}

// SignupParams is the input for creating an account.
type SignupParams struct {
	Username string
	Password string
	Email    string // optional, stored hashed
	Code     string // required when signup codes are configured
}

// Signup creates an account with its default collections.
func (s *UserService) Signup(ctx context.Context, p SignupParams) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("user.signup", start, err) }()

	u, err := s.app.Users.Signup(ctx, useruc.SignupParams{
		Username: p.Username, Password: p.Password, Email: p.Email, Code: p.Code,
	})
	if err != nil {
		return User{}, err
	}
	return userFromDomain(u), nil
}

// Authenticate checks a username and password. Failures are ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("user.authenticate", start, err) }()

	u, err := s.app.Users.Authenticate(ctx, username, password, "")
	if err != nil {
		return User{}, err
	}
	return userFromDomain(u), nil
}

// ResetPassword replaces a password without checking the old one.
func (s *UserService) ResetPassword(ctx context.Context, username, password string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("user.reset_password", start, err) }()

	_, err = s.app.Users.ResetPassword(ctx, username, password)
	return err
}

// Remove deletes an account and the items it owns. Unknown usernames succeed.
func (s *UserService) Remove(ctx context.Context, username string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("user.remove", start, err) }()

	return s.app.Users.Remove(ctx, username)
}
