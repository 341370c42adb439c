package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	domuser "github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/logger"
)

// SignupParams is the input for creating an account.
type SignupParams struct {
	Username string
	Password string
	Email    string
	// Code must be one of the configured signup codes when any are configured.
	Code string
}

// CredentialChange lists the credentials to replace. Nil fields are kept.
type CredentialChange struct {
	Username *string
	Password *string
	Email    *string
}

// Service handles accounts and credentials.
type Service struct {
	users       Repository
	items       ItemRepository
	lookup      Lookup
	hasher      Hasher
	signupCodes map[string]struct{}
}

// New creates a user service. An empty signupCodes list leaves signup open.
func New(users Repository, items ItemRepository, lookup Lookup, hasher Hasher, signupCodes []string) *Service {
	codes := make(map[string]struct{}, len(signupCodes))
	for _, c := range signupCodes {
		if c != "" {
			codes[c] = struct{}{}
		}
	}
	return &Service{users: users, items: items, lookup: lookup, hasher: hasher, signupCodes: codes}
}

// Signup creates a user together with its default collections.
//
// Username uniqueness is a lookup before the write, not a store constraint:
// two concurrent signups for one name can both pass the check.
func (s *Service) Signup(ctx context.Context, p SignupParams) (*domuser.User, error) {
	if len(s.signupCodes) > 0 {
		if _, ok := s.signupCodes[p.Code]; !ok {
			return nil, fmt.Errorf("signup code: %w", domain.ErrForbidden)
		}
	}
	if err := domuser.ValidateUsername(p.Username); err != nil {
		return nil, err
	}
	if p.Password == "" {
		return nil, domain.Validationf("password is required")
	}
	if err := s.ensureUsernameFree(ctx, p.Username); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	var emailHash string
	if p.Email != "" {
		if emailHash, err = s.hasher.Hash(p.Email); err != nil {
			return nil, fmt.Errorf("hash email: %w", err)
		}
	}

	u, err := domuser.New(uuid.NewString(), p.Username, passwordHash, emailHash)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureDefaultCollections(ctx, &u); err != nil {
		return nil, err
	}

	v, err := s.users.Create(ctx, &u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.FromContext(ctx).Info("user created", zap.String("user_id", u.ID()))
	return v.Value, nil
}

// EnsureDefaultCollections creates the non-deletable default collections for
// u and subscribes u to them. It runs once, before the user is first stored.
func (s *Service) EnsureDefaultCollections(ctx context.Context, u *domuser.User) error {
	created := ids.New()
	for _, name := range item.DefaultCollections {
		c, err := item.NewDefaultCollection(uuid.NewString(), name, u.ID())
		if err != nil {
			return err
		}
		if _, err := s.items.Create(ctx, &c); err != nil {
			return fmt.Errorf("create %q collection: %w", name, err)
		}
		created[c.ID()] = struct{}{}
		u.Own(c.ID())
		if name == item.AlreadyRead {
			u.SetAlreadyRead(c.ID())
		}
	}
	cur, err := u.Subscriptions(domain.KindCollection)
	if err != nil {
		return err
	}
	return u.SetSubscriptions(domain.KindCollection, cur.Union(created))
}

// Authenticate verifies username and password, and the email when given.
// A hash made under a weaker policy is replaced on success; failure to
// persist it is logged, not returned.
func (s *Service) Authenticate(ctx context.Context, username, password, email string) (*domuser.User, error) {
	info, err := s.lookup.AuthInfo(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth lookup: %w", err)
	}
	if !info.Active {
		return nil, domain.ErrInvalidCredentials
	}

	pw := s.hasher.Verify(password, info.HashedPassword)
	if !pw.Match {
		return nil, domain.ErrInvalidCredentials
	}
	emailRehash := false
	if email != "" {
		em := s.hasher.Verify(email, info.HashedEmail)
		if !em.Match {
			return nil, domain.ErrInvalidCredentials
		}
		emailRehash = em.NeedsRehash
	}

	if pw.NeedsRehash || emailRehash {
		u, err := s.rehash(ctx, info.ID, password, email, pw.NeedsRehash, emailRehash)
		if err == nil {
			return u, nil
		}
		logger.FromContext(ctx).Warn("opportunistic rehash failed", zap.String("user_id", info.ID), zap.Error(err))
	}
	return s.Get(ctx, info.ID)
}

// ChangeCredentials replaces username, password or email after checking the
// current password. A taken username yields domain.ErrAlreadyExists.
func (s *Service) ChangeCredentials(
	ctx context.Context, userID, password string, change CredentialChange,
) (*domuser.User, error) {
	cur, err := s.users.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, cur.Value.HashedPassword()).Match {
		return nil, domain.ErrInvalidCredentials
	}

	if change.Username != nil && *change.Username != cur.Value.Username() {
		if err := domuser.ValidateUsername(*change.Username); err != nil {
			return nil, err
		}
		if err := s.ensureUsernameFree(ctx, *change.Username); err != nil {
			return nil, err
		}
	}
	var passwordHash, emailHash string
	if change.Password != nil {
		if *change.Password == "" {
			return nil, domain.Validationf("password must not be empty")
		}
		if passwordHash, err = s.hasher.Hash(*change.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if change.Email != nil && *change.Email != "" {
		if emailHash, err = s.hasher.Hash(*change.Email); err != nil {
			return nil, fmt.Errorf("hash email: %w", err)
		}
	}

	v, err := s.users.Update(ctx, userID, func(u *domuser.User) error {
		if change.Username != nil {
			if err := u.Rename(*change.Username); err != nil {
				return err
			}
		}
		if change.Password != nil {
			u.SetPasswordHash(passwordHash)
		}
		if change.Email != nil {
			u.SetEmailHash(emailHash)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("change credentials: %w", err)
	}
	return v.Value, nil
}

// Remove deletes the user registered as username together with every feed
// and collection it owns, subscribed or not. Removing an unknown user succeeds.
func (s *Service) Remove(ctx context.Context, username string) error {
	id, err := s.lookup.UserIDByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup %q: %w", username, err)
	}

	cur, err := s.users.Load(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Subscriptions are included for users stored before ownership was tracked;
	// the owner check below skips whatever they do not own.
	owned := cur.Value.OwnedIDs().Union(cur.Value.FeedIDs()).Union(cur.Value.CollectionIDs())
	for _, itemID := range owned.Slice() {
		err := s.items.DeleteIf(ctx, itemID, func(o item.Owned) error {
			if o.Base().Owner() != id {
				return domain.ErrForbidden
			}
			return nil
		})
		switch {
		case err == nil, errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		default:
			return fmt.Errorf("remove item %s of %s: %w", itemID, id, err)
		}
	}

	err = s.users.DeleteIf(ctx, id, func(*domuser.User) error { return nil })
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("remove user %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("user removed", zap.String("user_id", id))
	return nil
}

// ResetPassword replaces the password of username without checking the old
// one. It is an operator action; the HTTP API never calls it.
func (s *Service) ResetPassword(ctx context.Context, username, password string) (*domuser.User, error) {
	if password == "" {
		return nil, domain.Validationf("password must not be empty")
	}
	id, err := s.lookup.UserIDByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", username, err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	v, err := s.users.Update(ctx, id, func(u *domuser.User) error {
		u.SetPasswordHash(hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reset password of %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("password reset", zap.String("user_id", id))
	return v.Value, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*domuser.User, error) {
	v, err := s.users.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return v.Value, nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.lookup.UserIDByUsername(ctx, username)
	switch {
	case err == nil:
		return fmt.Errorf("username %q: %w", username, domain.ErrAlreadyExists)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check username: %w", err)
	}
}

func (s *Service) rehash(ctx context.Context, id, password, email string, pw, em bool) (*domuser.User, error) {
	var passwordHash, emailHash string
	var err error
	if pw {
		if passwordHash, err = s.hasher.Hash(password); err != nil {
			return nil, err
		}
	}
	if em {
		if emailHash, err = s.hasher.Hash(email); err != nil {
			return nil, err
		}
	}
	v, err := s.users.Update(ctx, id, func(u *domuser.User) error {
		if pw {
			u.SetPasswordHash(passwordHash)
		}
		if em {
			u.SetEmailHash(emailHash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v.Value, nil
}
