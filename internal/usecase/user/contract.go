package user

import (
	"context"

	"github.com/osinter/osinter/internal/domain/item"
	domuser "github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/repository/document"
	"github.com/osinter/osinter/internal/usecase/credential"
)

// Repository defines the revisioned storage contract for users.
type Repository interface {
	Load(ctx context.Context, id string) (document.Versioned[*domuser.User], error)
	Create(ctx context.Context, u *domuser.User) (document.Versioned[*domuser.User], error)
	Update(ctx context.Context, id string, mutate func(*domuser.User) error) (document.Versioned[*domuser.User], error)
	DeleteIf(ctx context.Context, id string, check func(*domuser.User) error) error
}

// ItemRepository is the slice of item storage signup and removal need.
type ItemRepository interface {
	Create(ctx context.Context, o item.Owned) (document.Versioned[item.Owned], error)
	DeleteIf(ctx context.Context, id string, check func(item.Owned) error) error
}

// Lookup resolves usernames through the user views.
type Lookup interface {
	UserIDByUsername(ctx context.Context, username string) (string, error)
	AuthInfo(ctx context.Context, username string) (document.AuthInfo, error)
}

// Hasher hashes and verifies secrets.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, stored string) credential.Result
}
