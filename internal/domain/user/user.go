package user

import (
	"fmt"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
)

// Username limits.
const (
	MinUsernameLength = 2
	MaxUsernameLength = 64
)

// User is the user aggregate. Subscription sets hold membership; ownedIDs
// records every item created on the user's behalf, subscribed or not.
type User struct {
	id             string
	username       string
	active         bool
	hashedPassword string
	hashedEmail    string
	feedIDs        ids.Set
	collectionIDs  ids.Set
	ownedIDs       ids.Set
	alreadyRead    string
}

// New validates and creates an active User with empty subscription sets.
func New(id, username, hashedPassword, hashedEmail string) (User, error) {
	if id == "" {
		return User{}, domain.Validationf("user id is required")
	}
	if err := ValidateUsername(username); err != nil {
		return User{}, err
	}
	if hashedPassword == "" {
		return User{}, domain.Validationf("password hash is required")
	}
	return User{
		id:             id,
		username:       username,
		active:         true,
		hashedPassword: hashedPassword,
		hashedEmail:    hashedEmail,
		feedIDs:        ids.New(),
		collectionIDs:  ids.New(),
		ownedIDs:       ids.New(),
	}, nil
}

// Reconstruct creates a User without validation (storage hydration).
func Reconstruct(
	id, username string, active bool, hashedPassword, hashedEmail string,
	feedIDs, collectionIDs, ownedIDs []string, alreadyRead string,
) User {
	return User{
		id:             id,
		username:       username,
		active:         active,
		hashedPassword: hashedPassword,
		hashedEmail:    hashedEmail,
		feedIDs:        ids.New(feedIDs...),
		collectionIDs:  ids.New(collectionIDs...),
		ownedIDs:       ids.New(ownedIDs...),
		alreadyRead:    alreadyRead,
	}
}

// ValidateUsername checks length. Usernames are case-sensitive and otherwise opaque.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return domain.Validationf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ID returns the stable user identifier.
func (u *User) ID() string { return u.id }

// Username returns the login name.
func (u *User) Username() string { return u.username }

// Active reports whether the account may authenticate.
func (u *User) Active() bool { return u.active }

// HashedPassword returns the encoded password hash.
func (u *User) HashedPassword() string { return u.hashedPassword }

// HashedEmail returns the encoded email hash, empty when no email was given.
func (u *User) HashedEmail() string { return u.hashedEmail }

// FeedIDs returns a copy of the subscribed feed ids.
func (u *User) FeedIDs() ids.Set { return u.feedIDs.Clone() }

// CollectionIDs returns a copy of the subscribed collection ids.
func (u *User) CollectionIDs() ids.Set { return u.collectionIDs.Clone() }

// OwnedIDs returns a copy of the ids of items the user created.
func (u *User) OwnedIDs() ids.Set { return u.ownedIDs.Clone() }

// Own records id as an item created by the user.
func (u *User) Own(id string) {
	if u.ownedIDs == nil {
		u.ownedIDs = ids.New()
	}
	u.ownedIDs[id] = struct{}{}
}

// Disown forgets id. Unknown ids are ignored.
func (u *User) Disown(id string) { delete(u.ownedIDs, id) }

// AlreadyRead returns the id of the default "Already Read" collection.
func (u *User) AlreadyRead() string { return u.alreadyRead }

// Subscriptions returns the subscription set for an item kind.
func (u *User) Subscriptions(kind domain.Kind) (ids.Set, error) {
	switch kind {
	case domain.KindFeed:
		return u.FeedIDs(), nil
	case domain.KindCollection:
		return u.CollectionIDs(), nil
	default:
		return nil, domain.Validationf("cannot subscribe to kind %q", kind)
	}
}

// SetSubscriptions replaces the subscription set for an item kind.
func (u *User) SetSubscriptions(kind domain.Kind, set ids.Set) error {
	switch kind {
	case domain.KindFeed:
		u.feedIDs = set.Clone()
	case domain.KindCollection:
		u.collectionIDs = set.Clone()
	default:
		return domain.Validationf("cannot subscribe to kind %q", kind)
	}
	return nil
}

// Rename changes the username.
func (u *User) Rename(username string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	u.username = username
	return nil
}

// SetPasswordHash replaces the password hash.
func (u *User) SetPasswordHash(hash string) { u.hashedPassword = hash }

// SetEmailHash replaces the email hash.
func (u *User) SetEmailHash(hash string) { u.hashedEmail = hash }

// SetAlreadyRead records the default "Already Read" collection id.
func (u *User) SetAlreadyRead(id string) { u.alreadyRead = id }

// SetActive toggles the account.
func (u *User) SetActive(active bool) { u.active = active }

func (u User) String() string {
	return fmt.Sprintf("%s (%s)", u.username, u.id)
}
