// Package session carries the current actor's identity and role. A
// Session is constructed once at application start and passed by
// reference to whatever needs it; the cart/order core performs no role
// enforcement and trusts its caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("profile not found")

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleSeller:
		return RoleSeller, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Profile is the persisted per-address profile.
type Profile struct {
	Address  string
	Role     Role
	Name     string
	Location string
}

// Store persists profiles across sessions.
type Store interface {
	Get(ctx context.Context, address string) (Profile, error)
	Put(ctx context.Context, p Profile) error
}

// Session resolves the acting identity for this process.
type Session struct {
	Address string
	Role    Role
}

// Resolve loads the profile for address, defaulting to a buyer profile
// when none has been stored yet.
func Resolve(ctx context.Context, store Store, address string) (Session, Profile, error) {
	p, err := store.Get(ctx, address)
	if errors.Is(err, ErrNotFound) {
		p = Profile{Address: address, Role: RoleBuyer}
		if err := store.Put(ctx, p); err != nil {
			return Session{}, Profile{}, fmt.Errorf("seed profile: %w", err)
		}
	} else if err != nil {
		return Session{}, Profile{}, err
	}
	return Session{Address: p.Address, Role: p.Role}, p, nil
}
