package controller

import (
	"context"
	"errors"
	"strings"

	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/models"
)

// IdentityStore is the slice of the profile store used to resolve identities
// and to check identifier uniqueness.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Professional, error)
	FindByPhone(ctx context.Context, phone string) (*models.Professional, error)
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)
	PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error)
}

// MatchIdentity returns the stored profile an incoming candidate refers to,
// or nil when there is none. Email wins when present; phone is only consulted
// without an email and is compared in its digits-only form.
func MatchIdentity(ctx context.Context, store IdentityStore, email, phone *string) (*models.Professional, error) {
	if addr := trimmed(email); addr != "" {
		return found(store.FindByEmail(ctx, addr))
	}
	if digits := NormalizePhone(trimmed(phone)); digits != "" {
		return found(store.FindByPhone(ctx, digits))
	}
	return nil, nil
}

func found(p *models.Professional, err error) (*models.Professional, error) {
	if errors.Is(err, e.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
