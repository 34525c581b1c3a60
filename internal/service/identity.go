package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"twolaunch/internal/credentials"
)

// DefaultUsernameAttempts bounds the short-suffix candidates tried before falling back
const DefaultUsernameAttempts = 20

// UsernameChecker reports whether a username is already assigned
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// IdentityGenerator derives readable usernames from company names
type IdentityGenerator struct {
	checker  UsernameChecker
	attempts int
	logger   zerolog.Logger
}

// NewIdentityGenerator creates a generator trying at most attempts short candidates
func NewIdentityGenerator(checker UsernameChecker, attempts int, logger zerolog.Logger) *IdentityGenerator {
	if attempts < 1 {
		attempts = DefaultUsernameAttempts
	}
	return &IdentityGenerator{
		checker:  checker,
		attempts: attempts,
		logger:   logger,
	}
}

// GenerateUniqueUsername returns slug_NNN for the first free three digit
// suffix, or slug_<8 hex> once the attempts run out. It always returns a name.
// A failed existence check counts as a collision.
func (g *IdentityGenerator) GenerateUniqueUsername(ctx context.Context, companyName string) string {
	slug := credentials.Slugify(companyName)

	for i := 0; i < g.attempts; i++ {
		candidate, err := credentials.UsernameCandidate(slug)
		if err != nil {
			g.logger.Warn().Err(err).Msg("failed to build username candidate")
			continue
		}

		taken, err := g.checker.UsernameExists(ctx, candidate)
		if err != nil {
			g.logger.Warn().Err(err).Str("candidate", candidate).Msg("username check failed")
			continue
		}
		if !taken {
			return candidate
		}
	}

	username, err := credentials.FallbackUsername(slug)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to build fallback username")
		return slug + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	g.logger.Debug().Str("slug", slug).Int("attempts", g.attempts).Msg("short usernames exhausted, using fallback")
	return username
}
