// Package settings persists per-user explorer presets: the last query and the
// hierarchy chosen for it.
//
// Two backends implement [Store]. [FileStore] keeps one TOML file per user
// and suits the CLI; [MongoStore] keeps one document per user in MongoDB and
// suits a shared server.
package settings

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/lineage/pkg/errors"
)

// Settings is one user's saved preset.
type Settings struct {
	User      string    `json:"user" toml:"user" bson:"_id"`
	Query     string    `json:"query" toml:"query" bson:"query"`
	Hierarchy []string  `json:"hierarchy" toml:"hierarchy" bson:"hierarchy"`
	UpdatedAt time.Time `json:"updated_at" toml:"updated_at" bson:"updated_at"`
}

// Store loads and saves settings by user ID.
type Store interface {
	// Get returns the user's settings or a SETTINGS_NOT_FOUND error.
	Get(ctx context.Context, user string) (Settings, error)

	// Save inserts or replaces the user's settings and returns them with
	// UpdatedAt set.
	Save(ctx context.Context, s Settings) (Settings, error)

	// Delete removes the user's settings and reports whether any existed.
	Delete(ctx context.Context, user string) (bool, error)

	// List returns all saved settings ordered by user.
	List(ctx context.Context) ([]Settings, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func notFound(user string) error {
	return errors.New(errors.ErrCodeSettingsNotFound, "no settings saved for %q", user)
}

// prepare validates s and stamps it with the current time.
func prepare(s Settings, now time.Time) (Settings, error) {
	if err := errors.ValidateUserID(s.User); err != nil {
		return Settings{}, err
	}
	if err := errors.ValidateHierarchy(s.Hierarchy, nil); err != nil {
		return Settings{}, err
	}
	s.Hierarchy = slices.Clone(s.Hierarchy)
	s.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	return s, nil
}
