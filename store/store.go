package store

import (
	"context"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/slotwise/internal/profile"
)

// Store is the calendar kept in slotwise's own database.
type Store struct {
	profile  *profile.Profile
	driver   Driver
	location *time.Location
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	loc, err := profile.Location()
	if err != nil {
		loc = time.UTC
	}
	return &Store{
		driver:   driver,
		profile:  profile,
		location: loc,
	}
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) eventLink(uid string) string {
	base := strings.TrimRight(s.profile.InstanceURL, "/")
	return base + "/api/v1/events/" + uid
}

func newEventUID() string {
	return shortuuid.New()
}
