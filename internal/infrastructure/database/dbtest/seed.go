package dbtest

import (
	"sync"
	"testing"
	"time"

	"taskdesk-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedUser inserts a user with the given email.
func SeedUser(t testing.TB, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "not-a-hash"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedOrg inserts an organization owned by owner, who joins it as ADMIN.
func SeedOrg(t testing.TB, db *gorm.DB, owner *domain.User, name string) *domain.Organization {
	t.Helper()
	o := &domain.Organization{Name: name, CreatedByID: owner.ID}
	require.NoError(t, db.Create(o).Error)
	SeedMember(t, db, o.ID, owner.ID, domain.RoleAdmin)
	return o
}

// SeedMember adds userID to orgID with role.
func SeedMember(t testing.TB, db *gorm.DB, orgID, userID uuid.UUID, role domain.Role) *domain.Membership {
	t.Helper()
	m := &domain.Membership{OrgID: orgID, UserID: userID, Role: role}
	require.NoError(t, db.Create(m).Error)
	return m
}

// Clock is a test clock that moves forward one second on every reading,
// so rows created in sequence get strictly increasing timestamps.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

func NewClock() *Clock {
	return &Clock{cur: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}
