package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repositories groups the per-entity stores over one database handle.
// Every store resolves its connection through database.Conn, so calls made
// inside database.RunInTx join the transaction.
type Repositories struct {
	Users       *Users
	Orgs        *Orgs
	Memberships *Memberships
	Invitations *Invitations
	Tasks       *Tasks
	AuditLogs   *AuditLogs
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       &Users{db: db},
		Orgs:        &Orgs{db: db},
		Memberships: &Memberships{db: db},
		Invitations: &Invitations{db: db},
		Tasks:       &Tasks{db: db},
		AuditLogs:   &AuditLogs{db: db},
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err came from a unique constraint.
// Postgres reports SQLSTATE 23505, SQLite "UNIQUE constraint failed".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
