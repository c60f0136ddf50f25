// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

// Sentinel errors returned by repositories. Handlers translate these
// to the corresponding HTTP responses.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("already exists")
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Participants() ParticipantRepository
	Groups() GroupRepository

	// ClearAll atomically deletes all memberships, groups, and
	// participants. All-or-nothing.
	ClearAll(ctx context.Context) error
}

// ParticipantRepository defines operations for the participant registry.
type ParticipantRepository interface {
	// Create persists a new participant. Returns ErrConflict if another
	// participant already has the same name (case-insensitive) in the
	// same course.
	Create(ctx context.Context, p *models.Participant) error
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	// FindByNameCourse matches name case-insensitively and course exactly.
	FindByNameCourse(ctx context.Context, name, course string) (*models.Participant, error)
	// Delete removes a participant; the membership cascade removes it
	// from its group without touching the group itself. Returns
	// ErrNotFound if no such participant.
	Delete(ctx context.Context, id string) error
	// List returns a page of participants ordered by creation time
	// descending, optionally filtered by course.
	List(ctx context.Context, course string, limit, offset int) ([]*models.Participant, error)
	Count(ctx context.Context, course string) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	// ListAllOrdered returns every participant ordered by (course, name).
	// This is the stable base ordering the draw shuffles from.
	ListAllOrdered(ctx context.Context) ([]*models.Participant, error)
	// ListByCourse groups all participants by course, courses ordered by
	// participant count descending then course name, members by name.
	ListByCourse(ctx context.Context) ([]*models.CourseGroup, error)
}

// GroupRepository defines operations for draw results.
type GroupRepository interface {
	// ReplaceAll atomically replaces the stored draw: it deletes all
	// existing memberships and groups, then inserts the given groups
	// with their members, in one transaction. On any failure the
	// previous draw is preserved exactly.
	ReplaceAll(ctx context.Context, groups []*models.GroupWithMembers) error
	// ListWithMembers returns the current draw: groups in creation
	// order with members ordered by name. Groups whose members were
	// all deleted are included with an empty member list.
	ListWithMembers(ctx context.Context) ([]*models.GroupWithMembers, error)
	Count(ctx context.Context) (int64, error)
}
