package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

type sqliteGroupRepo struct {
	db *sql.DB
}

// ReplaceAll swaps the stored draw for the given one in a single
// transaction. SQLite's single-writer model plus the transaction
// guarantee no reader ever observes groups from two different draws.
func (r *sqliteGroupRepo) ReplaceAll(ctx context.Context, groups []*models.GroupWithMembers) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin draw replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members"); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM groups"); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}

	insertGroup, err := tx.PrepareContext(ctx, `
		INSERT INTO groups (id, name, color, position, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare group insert: %w", err)
	}
	defer insertGroup.Close()

	insertMember, err := tx.PrepareContext(ctx, `
		INSERT INTO group_members (id, group_id, participant_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer insertMember.Close()

	for _, g := range groups {
		if _, err := insertGroup.ExecContext(ctx, g.ID, g.Name, g.Color, g.Position, g.CreatedAt); err != nil {
			return fmt.Errorf("insert group %s: %w", g.Name, err)
		}
		for _, m := range g.Members {
			_, err := insertMember.ExecContext(ctx, uuid.New().String(), g.ID, m.ID, g.CreatedAt)
			if isUniqueViolation(err) {
				return fmt.Errorf("participant %s assigned twice: %w", m.ID, ErrConflict)
			}
			if err != nil {
				return fmt.Errorf("insert member %s into %s: %w", m.ID, g.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draw replace: %w", err)
	}
	return nil
}

func (r *sqliteGroupRepo) ListWithMembers(ctx context.Context) ([]*models.GroupWithMembers, error) {
	query := `
		SELECT g.id, g.name, g.color, g.position, g.created_at,
		       p.id, p.name, p.course, p.semester, p.created_at, p.updated_at
		FROM groups g
		LEFT JOIN group_members gm ON gm.group_id = g.id
		LEFT JOIN participants p ON p.id = gm.participant_id
		ORDER BY g.position, p.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.GroupWithMembers
	var current *models.GroupWithMembers
	for rows.Next() {
		var (
			g         models.Group
			createdAt time.Time
			pID       sql.NullString
			pName     sql.NullString
			pCourse   sql.NullString
			pSemester sql.NullInt64
			pCreated  sql.NullTime
			pUpdated  sql.NullTime
		)
		err := rows.Scan(
			&g.ID, &g.Name, &g.Color, &g.Position, &createdAt,
			&pID, &pName, &pCourse, &pSemester, &pCreated, &pUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		g.CreatedAt = createdAt

		if current == nil || current.ID != g.ID {
			current = &models.GroupWithMembers{Group: g, Members: []*models.Participant{}}
			groups = append(groups, current)
		}
		// LEFT JOIN leaves NULL participant columns for empty groups.
		if pID.Valid {
			current.Members = append(current.Members, &models.Participant{
				ID:        pID.String,
				Name:      pName.String,
				Course:    pCourse.String,
				Semester:  int(pSemester.Int64),
				CreatedAt: pCreated.Time,
				UpdatedAt: pUpdated.Time,
			})
		}
	}
	return groups, rows.Err()
}

func (r *sqliteGroupRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM groups").Scan(&count); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}
