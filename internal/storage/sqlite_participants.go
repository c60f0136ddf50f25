package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

type sqliteParticipantRepo struct {
	db *sql.DB
}

func (r *sqliteParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (id, name, course, semester, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Course, p.Semester,
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert participant %q (%s): %w", p.Name, p.Course, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *sqliteParticipantRepo) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `
		SELECT id, name, course, semester, created_at, updated_at
		FROM participants WHERE id = ?
	`
	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Course, &p.Semester,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant by id: %w", err)
	}
	return p, nil
}

func (r *sqliteParticipantRepo) FindByNameCourse(ctx context.Context, name, course string) (*models.Participant, error) {
	query := `
		SELECT id, name, course, semester, created_at, updated_at
		FROM participants
		WHERE name = ? COLLATE NOCASE AND course = ?
	`
	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, name, course).Scan(
		&p.ID, &p.Name, &p.Course, &p.Semester,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find participant by name and course: %w", err)
	}
	return p, nil
}

func (r *sqliteParticipantRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqliteParticipantRepo) List(ctx context.Context, course string, limit, offset int) ([]*models.Participant, error) {
	query := `
		SELECT id, name, course, semester, created_at, updated_at
		FROM participants
	`
	args := []any{}
	if course != "" {
		query += " WHERE course = ?"
		args = append(args, course)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	return scanParticipants(rows)
}

func (r *sqliteParticipantRepo) Count(ctx context.Context, course string) (int64, error) {
	query := "SELECT COUNT(*) FROM participants"
	args := []any{}
	if course != "" {
		query += " WHERE course = ?"
		args = append(args, course)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (r *sqliteParticipantRepo) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT course) FROM participants").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

func (r *sqliteParticipantRepo) ListAllOrdered(ctx context.Context) ([]*models.Participant, error) {
	query := `
		SELECT id, name, course, semester, created_at, updated_at
		FROM participants
		ORDER BY course, name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all participants: %w", err)
	}
	defer rows.Close()

	return scanParticipants(rows)
}

func (r *sqliteParticipantRepo) ListByCourse(ctx context.Context) ([]*models.CourseGroup, error) {
	query := `
		SELECT course, name, id, semester, created_at, updated_at
		FROM participants
		ORDER BY course, name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list participants by course: %w", err)
	}
	defer rows.Close()

	byCourse := make(map[string]*models.CourseGroup)
	var order []string
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.Course, &p.Name, &p.ID, &p.Semester, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		cg, ok := byCourse[p.Course]
		if !ok {
			cg = &models.CourseGroup{Course: p.Course}
			byCourse[p.Course] = cg
			order = append(order, p.Course)
		}
		cg.Participants = append(cg.Participants, p)
		cg.Count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants by course: %w", err)
	}

	groups := make([]*models.CourseGroup, 0, len(order))
	for _, course := range order {
		groups = append(groups, byCourse[course])
	}
	// Courses ordered by size descending, ties by course name.
	// The SQL ordering above already sorted members by name.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Course < groups[j].Course
	})
	return groups, nil
}

func scanParticipants(rows *sql.Rows) ([]*models.Participant, error) {
	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Course, &p.Semester,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
