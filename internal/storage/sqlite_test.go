package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return store
}

func newParticipant(name, course string, semester int, createdAt time.Time) *models.Participant {
	return &models.Participant{
		ID:        uuid.New().String(),
		Name:      name,
		Course:    course,
		Semester:  semester,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func mustCreate(t *testing.T, store *SQLiteStorage, p *models.Participant) {
	t.Helper()
	if err := store.Participants().Create(context.Background(), p); err != nil {
		t.Fatalf("create participant %s: %v", p.Name, err)
	}
}

func TestParticipantCreateAndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	p := newParticipant("Ana Silva", "Computer Science", 3, time.Now())
	mustCreate(t, store, p)

	got, err := store.Participants().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil {
		t.Fatal("participant not found after create")
	}
	if got.Name != "Ana Silva" || got.Course != "Computer Science" || got.Semester != 3 {
		t.Errorf("got %+v, want name/course/semester preserved", got)
	}

	missing, err := store.Participants().GetByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing participant, got %+v", missing)
	}
}

func TestParticipantConflict_CaseInsensitiveName(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	mustCreate(t, store, newParticipant("Ana Silva", "Computer Science", 3, time.Now()))

	err := store.Participants().Create(ctx, newParticipant("ana silva", "Computer Science", 5, time.Now()))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("same name different case in same course: err = %v, want ErrConflict", err)
	}

	// Same name in a different course is a different person.
	if err := store.Participants().Create(ctx, newParticipant("Ana Silva", "Law", 2, time.Now())); err != nil {
		t.Errorf("same name in different course: %v", err)
	}
}

func TestFindByNameCourse(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	p := newParticipant("Bruno Costa", "Engineering", 4, time.Now())
	mustCreate(t, store, p)

	got, err := store.Participants().FindByNameCourse(ctx, "BRUNO COSTA", "Engineering")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Errorf("case-insensitive name match failed, got %+v", got)
	}

	// Course comparison is exact.
	got, err = store.Participants().FindByNameCourse(ctx, "Bruno Costa", "engineering")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Errorf("course match should be exact, got %+v", got)
	}
}

func TestParticipantDelete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	p := newParticipant("Carla Mendes", "Medicine", 1, time.Now())
	mustCreate(t, store, p)

	if err := store.Participants().Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := store.Participants().Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestParticipantList_PaginationAndFilter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		course := "Computer Science"
		if i >= 3 {
			course = "Law"
		}
		mustCreate(t, store, newParticipant(
			fmt.Sprintf("Person %d", i), course, 1, base.Add(time.Duration(i)*time.Minute),
		))
	}

	// Newest first.
	page, err := store.Participants().List(ctx, "", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	if page[0].Name != "Person 4" || page[1].Name != "Person 3" {
		t.Errorf("order = [%s %s], want newest first", page[0].Name, page[1].Name)
	}

	// Second page continues the ordering.
	page, err = store.Participants().List(ctx, "", 2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(page) != 2 || page[0].Name != "Person 2" {
		t.Errorf("second page starts with %s, want Person 2", page[0].Name)
	}

	// Course filter.
	law, err := store.Participants().List(ctx, "Law", 10, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(law) != 2 {
		t.Errorf("law participants = %d, want 2", len(law))
	}

	total, err := store.Participants().Count(ctx, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	lawCount, err := store.Participants().Count(ctx, "Law")
	if err != nil {
		t.Fatalf("count filtered: %v", err)
	}
	if lawCount != 2 {
		t.Errorf("law count = %d, want 2", lawCount)
	}

	courses, err := store.Participants().CountCourses(ctx)
	if err != nil {
		t.Fatalf("count courses: %v", err)
	}
	if courses != 2 {
		t.Errorf("courses = %d, want 2", courses)
	}
}

func TestListByCourse_Ordering(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	now := time.Now()
	mustCreate(t, store, newParticipant("Zara", "Law", 1, now))
	mustCreate(t, store, newParticipant("Ana", "Law", 1, now))
	mustCreate(t, store, newParticipant("Bruno", "Law", 1, now))
	mustCreate(t, store, newParticipant("Carla", "Engineering", 1, now))
	mustCreate(t, store, newParticipant("Daniel", "Medicine", 1, now))

	groups, err := store.Participants().ListByCourse(ctx)
	if err != nil {
		t.Fatalf("list by course: %v", err)
	}

	if len(groups) != 3 {
		t.Fatalf("courses = %d, want 3", len(groups))
	}
	// Largest course first, ties broken by course name.
	if groups[0].Course != "Law" || groups[0].Count != 3 {
		t.Errorf("first course = %s (%d), want Law (3)", groups[0].Course, groups[0].Count)
	}
	if groups[1].Course != "Engineering" || groups[2].Course != "Medicine" {
		t.Errorf("tie order = [%s %s], want [Engineering Medicine]", groups[1].Course, groups[2].Course)
	}
	// Members sorted by name.
	law := groups[0].Participants
	if law[0].Name != "Ana" || law[1].Name != "Bruno" || law[2].Name != "Zara" {
		t.Errorf("law members = [%s %s %s], want name order", law[0].Name, law[1].Name, law[2].Name)
	}
}

func makeDraw(t *testing.T, store *SQLiteStorage, names ...string) []*models.GroupWithMembers {
	t.Helper()
	now := time.Now()

	var members []*models.Participant
	for _, name := range names {
		p := newParticipant(name, "Computer Science", 1, now)
		mustCreate(t, store, p)
		members = append(members, p)
	}

	var groups []*models.GroupWithMembers
	for i := 0; i < len(members)/4; i++ {
		groups = append(groups, &models.GroupWithMembers{
			Group: models.Group{
				ID:        uuid.New().String(),
				Name:      fmt.Sprintf("Group %d", i+1),
				Color:     "#FF6B6B",
				Position:  i + 1,
				CreatedAt: now,
			},
			Members: members[i*4 : (i+1)*4],
		})
	}
	return groups
}

func TestGroupReplaceAll(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := makeDraw(t, store, "A1", "A2", "A3", "A4")
	if err := store.Groups().ReplaceAll(ctx, first); err != nil {
		t.Fatalf("first draw: %v", err)
	}

	second := makeDraw(t, store, "B1", "B2", "B3", "B4", "C1", "C2", "C3", "C4")
	if err := store.Groups().ReplaceAll(ctx, second); err != nil {
		t.Fatalf("second draw: %v", err)
	}

	got, err := store.Groups().ListWithMembers(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("groups = %d, want 2 (previous draw replaced)", len(got))
	}
	if got[0].Name != "Group 1" || got[1].Name != "Group 2" {
		t.Errorf("group order = [%s %s], want creation order", got[0].Name, got[1].Name)
	}
	for _, g := range got {
		if len(g.Members) != 4 {
			t.Errorf("%s has %d members, want 4", g.Name, len(g.Members))
		}
	}

	count, err := store.Groups().Count(ctx)
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestGroupReplaceAll_FailurePreservesPreviousDraw(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := makeDraw(t, store, "A1", "A2", "A3", "A4")
	if err := store.Groups().ReplaceAll(ctx, first); err != nil {
		t.Fatalf("first draw: %v", err)
	}

	// A draw that assigns the same participant twice violates the
	// membership constraint and must roll back completely.
	bad := makeDraw(t, store, "B1", "B2", "B3", "B4")
	bad[0].Members[3] = bad[0].Members[0]

	err := store.Groups().ReplaceAll(ctx, bad)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate assignment: err = %v, want ErrConflict", err)
	}

	got, err := store.Groups().ListWithMembers(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(got) != 1 || got[0].ID != first[0].ID {
		t.Fatalf("previous draw not preserved after failed replace")
	}
	if len(got[0].Members) != 4 {
		t.Errorf("previous draw members = %d, want 4", len(got[0].Members))
	}
}

func TestGroupMembers_DeleteCascade(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	draw := makeDraw(t, store, "A1", "A2", "A3", "A4")
	if err := store.Groups().ReplaceAll(ctx, draw); err != nil {
		t.Fatalf("draw: %v", err)
	}

	if err := store.Participants().Delete(ctx, draw[0].Members[0].ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	got, err := store.Groups().ListWithMembers(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("group disappeared after member delete")
	}
	if len(got[0].Members) != 3 {
		t.Errorf("members = %d, want 3 after cascade", len(got[0].Members))
	}

	// Deleting the rest leaves an empty, still-listed group.
	for _, m := range draw[0].Members[1:] {
		if err := store.Participants().Delete(ctx, m.ID); err != nil {
			t.Fatalf("delete member: %v", err)
		}
	}

	got, err = store.Groups().ListWithMembers(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("empty group should still be listed")
	}
	if len(got[0].Members) != 0 {
		t.Errorf("members = %d, want 0", len(got[0].Members))
	}
}

func TestClearAll(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	draw := makeDraw(t, store, "A1", "A2", "A3", "A4")
	if err := store.Groups().ReplaceAll(ctx, draw); err != nil {
		t.Fatalf("draw: %v", err)
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}

	total, err := store.Participants().Count(ctx, "")
	if err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if total != 0 {
		t.Errorf("participants = %d, want 0", total)
	}

	groups, err := store.Groups().Count(ctx)
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if groups != 0 {
		t.Errorf("groups = %d, want 0", groups)
	}
}
