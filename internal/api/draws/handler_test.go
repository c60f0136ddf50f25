package draws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aemoz-unilab/sorteio/internal/draw"
	"github.com/aemoz-unilab/sorteio/internal/models"
	"github.com/aemoz-unilab/sorteio/internal/storage"
)

// Mock repositories

type mockParticipantRepo struct {
	participants []*models.Participant
}

func (m *mockParticipantRepo) Create(ctx context.Context, p *models.Participant) error { return nil }
func (m *mockParticipantRepo) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	return nil, nil
}
func (m *mockParticipantRepo) FindByNameCourse(ctx context.Context, name, course string) (*models.Participant, error) {
	return nil, nil
}
func (m *mockParticipantRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *mockParticipantRepo) List(ctx context.Context, course string, limit, offset int) ([]*models.Participant, error) {
	return m.participants, nil
}
func (m *mockParticipantRepo) Count(ctx context.Context, course string) (int64, error) {
	return int64(len(m.participants)), nil
}
func (m *mockParticipantRepo) CountCourses(ctx context.Context) (int64, error) {
	seen := make(map[string]struct{})
	for _, p := range m.participants {
		seen[p.Course] = struct{}{}
	}
	return int64(len(seen)), nil
}
func (m *mockParticipantRepo) ListAllOrdered(ctx context.Context) ([]*models.Participant, error) {
	return m.participants, nil
}
func (m *mockParticipantRepo) ListByCourse(ctx context.Context) ([]*models.CourseGroup, error) {
	return nil, nil
}

type mockGroupRepo struct {
	stored    []*models.GroupWithMembers
	listError error
}

func (m *mockGroupRepo) ReplaceAll(ctx context.Context, groups []*models.GroupWithMembers) error {
	m.stored = groups
	return nil
}
func (m *mockGroupRepo) ListWithMembers(ctx context.Context) ([]*models.GroupWithMembers, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.stored, nil
}
func (m *mockGroupRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.stored)), nil
}

type mockStorage struct {
	participantRepo *mockParticipantRepo
	groupRepo       *mockGroupRepo
	clearError      error
	cleared         bool
}

func (m *mockStorage) Open() error    { return nil }
func (m *mockStorage) Close() error   { return nil }
func (m *mockStorage) Migrate() error { return nil }
func (m *mockStorage) Participants() storage.ParticipantRepository {
	return m.participantRepo
}
func (m *mockStorage) Groups() storage.GroupRepository { return m.groupRepo }
func (m *mockStorage) ClearAll(ctx context.Context) error {
	if m.clearError != nil {
		return m.clearError
	}
	m.cleared = true
	m.participantRepo.participants = nil
	m.groupRepo.stored = nil
	return nil
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		participantRepo: &mockParticipantRepo{},
		groupRepo:       &mockGroupRepo{},
	}
}

func fixtures(n int, courses ...string) []*models.Participant {
	now := time.Now()
	var out []*models.Participant
	for i := 0; i < n; i++ {
		out = append(out, &models.Participant{
			ID:        uuid.New().String(),
			Name:      fmt.Sprintf("Person %02d", i),
			Course:    courses[i%len(courses)],
			Semester:  1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

func newTestHandler(mockStore *mockStorage) *Handler {
	engine := draw.New(mockStore, draw.WithShuffle(func(n int, swap func(i, j int)) {}))
	return NewHandler(mockStore, engine)
}

func TestRun_Success(t *testing.T) {
	mockStore := newMockStorage()
	mockStore.participantRepo.participants = fixtures(20, "CS", "Law", "Medicine", "Engineering")
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("POST", "/api/admin/sorteio", nil)
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Data models.DrawResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Stats.TotalGroups != 5 {
		t.Errorf("groups = %d, want 5", resp.Data.Stats.TotalGroups)
	}
	if len(mockStore.groupRepo.stored) != 5 {
		t.Errorf("stored groups = %d, want 5", len(mockStore.groupRepo.stored))
	}
}

func TestRun_PreconditionFailed(t *testing.T) {
	mockStore := newMockStorage()
	mockStore.participantRepo.participants = fixtures(15, "CS", "Law", "Medicine", "Engineering")
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("POST", "/api/admin/sorteio", nil)
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != errCodePreconditionFailed {
		t.Errorf("code = %s, want %s", resp.Error.Code, errCodePreconditionFailed)
	}
	if resp.Error.Fields["current"] != "15" {
		t.Errorf("current = %s, want 15", resp.Error.Fields["current"])
	}
	if mockStore.groupRepo.stored != nil {
		t.Error("draw stored despite failed precondition")
	}
}

func TestResult_NoDraw(t *testing.T) {
	mockStore := newMockStorage()
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/admin/sorteio/result", nil)
	rec := httptest.NewRecorder()

	handler.Result(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestResult_ReturnsStoredDraw(t *testing.T) {
	mockStore := newMockStorage()
	mockStore.participantRepo.participants = fixtures(17, "CS", "Law", "Medicine", "Engineering")
	handler := newTestHandler(mockStore)

	// Run a draw first, then one participant drops out.
	rec := httptest.NewRecorder()
	handler.Run(rec, httptest.NewRequest("POST", "/api/admin/sorteio", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d", rec.Code)
	}
	mockStore.groupRepo.stored[0].Members = mockStore.groupRepo.stored[0].Members[1:]

	rec = httptest.NewRecorder()
	handler.Result(rec, httptest.NewRequest("GET", "/api/admin/sorteio/result", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.DrawResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Stats.TotalGroups != 4 {
		t.Errorf("groups = %d, want 4", resp.Data.Stats.TotalGroups)
	}
	if resp.Data.Stats.ParticipantsInGroups != 15 {
		t.Errorf("in groups = %d, want 15 after dropout", resp.Data.Stats.ParticipantsInGroups)
	}
	if resp.Data.Stats.RemainingParticipants != 2 {
		t.Errorf("remaining = %d, want 2", resp.Data.Stats.RemainingParticipants)
	}
}

func TestClearAll(t *testing.T) {
	mockStore := newMockStorage()
	mockStore.participantRepo.participants = fixtures(16, "CS", "Law", "Medicine", "Engineering")
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("DELETE", "/api/admin/clear-all", nil)
	rec := httptest.NewRecorder()

	handler.ClearAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !mockStore.cleared {
		t.Error("storage not cleared")
	}
}

func TestClearAll_StorageTimeout(t *testing.T) {
	mockStore := newMockStorage()
	mockStore.clearError = context.DeadlineExceeded
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("DELETE", "/api/admin/clear-all", nil)
	rec := httptest.NewRecorder()

	handler.ClearAll(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
