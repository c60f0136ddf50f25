// Package draw implements the grouping engine: it partitions the
// registered participants into randomized teams of four and persists
// the result as the one current draw.
package draw

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aemoz-unilab/sorteio/internal/models"
	"github.com/aemoz-unilab/sorteio/internal/storage"
)

// Draw policy. Groups always have exactly GroupSize members; any
// remainder stays unassigned.
const (
	GroupSize       = 4
	MinParticipants = 16
	MinCourses      = 4
)

// Palette is the fixed ordered set of group colors. Colors are
// cosmetic and repeat once the group count exceeds the palette.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FECA57", "#FF9FF3", "#54A0FF", "#5F27CD",
	"#00D2D3", "#FF9F43", "#8C7AE6", "#00A8FF",
}

// PreconditionError reports an eligibility check failure. No mutation
// has happened when it is returned.
type PreconditionError struct {
	Message string
	Current int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s (current: %d)", e.Message, e.Current)
}

// Engine runs draws against the storage layer.
type Engine struct {
	store   storage.Storage
	shuffle func(n int, swap func(i, j int))

	// mu serializes concurrent draws so two runs can never interleave
	// their read and write phases.
	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithShuffle overrides the shuffle function. Used by tests to make
// draws deterministic.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(e *Engine) {
		e.shuffle = shuffle
	}
}

// New creates a draw engine.
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		shuffle: rand.Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one complete draw: eligibility checks, a uniform
// shuffle, partition into groups of four, and atomic persistence.
// On any error the previously stored draw is left untouched.
func (e *Engine) Run(ctx context.Context) (*models.DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	participants, err := e.store.Participants().ListAllOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	if len(participants) < MinParticipants {
		return nil, &PreconditionError{
			Message: fmt.Sprintf("at least %d participants are required", MinParticipants),
			Current: len(participants),
		}
	}
	if courses := countCourses(participants); courses < MinCourses {
		return nil, &PreconditionError{
			Message: fmt.Sprintf("at least %d distinct courses are required", MinCourses),
			Current: courses,
		}
	}

	// Uniform Fisher-Yates permutation over the stable (course, name)
	// base ordering.
	e.shuffle(len(participants), func(i, j int) {
		participants[i], participants[j] = participants[j], participants[i]
	})

	groups := partition(participants, time.Now())

	// The replace must commit or roll back as a whole even if the
	// client goes away mid-request.
	if err := e.store.Groups().ReplaceAll(context.WithoutCancel(ctx), groups); err != nil {
		return nil, fmt.Errorf("persist draw: %w", err)
	}

	totalGroups := len(groups)
	return &models.DrawResult{
		Groups: groups,
		Stats: models.DrawStats{
			TotalParticipants:     len(participants),
			TotalGroups:           totalGroups,
			ParticipantsInGroups:  totalGroups * GroupSize,
			RemainingParticipants: len(participants) - totalGroups*GroupSize,
		},
	}, nil
}

// partition chunks the shuffled participants into consecutive groups
// of exactly GroupSize, naming and coloring each in creation order.
// Members within a group are ordered by name.
func partition(shuffled []*models.Participant, createdAt time.Time) []*models.GroupWithMembers {
	totalGroups := len(shuffled) / GroupSize

	groups := make([]*models.GroupWithMembers, 0, totalGroups)
	for i := 0; i < totalGroups; i++ {
		members := make([]*models.Participant, GroupSize)
		copy(members, shuffled[i*GroupSize:(i+1)*GroupSize])
		sort.Slice(members, func(a, b int) bool {
			return members[a].Name < members[b].Name
		})

		groups = append(groups, &models.GroupWithMembers{
			Group: models.Group{
				ID:        uuid.New().String(),
				Name:      fmt.Sprintf("Group %d", i+1),
				Color:     Palette[i%len(Palette)],
				Position:  i + 1,
				CreatedAt: createdAt,
			},
			Members: members,
		})
	}
	return groups
}

// countCourses returns the number of distinct courses among the
// given participants.
func countCourses(participants []*models.Participant) int {
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		seen[p.Course] = struct{}{}
	}
	return len(seen)
}
