package api

import (
	"context"
	"errors"
	"log"
	"net/http"
)

// handleStats serves the public aggregate counters shown on the
// landing page: how many participants, courses, and groups exist.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participants, err := s.storage.Participants().Count(ctx, "")
	if err != nil {
		s.statsError(w, err)
		return
	}

	courses, err := s.storage.Participants().CountCourses(ctx)
	if err != nil {
		s.statsError(w, err)
		return
	}

	groups, err := s.storage.Groups().Count(ctx)
	if err != nil {
		s.statsError(w, err)
		return
	}

	OK(w, &StatsResponse{
		Participants: participants,
		Courses:      courses,
		Groups:       groups,
	})
}

func (s *Server) statsError(w http.ResponseWriter, err error) {
	log.Printf("stats error: %v", err)
	if errors.Is(err, context.DeadlineExceeded) {
		JSONError(w, ErrUnavailable)
		return
	}
	JSONError(w, ErrInternalServer)
}
