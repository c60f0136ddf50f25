// Package models defines the domain types shared across the service.
package models

import "time"

// Participant is a registered member of the association.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Course    string    `json:"course"`
	Semester  int       `json:"semester"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Semester bounds accepted at registration.
const (
	MinSemester = 1
	MaxSemester = 10
)

// CourseGroup aggregates the participants of a single course,
// ordered by name. Used by the by-course listing and the PDF export.
type CourseGroup struct {
	Course       string         `json:"course"`
	Count        int            `json:"count"`
	Participants []*Participant `json:"participants"`
}
