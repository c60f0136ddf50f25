package models

import "time"

// Group is one team produced by a draw. A full set of groups
// represents exactly one draw; running a new draw replaces them all.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupWithMembers is a group together with its member list,
// ordered by participant name.
type GroupWithMembers struct {
	Group
	Members []*Participant `json:"members"`
}

// DrawStats summarizes one draw run.
type DrawStats struct {
	TotalParticipants     int `json:"total_participants"`
	TotalGroups           int `json:"total_groups"`
	ParticipantsInGroups  int `json:"participants_in_groups"`
	RemainingParticipants int `json:"remaining_participants"`
}

// DrawResult is the outcome of a successful draw: the created groups
// in creation order plus the derived statistics.
type DrawResult struct {
	Groups []*GroupWithMembers `json:"groups"`
	Stats  DrawStats           `json:"stats"`
}
