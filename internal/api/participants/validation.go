package participants

import (
	"strings"
	"unicode/utf8"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

const (
	minNameLength   = 3
	maxNameLength   = 120
	maxCourseLength = 120
)

// validateRegistration checks a registration request and returns a
// per-field error map. The returned name and course are trimmed.
func validateRegistration(req *RegisterRequest) (name, course string, fields map[string]string) {
	fields = make(map[string]string)

	// Lengths count runes, not bytes, so accented names measure the
	// same as their ASCII equivalents.
	name = strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		fields["name"] = "name must have at least 3 characters"
	} else if utf8.RuneCountInString(name) > maxNameLength {
		fields["name"] = "name is too long"
	}

	course = strings.TrimSpace(req.Course)
	if course == "" {
		fields["course"] = "course is required"
	} else if utf8.RuneCountInString(course) > maxCourseLength {
		fields["course"] = "course is too long"
	}

	if req.Semester < models.MinSemester || req.Semester > models.MaxSemester {
		fields["semester"] = "semester must be between 1 and 10"
	}

	if len(fields) == 0 {
		fields = nil
	}
	return name, course, fields
}
