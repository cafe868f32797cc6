package ingestion

import (
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

const (
	maxNameLength        = 1024
	maxDescriptionLength = 1048576
)

// ValidationError holds per-field validation failure messages. It unwraps to
// ErrMalformedDocument so callers can treat any validation failure as a
// skippable record.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return pkgerrors.ErrMalformedDocument
}

// ValidateRecord checks the fields a record must carry to be stored and
// indexed. Optional descriptive fields (fees, modality, duration) may be
// empty; they degrade ranking, not ingestion.
func ValidateRecord(r *CourseRecord) error {
	errs := make(map[string]string)

	if strings.TrimSpace(r.ID) == "" {
		errs["id"] = "id is required"
	}
	name := strings.TrimSpace(r.CourseName)
	if name == "" {
		errs["courseName"] = "course name is required"
	} else if len(name) > maxNameLength {
		errs["courseName"] = fmt.Sprintf("course name must be at most %d characters", maxNameLength)
	}
	if strings.TrimSpace(r.UniversityName) == "" {
		errs["universityName"] = "university name is required"
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		errs["description"] = "description is required"
	} else if len(desc) > maxDescriptionLength {
		errs["description"] = fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)
	}
	if u := strings.TrimSpace(r.URL); u == "" {
		errs["url"] = "url is required"
	} else if parsed, err := url.Parse(u); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs["url"] = "url must be absolute"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
