// Package ingestion defines the course record schema accepted from the
// scraping pipeline, its validation rules, and the Kafka consumer that
// persists records into the course store.
package ingestion

import (
	"time"

	"github.com/coursehound/coursehound/internal/course"
)

// CourseRecord is the JSON payload produced by the scraper for one course
// page. Field names follow the scraper's output schema.
type CourseRecord struct {
	ID             string    `json:"id"`
	CourseName     string    `json:"courseName"`
	UniversityName string    `json:"universityName"`
	FacultyName    string    `json:"facultyName"`
	IsItFullTime   string    `json:"isItFullTime"`
	Description    string    `json:"description"`
	StartDate      string    `json:"startDate"`
	Fees           string    `json:"fees"`
	Modality       string    `json:"modality"`
	Duration       string    `json:"duration"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	Administration string    `json:"administration"`
	URL            string    `json:"url"`
	ScrapedAt      time.Time `json:"scraped_at,omitempty"`
}

// Course maps the record onto the stored course model. FeesEUR is filled in
// later by the ingestion sink.
func (r *CourseRecord) Course() course.Course {
	return course.Course{
		ID:             r.ID,
		Name:           r.CourseName,
		University:     r.UniversityName,
		Faculty:        r.FacultyName,
		FullTime:       r.IsItFullTime,
		Description:    r.Description,
		StartDate:      r.StartDate,
		Fees:           r.Fees,
		Modality:       r.Modality,
		Duration:       r.Duration,
		City:           r.City,
		Country:        r.Country,
		Administration: r.Administration,
		URL:            r.URL,
	}
}
