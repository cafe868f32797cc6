// Package course defines the course document model and the stores the
// engine reads its corpus from. Courses are immutable once ingested; the
// index build phase reads them in stable ID order.
package course

import "fmt"

// Course is one corpus record, scraped from a course listing page.
type Course struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	University     string   `json:"university"`
	Faculty        string   `json:"faculty"`
	FullTime       string   `json:"full_time"`
	Description    string   `json:"description"`
	StartDate      string   `json:"start_date"`
	Fees           string   `json:"fees"`
	FeesEUR        *float64 `json:"fees_eur,omitempty"`
	Modality       string   `json:"modality"`
	Duration       string   `json:"duration"`
	City           string   `json:"city"`
	Country        string   `json:"country"`
	Administration string   `json:"administration"`
	URL            string   `json:"url"`
}

// Field enumerates the independently indexed course fields.
type Field string

const (
	FieldDescription Field = "description"
	FieldName        Field = "name"
	FieldUniversity  Field = "university"
	FieldCity        Field = "city"
)

// IndexedFields lists every field an index is built for, in a fixed order.
var IndexedFields = []Field{FieldDescription, FieldName, FieldUniversity, FieldCity}

// Selector returns the raw text of the given field, or an error if the
// field is not indexable.
func Selector(f Field) (func(c Course) string, error) {
	switch f {
	case FieldDescription:
		return func(c Course) string { return c.Description }, nil
	case FieldName:
		return func(c Course) string { return c.Name }, nil
	case FieldUniversity:
		return func(c Course) string { return c.University }, nil
	case FieldCity:
		return func(c Course) string { return c.City }, nil
	default:
		return nil, fmt.Errorf("field %q is not indexed", f)
	}
}

// Complete reports whether every displayed field carries a value. Courses
// with gaps are still searchable but are penalised by the composite scorer.
func (c Course) Complete() bool {
	if c.Name == "" || c.University == "" || c.Description == "" ||
		c.StartDate == "" || c.City == "" || c.Country == "" ||
		c.Administration == "" || c.FullTime == "" || c.URL == "" {
		return false
	}
	return c.FeesEUR != nil
}
