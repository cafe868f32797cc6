package ingestion

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/currency"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

func validRecord() *CourseRecord {
	return &CourseRecord{
		ID:             "course_1",
		CourseName:     "Machine Learning MSc",
		UniversityName: "Example University",
		FacultyName:    "Science",
		IsItFullTime:   "Full time",
		Description:    "machine learning and statistics",
		StartDate:      "September",
		Fees:           "9,250 GBP",
		Modality:       "MSc",
		Duration:       "1 year",
		City:           "Amsterdam",
		Country:        "Netherlands",
		Administration: "Online",
		URL:            "https://example.com/ml",
	}
}

func TestValidateRecordAccepts(t *testing.T) {
	assert.NoError(t, ValidateRecord(validRecord()))
}

func TestValidateRecordRejects(t *testing.T) {
	cases := map[string]func(*CourseRecord){
		"missing id":          func(r *CourseRecord) { r.ID = "" },
		"missing name":        func(r *CourseRecord) { r.CourseName = "  " },
		"missing university":  func(r *CourseRecord) { r.UniversityName = "" },
		"missing description": func(r *CourseRecord) { r.Description = "" },
		"missing url":         func(r *CourseRecord) { r.URL = "" },
		"relative url":        func(r *CourseRecord) { r.URL = "/courses/ml" },
		"name too long":       func(r *CourseRecord) { r.CourseName = strings.Repeat("x", maxNameLength+1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validRecord()
			mutate(r)
			err := ValidateRecord(r)
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrMalformedDocument)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func tsvLine(fields ...string) string {
	header := make([]string, len(fields))
	for i := range header {
		header[i] = "col"
	}
	return strings.Join(header, "\t") + "\n" + strings.Join(fields, "\t") + "\n"
}

func rawTSVFields() []string {
	return []string{
		"Machine Learning MSc", "Example University", "Science", "Full time",
		"machine learning and statistics", "September", "9,250 GBP",
		"MSc", "1 year", "Amsterdam", "Netherlands", "Online",
		"https://example.com/ml",
	}
}

func TestParseTSV(t *testing.T) {
	record, err := ParseTSV("course_1", []byte(tsvLine(rawTSVFields()...)))
	require.NoError(t, err)

	assert.Equal(t, "course_1", record.ID)
	assert.Equal(t, "Machine Learning MSc", record.CourseName)
	assert.Equal(t, "9,250 GBP", record.Fees)
	assert.Equal(t, "https://example.com/ml", record.URL)
}

func TestParseTSVWithFeesEURColumn(t *testing.T) {
	fields := rawTSVFields()
	withEUR := append(append(append([]string{}, fields[:7]...), "10822.5"), fields[7:]...)
	record, err := ParseTSV("course_1", []byte(tsvLine(withEUR...)))
	require.NoError(t, err)

	assert.Equal(t, "MSc", record.Modality)
	assert.Equal(t, "https://example.com/ml", record.URL)
}

func TestParseTSVMalformed(t *testing.T) {
	_, err := ParseTSV("course_1", []byte("header only\n"))
	assert.ErrorIs(t, err, pkgerrors.ErrMalformedDocument)

	_, err = ParseTSV("course_1", []byte(tsvLine("too", "few", "columns")))
	assert.ErrorIs(t, err, pkgerrors.ErrMalformedDocument)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "course_1.tsv"), []byte(tsvLine(rawTSVFields()...)), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "course_2.tsv"), []byte("broken\n"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	records, failed, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "course_1", records[0].ID)
	assert.Contains(t, failed, "course_2.tsv")
}

func TestSinkIngestPersistsWithEURFee(t *testing.T) {
	store := course.NewMemStore()
	sink := NewSink(store, currency.Static(map[string]float64{"GBP": 1.17}), nil)

	require.NoError(t, sink.Ingest(context.Background(), validRecord()))

	c, err := store.Get(context.Background(), "course_1")
	require.NoError(t, err)
	require.NotNil(t, c.FeesEUR)
	assert.Equal(t, 10822.5, *c.FeesEUR)
	assert.Equal(t, "Machine Learning MSc", c.Name)
}

func TestSinkIngestUnparsedFee(t *testing.T) {
	store := course.NewMemStore()
	sink := NewSink(store, currency.Static(nil), nil)

	record := validRecord()
	record.Fees = "See the university website"
	require.NoError(t, sink.Ingest(context.Background(), record))

	c, err := store.Get(context.Background(), "course_1")
	require.NoError(t, err)
	assert.Nil(t, c.FeesEUR)
}

func TestSinkIngestRejectsMalformed(t *testing.T) {
	store := course.NewMemStore()
	sink := NewSink(store, nil, nil)

	record := validRecord()
	record.URL = ""
	err := sink.Ingest(context.Background(), record)
	assert.ErrorIs(t, err, pkgerrors.ErrMalformedDocument)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleMessageSkipsBadPayloads(t *testing.T) {
	store := course.NewMemStore()
	sink := NewSink(store, nil, nil)
	ctx := context.Background()

	// undecodable JSON is skipped, not retried
	assert.NoError(t, sink.HandleMessage(ctx, []byte("k"), []byte("{not json")))

	// malformed records are skipped too
	bad := validRecord()
	bad.CourseName = ""
	payload, err := json.Marshal(bad)
	require.NoError(t, err)
	assert.NoError(t, sink.HandleMessage(ctx, []byte("k"), payload))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleMessagePersistsGoodRecord(t *testing.T) {
	store := course.NewMemStore()
	sink := NewSink(store, nil, nil)

	payload, err := json.Marshal(validRecord())
	require.NoError(t, err)
	require.NoError(t, sink.HandleMessage(context.Background(), []byte("course_1"), payload))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
