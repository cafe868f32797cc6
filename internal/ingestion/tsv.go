package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

// Scraper TSV column order. Files written after fee normalisation carry an
// extra "fees (EUR)" column after the raw fees column.
const (
	tsvColumns         = 13
	tsvColumnsWithEUR  = 14
	tsvFeesEURPosition = 7
)

// ParseTSV parses one scraper TSV file: a header line followed by a single
// tab-separated record. The document ID comes from the caller, typically the
// file name stem.
func ParseTSV(id string, data []byte) (*CourseRecord, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: missing record line", pkgerrors.ErrMalformedDocument)
	}
	fields := strings.Split(lines[1], "\t")
	if len(fields) != tsvColumns && len(fields) != tsvColumnsWithEUR {
		return nil, fmt.Errorf("%w: got %d columns, want %d", pkgerrors.ErrMalformedDocument, len(fields), tsvColumns)
	}
	if len(fields) == tsvColumnsWithEUR {
		// drop the derived column, the sink recomputes it
		fields = append(fields[:tsvFeesEURPosition], fields[tsvFeesEURPosition+1:]...)
	}

	return &CourseRecord{
		ID:             id,
		CourseName:     fields[0],
		UniversityName: fields[1],
		FacultyName:    fields[2],
		IsItFullTime:   fields[3],
		Description:    fields[4],
		StartDate:      fields[5],
		Fees:           fields[6],
		Modality:       fields[7],
		Duration:       fields[8],
		City:           fields[9],
		Country:        fields[10],
		Administration: fields[11],
		URL:            fields[12],
	}, nil
}

// LoadDir parses every .tsv file under dir, in file-name order. Malformed
// files are returned separately so callers can report them without aborting
// a seed run.
func LoadDir(dir string) ([]*CourseRecord, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading seed directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tsv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make([]*CourseRecord, 0, len(names))
	failed := make(map[string]error)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		id := strings.TrimSuffix(name, ".tsv")
		record, err := ParseTSV(id, data)
		if err != nil {
			failed[name] = err
			continue
		}
		records = append(records, record)
	}
	return records, failed, nil
}
