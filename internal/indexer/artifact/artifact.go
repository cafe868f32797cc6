// Package artifact reads and writes the persisted index files: vocabulary,
// boolean inverted index, and tf-idf weighted inverted index. Every file
// starts with a versioned header carrying a corpus fingerprint, so stale
// artifacts are detected and rebuilt instead of silently served. Records are
// tab-separated and parsed strictly; nothing here ever evaluates file
// content as code.
package artifact

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/invindex"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

const (
	// Magic identifies a coursehound index artifact.
	Magic = "courseidx"
	// FormatVersion is bumped on any incompatible format change.
	FormatVersion = 1

	KindVocabulary = "vocabulary"
	KindBoolean    = "boolean"
	KindWeighted   = "tfidf"
)

// Fingerprint derives a corpus identity from its size and document IDs.
// Artifacts whose fingerprint no longer matches the live corpus are
// invalidated and rebuilt.
func Fingerprint(courses []course.Course) string {
	h := fnv.New64a()
	for _, c := range courses {
		h.Write([]byte(c.ID))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%d:%016x", len(courses), h.Sum64())
}

// WriteVocabulary persists a vocabulary as term<TAB>id records in ID order.
func WriteVocabulary(path string, field course.Field, fingerprint string, v *vocab.Vocabulary) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		writeHeader(w, KindVocabulary, field, fingerprint)
		for i, term := range v.Terms() {
			fmt.Fprintf(w, "%s\t%d\n", term, i+1)
		}
		return nil
	})
}

// LoadVocabulary reads a vocabulary artifact, validating its header against
// the expected fingerprint.
func LoadVocabulary(path string, field course.Field, fingerprint string) (*vocab.Vocabulary, error) {
	lines, err := readRecords(path, KindVocabulary, field, fingerprint)
	if err != nil {
		return nil, err
	}
	v := vocab.New()
	for i, line := range lines {
		term, idStr, ok := strings.Cut(line, "\t")
		if !ok || term == "" {
			return nil, corrupt(path, i, "expected term<TAB>id")
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, corrupt(path, i, "non-numeric term id %q", idStr)
		}
		if got := v.Add(term); got != id {
			return nil, corrupt(path, i, "term id %d out of sequence, want %d", id, got)
		}
	}
	return v, nil
}

// WriteBoolean persists a boolean index as termID<TAB>doc1,doc2,... records
// in ascending term-ID order.
func WriteBoolean(path string, field course.Field, fingerprint string, idx *invindex.Boolean) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		writeHeader(w, KindBoolean, field, fingerprint)
		ids := idx.TermIDs()
		sort.Ints(ids)
		for _, termID := range ids {
			fmt.Fprintf(w, "%d\t%s\n", termID, strings.Join(idx.Postings(termID), ","))
		}
		return nil
	})
}

// LoadBoolean reads a boolean index artifact.
func LoadBoolean(path string, field course.Field, fingerprint string) (*invindex.Boolean, error) {
	lines, err := readRecords(path, KindBoolean, field, fingerprint)
	if err != nil {
		return nil, err
	}
	idx := invindex.NewBoolean()
	for i, line := range lines {
		idStr, docs, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, corrupt(path, i, "expected termID<TAB>postings")
		}
		termID, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, corrupt(path, i, "non-numeric term id %q", idStr)
		}
		for _, docID := range strings.Split(docs, ",") {
			if docID == "" {
				return nil, corrupt(path, i, "empty document id")
			}
			idx.Add(termID, docID)
		}
	}
	return idx, nil
}

// WriteWeighted persists a weighted index as
// termID<TAB>doc:score,doc:score,... records in ascending term-ID order.
// Scores print with two decimals, matching the rounding used at build time.
func WriteWeighted(path string, field course.Field, fingerprint string, idx *invindex.Weighted) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		writeHeader(w, KindWeighted, field, fingerprint)
		ids := idx.TermIDs()
		sort.Ints(ids)
		for _, termID := range ids {
			parts := make([]string, 0, len(idx.Postings(termID)))
			for _, p := range idx.Postings(termID) {
				parts = append(parts, p.DocID+":"+strconv.FormatFloat(p.Score, 'f', 2, 64))
			}
			fmt.Fprintf(w, "%d\t%s\n", termID, strings.Join(parts, ","))
		}
		return nil
	})
}

// LoadWeighted reads a weighted index artifact.
func LoadWeighted(path string, field course.Field, fingerprint string) (*invindex.Weighted, error) {
	lines, err := readRecords(path, KindWeighted, field, fingerprint)
	if err != nil {
		return nil, err
	}
	idx := invindex.NewWeighted()
	for i, line := range lines {
		idStr, entries, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, corrupt(path, i, "expected termID<TAB>postings")
		}
		termID, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, corrupt(path, i, "non-numeric term id %q", idStr)
		}
		for _, entry := range strings.Split(entries, ",") {
			docID, scoreStr, ok := strings.Cut(entry, ":")
			if !ok || docID == "" {
				return nil, corrupt(path, i, "expected doc:score, got %q", entry)
			}
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				return nil, corrupt(path, i, "non-numeric score %q", scoreStr)
			}
			idx.Add(termID, invindex.Posting{DocID: docID, Score: score})
		}
	}
	return idx, nil
}

func writeHeader(w *bufio.Writer, kind string, field course.Field, fingerprint string) {
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", Magic, FormatVersion, kind, field, fingerprint)
}

// writeAtomic writes through a .tmp file and renames on success, so readers
// never observe a partially written artifact.
func writeAtomic(path string, fn func(w *bufio.Writer) error) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing artifact file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming artifact file: %w", err)
	}
	return nil
}

// readRecords validates the artifact header and returns the record lines.
func readRecords(path string, kind string, field course.Field, fingerprint string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: %s is empty", pkgerrors.ErrCorruptArtifact, path)
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) != 5 || header[0] != Magic {
		return nil, fmt.Errorf("%w: %s has a bad header", pkgerrors.ErrCorruptArtifact, path)
	}
	version, err := strconv.Atoi(header[1])
	if err != nil || version != FormatVersion {
		return nil, fmt.Errorf("%w: %s has unsupported version %q", pkgerrors.ErrCorruptArtifact, path, header[1])
	}
	if header[2] != kind {
		return nil, fmt.Errorf("%w: %s is a %s artifact, want %s", pkgerrors.ErrCorruptArtifact, path, header[2], kind)
	}
	if header[3] != string(field) {
		return nil, fmt.Errorf("%w: %s indexes field %q, want %q", pkgerrors.ErrCorruptArtifact, path, header[3], field)
	}
	if header[4] != fingerprint {
		return nil, fmt.Errorf("%w: %s fingerprint %s does not match corpus %s", pkgerrors.ErrStaleArtifact, path, header[4], fingerprint)
	}

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	return lines, nil
}

func corrupt(path string, line int, format string, args ...any) error {
	return fmt.Errorf("%w: %s record %d: %s", pkgerrors.ErrCorruptArtifact, path, line+1, fmt.Sprintf(format, args...))
}
