package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/invindex"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

func descSelector(c course.Course) string { return c.Description }

func corpus() []course.Course {
	return []course.Course{
		{ID: "c1", Description: "machine learning"},
		{ID: "c2", Description: "deep learning systems"},
		{ID: "c3", Description: "database systems"},
	}
}

func TestFingerprintTracksCorpus(t *testing.T) {
	courses := corpus()
	fp := Fingerprint(courses)
	assert.True(t, strings.HasPrefix(fp, "3:"))
	assert.Equal(t, fp, Fingerprint(corpus()))

	grown := append(corpus(), course.Course{ID: "c4"})
	assert.NotEqual(t, fp, Fingerprint(grown))

	renamed := corpus()
	renamed[0].ID = "other"
	assert.NotEqual(t, fp, Fingerprint(renamed))
}

func TestVocabularyRoundTrip(t *testing.T) {
	courses := corpus()
	fp := Fingerprint(courses)
	v := vocab.Build(courses, descSelector)
	path := filepath.Join(t.TempDir(), "vocabulary_description.idx")

	require.NoError(t, WriteVocabulary(path, course.FieldDescription, fp, v))
	loaded, err := LoadVocabulary(path, course.FieldDescription, fp)
	require.NoError(t, err)

	assert.Equal(t, v.Terms(), loaded.Terms())
	id, ok := loaded.ID("machine")
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestBooleanRoundTrip(t *testing.T) {
	courses := corpus()
	fp := Fingerprint(courses)
	v := vocab.Build(courses, descSelector)
	idx := invindex.BuildBoolean(courses, v, descSelector)
	path := filepath.Join(t.TempDir(), "boolean_description.idx")

	require.NoError(t, WriteBoolean(path, course.FieldDescription, fp, idx))
	loaded, err := LoadBoolean(path, course.FieldDescription, fp)
	require.NoError(t, err)

	assert.Equal(t, idx.TermCount(), loaded.TermCount())
	learn, _ := v.ID("learn")
	assert.Equal(t, idx.Postings(learn), loaded.Postings(learn))
}

func TestWeightedRoundTrip(t *testing.T) {
	courses := corpus()
	fp := Fingerprint(courses)
	v := vocab.Build(courses, descSelector)
	idx := invindex.BuildWeighted(courses, v, descSelector, len(courses))
	path := filepath.Join(t.TempDir(), "tfidf_description.idx")

	require.NoError(t, WriteWeighted(path, course.FieldDescription, fp, idx))
	loaded, err := LoadWeighted(path, course.FieldDescription, fp)
	require.NoError(t, err)

	assert.Equal(t, idx.TermCount(), loaded.TermCount())
	machine, _ := v.ID("machine")
	assert.Equal(t, idx.Postings(machine), loaded.Postings(machine))
}

func TestLoadRejectsStaleFingerprint(t *testing.T) {
	courses := corpus()
	v := vocab.Build(courses, descSelector)
	path := filepath.Join(t.TempDir(), "vocabulary_description.idx")

	require.NoError(t, WriteVocabulary(path, course.FieldDescription, Fingerprint(courses), v))

	grown := append(corpus(), course.Course{ID: "c4", Description: "new"})
	_, err := LoadVocabulary(path, course.FieldDescription, Fingerprint(grown))
	assert.ErrorIs(t, err, pkgerrors.ErrStaleArtifact)
}

func TestLoadRejectsWrongKindAndField(t *testing.T) {
	courses := corpus()
	fp := Fingerprint(courses)
	v := vocab.Build(courses, descSelector)
	path := filepath.Join(t.TempDir(), "vocabulary_description.idx")
	require.NoError(t, WriteVocabulary(path, course.FieldDescription, fp, v))

	_, err := LoadBoolean(path, course.FieldDescription, fp)
	assert.ErrorIs(t, err, pkgerrors.ErrCorruptArtifact)

	_, err = LoadVocabulary(path, course.FieldName, fp)
	assert.ErrorIs(t, err, pkgerrors.ErrCorruptArtifact)
}

func TestLoadRejectsCorruptContent(t *testing.T) {
	dir := t.TempDir()
	fp := Fingerprint(corpus())

	cases := map[string]string{
		"empty":        "",
		"bad_magic":    "notmagic\t1\tvocabulary\tdescription\t" + fp + "\n",
		"bad_version":  Magic + "\t9\tvocabulary\tdescription\t" + fp + "\n",
		"short_header": Magic + "\t1\tvocabulary\n",
		"bad_record":   Magic + "\t1\tvocabulary\tdescription\t" + fp + "\nno-tab-here\n",
		"bad_term_id":  Magic + "\t1\tvocabulary\tdescription\t" + fp + "\nmachine\tNaN\n",
		"id_gap":       Magic + "\t1\tvocabulary\tdescription\t" + fp + "\nmachine\t5\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".idx")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := LoadVocabulary(path, course.FieldDescription, fp)
			assert.ErrorIs(t, err, pkgerrors.ErrCorruptArtifact)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.idx"), course.FieldDescription, "0:0")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	courses := corpus()
	v := vocab.Build(courses, descSelector)
	path := filepath.Join(dir, "vocabulary_description.idx")

	require.NoError(t, WriteVocabulary(path, course.FieldDescription, Fingerprint(courses), v))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vocabulary_description.idx", entries[0].Name())
}
