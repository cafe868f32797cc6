package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehound/coursehound/internal/course"
)

func descSelector(c course.Course) string { return c.Description }

func TestBuildAssignsFirstSeenIDs(t *testing.T) {
	courses := []course.Course{
		{ID: "c1", Description: "machine learning"},
		{ID: "c2", Description: "deep learning systems"},
	}
	v := Build(courses, descSelector)

	require.Equal(t, 4, v.Len())
	for i, term := range []string{"machine", "learn", "deep", "system"} {
		id, ok := v.ID(term)
		require.True(t, ok, "term %q missing", term)
		assert.Equal(t, i+1, id)
	}
}

func TestBuildSkipsEmptyFields(t *testing.T) {
	courses := []course.Course{
		{ID: "c1", Description: ""},
		{ID: "c2", Description: "databases"},
	}
	v := Build(courses, descSelector)
	assert.Equal(t, 1, v.Len())
}

func TestBuildIsDeterministic(t *testing.T) {
	courses := []course.Course{
		{ID: "c1", Description: "statistics probability inference"},
		{ID: "c2", Description: "probability theory"},
		{ID: "c3", Description: "bayesian inference methods"},
	}
	first := Build(courses, descSelector)
	second := Build(courses, descSelector)

	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Terms(), second.Terms())
}

func TestAddReturnsExistingID(t *testing.T) {
	v := New()
	assert.Equal(t, 1, v.Add("machine"))
	assert.Equal(t, 2, v.Add("learn"))
	assert.Equal(t, 1, v.Add("machine"))
	assert.Equal(t, 2, v.Len())
}

func TestTermLookup(t *testing.T) {
	v := New()
	v.Add("machine")

	assert.Equal(t, "machine", v.Term(1))
	assert.Equal(t, "", v.Term(0))
	assert.Equal(t, "", v.Term(2))

	_, ok := v.ID("unknown")
	assert.False(t, ok)
}
