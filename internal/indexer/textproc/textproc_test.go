package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokensNormalises(t *testing.T) {
	tokens := Tokens("The COURSE covers Machine-Learning, and statistics!")
	assert.Equal(t, []string{"course", "cover", "machine", "learn", "statistic"}, tokens)
}

func TestTokensDropsStopWords(t *testing.T) {
	assert.Empty(t, Tokens("the and of to in is are was"))
}

func TestTokensSplitsOnPunctuation(t *testing.T) {
	tokens := Tokens("data/science;2024")
	assert.Equal(t, []string{"data", "science", "2024"}, tokens)
}

func TestTokensPreservesDuplicates(t *testing.T) {
	tokens := Tokens("learning learning learning")
	assert.Equal(t, []string{"learn", "learn", "learn"}, tokens)
}

func TestTokensEmptyInput(t *testing.T) {
	assert.Empty(t, Tokens(""))
	assert.Empty(t, Tokens("   \t\n"))
	assert.Empty(t, Tokens("!!! --- ???"))
}

func TestStemRules(t *testing.T) {
	cases := map[string]string{
		"computational": "computate",
		"educational":   "educate",
		"functional":    "function",
		"dependencies":  "dependence",
		"departments":   "department",
		"optimizing":    "optimize",
		"evaluating":    "evaluate",
		"studying":      "study",
		"studies":       "study",
		"learning":      "learn",
		"engineers":     "engineer",
		"fastest":       "fast",
		"successful":    "success",
		"previous":      "previ",
		"applied":       "appli",
		"quickly":       "quick",
		"courses":       "cours",
		"class":         "class",
		"systems":       "system",
		"data":          "data",
	}
	for word, want := range cases {
		assert.Equal(t, want, stem(word), "stem(%q)", word)
	}
}

func TestStemRespectsMinLength(t *testing.T) {
	// stripping would leave fewer than the rule's minimum characters
	assert.Equal(t, "is", stem("is"))
	assert.Equal(t, "ing", stem("ing"))
}

func TestPreprocessJoinsWithSpaces(t *testing.T) {
	assert.Equal(t, "machine learn", Preprocess("Machine Learning"))
	assert.Equal(t, "", Preprocess("the of and"))
}

func TestQueryAndIndexPipelinesAgree(t *testing.T) {
	text := "Advanced Machine Learning: optimization & applications"
	assert.Equal(t, Tokens(text), Tokens(text))
}
