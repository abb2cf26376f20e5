package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBankIsValid(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)
	for _, lv := range Levels {
		assert.NotEmpty(t, bank.Levels[lv].Questions, "level %s", lv)
		assert.NotEmpty(t, bank.Levels[lv].Phrases, "level %s", lv)
	}
	assert.Equal(t, "Ciao", bank.Levels[LevelBasic].Phrases["Hello"])
}

func TestParse_RejectsEmptyQuestionList(t *testing.T) {
	doc := []byte(`
levels:
  basic:
    phrases: {"Hello": "Ciao"}
    questions: []
  intermediate:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
  advanced:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
`)
	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestParse_RejectsMissingLevel(t *testing.T) {
	doc := []byte(`
levels:
  basic:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
`)
	_, err := Parse(doc)
	require.Error(t, err)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	doc := []byte(`
levels:
  basic:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a", hint: "h"}]
  intermediate:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
  advanced:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
`)
	_, err := Parse(doc)
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	doc := []byte(`
levels:
  basic:
    phrases: {"Yes": "Sì"}
    questions: [{question: "Say 'Yes'", answer: "Sì"}]
  intermediate:
    phrases: {"No": "No"}
    questions: [{question: "Say 'No'", answer: "No"}]
  advanced:
    phrases: {"Maybe": "Forse"}
    questions: [{question: "Say 'Maybe'", answer: "Forse"}]
`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	bank, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Sì", bank.Levels[LevelBasic].Phrases["Yes"])
	assert.Len(t, bank.Levels[LevelAdvanced].Questions, 1)
}

func TestLoadFile_EmptyPathUsesDefault(t *testing.T) {
	bank, err := LoadFile("")
	require.NoError(t, err)
	assert.Contains(t, bank.Levels[LevelBasic].Phrases, "Hello")
}

func TestValidate_NilBank(t *testing.T) {
	err := Validate(nil)
	assert.True(t, errors.Is(err, ErrContentUnavailable))
}

func TestParse_RejectsBlankAnswer(t *testing.T) {
	doc := []byte(`
levels:
  basic:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "Say 'Hello'", answer: "   "}]
  intermediate:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
  advanced:
    phrases: {"Hello": "Ciao"}
    questions: [{question: "q", answer: "a"}]
`)
	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestValidate_RejectsBlankQuestionOrAnswer(t *testing.T) {
	level := func(q Question) LevelContent {
		return LevelContent{Phrases: map[string]string{"Hello": "Ciao"}, Questions: []Question{q}}
	}
	for name, q := range map[string]Question{
		"blank answer":   {Question: "Say 'Hello'", Answer: " \t "},
		"blank question": {Question: "  ", Answer: "Ciao"},
	} {
		t.Run(name, func(t *testing.T) {
			b := &Bank{Levels: map[Level]LevelContent{
				LevelBasic:        level(q),
				LevelIntermediate: level(Question{Question: "q", Answer: "a"}),
				LevelAdvanced:     level(Question{Question: "q", Answer: "a"}),
			}}
			assert.ErrorIs(t, Validate(b), ErrContentUnavailable)
		})
	}
}
