package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestCalculateScoreDirectIndex(t *testing.T) {
	questions := []Question{
		{ID: 10, CorrectAnswer: intp(1)},
		{ID: 11, CorrectAnswer: intp(0)},
		{ID: 12, CorrectAnswer: intp(2)},
	}
	answers := map[int]int{0: 1, 1: 2, 2: 2}
	assert.Equal(t, 2, CalculateScore(answers, questions))
}

func TestCalculateScoreRepresentationInvariance(t *testing.T) {
	// The same logical exam in all three correct-answer representations must
	// score identically.
	options := []Option{{ID: 101}, {ID: 102}, {ID: 103}}
	direct := []Question{
		{ID: 1, CorrectAnswer: intp(1), Options: options},
		{ID: 2, CorrectAnswer: intp(0), Options: options},
	}
	byOption := []Question{
		{ID: 1, CorrectOption: intp(102), Options: options},
		{ID: 2, CorrectOption: intp(101), Options: options},
	}
	byOptionID := []Question{
		{ID: 1, CorrectOptionID: intp(102), Options: options},
		{ID: 2, CorrectOptionID: intp(101), Options: options},
	}

	answers := map[int]int{0: 1, 1: 1}
	want := CalculateScore(answers, direct)
	assert.Equal(t, 1, want)
	assert.Equal(t, want, CalculateScore(answers, byOption))
	assert.Equal(t, want, CalculateScore(answers, byOptionID))
}

func TestCalculateScoreUnansweredAndMalformed(t *testing.T) {
	questions := []Question{
		{ID: 1, CorrectAnswer: intp(0)},
		{ID: 2}, // no correct-answer representation at all
		{ID: 3, CorrectOptionID: intp(999), Options: []Option{{ID: 1}}}, // unresolvable ID
	}

	assert.Equal(t, 0, CalculateScore(nil, questions))
	assert.Equal(t, 1, CalculateScore(map[int]int{0: 0, 1: 0, 2: 0}, questions))
}

func TestFormatAnswers(t *testing.T) {
	questions := []Question{
		{ID: 7, CorrectAnswer: intp(1), Options: []Option{{ID: 70}, {ID: 71}}},
		{ID: 8, CorrectAnswer: intp(0), Options: []Option{{ID: 80}, {ID: 81}}},
		{ID: 9, CorrectAnswer: intp(0)},
	}
	records := FormatAnswers(map[int]int{0: 1, 2: 3}, questions)
	require.Len(t, records, 2)

	assert.Equal(t, AnswerRecord{QuestionID: 7, SelectedOptionID: 71, IsCorrect: true}, records[0])
	// No option list: the raw selected index doubles as the option ID.
	assert.Equal(t, AnswerRecord{QuestionID: 9, SelectedOptionID: 3, IsCorrect: false}, records[1])
}
