// Package submit carries a finished test to the backend: score calculation,
// payload construction, and the bounded-retry submission engine with its
// local-fallback terminal result.
package submit

// Option is one answer choice of a question, as served by the backend.
type Option struct {
	ID   int    `json:"id"`
	Text string `json:"text,omitempty"`
}

// Question carries whichever correct-answer representation the backend used:
// a direct option index (correct_answer) or an option ID to resolve against
// the option list (correct_option / correct_option_id).
type Question struct {
	ID              int      `json:"id"`
	Text            string   `json:"text,omitempty"`
	CorrectAnswer   *int     `json:"correct_answer,omitempty"`
	CorrectOption   *int     `json:"correct_option,omitempty"`
	CorrectOptionID *int     `json:"correct_option_id,omitempty"`
	Options         []Option `json:"options,omitempty"`
}

// AnswerRecord is one line of the submission payload.
type AnswerRecord struct {
	QuestionID       int  `json:"question_id"`
	SelectedOptionID int  `json:"selected_option_id"`
	IsCorrect        bool `json:"is_correct"`
}

// correctIndex derives the canonical correct-answer option index for a
// question, resolving ID-based representations against the option list.
func correctIndex(q Question) (int, bool) {
	if q.CorrectAnswer != nil {
		return *q.CorrectAnswer, true
	}
	id := q.CorrectOption
	if id == nil {
		id = q.CorrectOptionID
	}
	if id == nil {
		return 0, false
	}
	for i, opt := range q.Options {
		if opt.ID == *id {
			return i, true
		}
	}
	return 0, false
}

// CalculateScore counts the questions whose selected option index matches the
// canonical correct index. Answers are keyed by question position; unanswered
// positions contribute zero. Malformed questions (no resolvable correct
// answer) never match and never panic.
func CalculateScore(answers map[int]int, questions []Question) int {
	score := 0
	for i, q := range questions {
		selected, answered := answers[i]
		if !answered {
			continue
		}
		if correct, ok := correctIndex(q); ok && selected == correct {
			score++
		}
	}
	return score
}

// FormatAnswers produces one record per answered question for the submission
// payload, using the same correct-answer resolution as CalculateScore.
func FormatAnswers(answers map[int]int, questions []Question) []AnswerRecord {
	var records []AnswerRecord
	for i, q := range questions {
		selected, answered := answers[i]
		if !answered {
			continue
		}
		optionID := selected
		if selected >= 0 && selected < len(q.Options) {
			optionID = q.Options[selected].ID
		}
		correct, ok := correctIndex(q)
		records = append(records, AnswerRecord{
			QuestionID:       q.ID,
			SelectedOptionID: optionID,
			IsCorrect:        ok && selected == correct,
		})
	}
	return records
}
