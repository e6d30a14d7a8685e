// Package oracle adapts the generative content service behind narrow,
// prompt-shaped functions. The pipeline never sees chat messages or model
// names, only typed drafts.
package oracle

import (
	"github.com/lexidrill/examgen-backend/internal/model"
)

// Usage accumulates token cost over one pipeline run. A fresh instance is
// created per run and threaded through every call site, so concurrent runs
// cannot cross-contaminate accounting.
type Usage struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Record adds one call's token counts.
func (u *Usage) Record(prompt, completion int) {
	u.Calls++
	u.PromptTokens += prompt
	u.CompletionTokens += completion
}

// TotalTokens returns the combined prompt and completion token count.
func (u *Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}

// PassageRequest asks for one reading passage.
type PassageRequest struct {
	Category     string
	Difficulty   model.Difficulty
	TargetWords  int
	TargetSkills []string
	WeakAreas    []string
}

// PassageDraft is the oracle's passage output.
type PassageDraft struct {
	Content   string `json:"content"`
	Genre     string `json:"genre"`
	SourceRef string `json:"source_ref"`
}

// LinkedQuestionsRequest asks for a set of passage-linked questions in one
// call. Counts maps question types to how many of each to produce.
type LinkedQuestionsRequest struct {
	PassageContent string
	Counts         map[model.QuestionType]int
	Difficulty     model.Difficulty
	TargetSkills   []string
}

// QuestionDraft is one generated multiple-choice question. Options is keyed
// by the fixed A-D labels; the correct answer is intentionally absent — it
// is selected in a later phase.
type QuestionDraft struct {
	QuestionText string             `json:"question_text"`
	QuestionType model.QuestionType `json:"question_type"`
	Options      map[string]string  `json:"options"`
	Tags         []string           `json:"tags"`
}

// StandaloneQuestionRequest asks for one passage-independent question.
type StandaloneQuestionRequest struct {
	Type       model.QuestionType
	Category   string
	Difficulty model.Difficulty
}

// StandaloneDraft is one generated standalone question. Fragments are in
// canonical (logical) order for sentence_order; for odd_one_out, OddIndex
// is the 1-based position of the fragment that does not belong.
type StandaloneDraft struct {
	QuestionText string   `json:"question_text"`
	Fragments    []string `json:"fragments"`
	OddIndex     int      `json:"odd_index"`
	Tags         []string `json:"tags"`
}

// AnswerQuery is one question in an answer-selection batch.
type AnswerQuery struct {
	QuestionText string
	Options      map[string]string
}

// AnswerSelectionRequest asks the oracle to pick the correct option for a
// batch of questions that share one passage. The prompt contract requires
// the chosen labels to spread across the batch rather than clustering on
// one label.
type AnswerSelectionRequest struct {
	PassageContent string
	Questions      []AnswerQuery
}

// RationaleRequest asks for the explanation of a finalized answer.
type RationaleRequest struct {
	PassageContent string
	QuestionText   string
	Options        map[string]string
	SequencingMap  map[string]string
	CorrectAnswer  string
}
