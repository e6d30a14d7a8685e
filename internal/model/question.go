package model

import (
	"github.com/google/uuid"
)

// QuestionType is the closed set of supported question formats.
type QuestionType string

const (
	// Passage-linked (primary) types. All carry an A-D options map.
	QuestionTypeMainIdea      QuestionType = "main_idea"
	QuestionTypeTitle         QuestionType = "title"
	QuestionTypeBlankInfer    QuestionType = "blank_inference"
	QuestionTypeVocabContext  QuestionType = "vocabulary_in_context"
	// Standalone (secondary) types. Both carry a sequencing map keyed by
	// position digits.
	QuestionTypeSentenceOrder QuestionType = "sentence_order"
	QuestionTypeOddOneOut     QuestionType = "odd_one_out"
)

// LinkedQuestionTypes lists the passage-linked types in generation order.
var LinkedQuestionTypes = []QuestionType{
	QuestionTypeMainIdea,
	QuestionTypeTitle,
	QuestionTypeBlankInfer,
	QuestionTypeVocabContext,
}

// StandaloneQuestionTypes lists the standalone types in generation order.
var StandaloneQuestionTypes = []QuestionType{
	QuestionTypeSentenceOrder,
	QuestionTypeOddOneOut,
}

// IsLinkedType reports whether t requires an owning passage.
func IsLinkedType(t QuestionType) bool {
	for _, lt := range LinkedQuestionTypes {
		if t == lt {
			return true
		}
	}
	return false
}

// IsStandaloneType reports whether t is passage-independent.
func IsStandaloneType(t QuestionType) bool {
	for _, st := range StandaloneQuestionTypes {
		if t == st {
			return true
		}
	}
	return false
}

// OptionLabels is the fixed label set for multiple-choice options.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question is a single exam question. PassageID is nil for standalone
// types. CorrectAnswer holds an option label for multiple-choice types, a
// position digit for odd_one_out, and a full digit sequence (e.g. "3142")
// for sentence_order.
type Question struct {
	ID            uuid.UUID         `json:"id"`
	ExamID        uuid.UUID         `json:"exam_id"`
	PassageID     *uuid.UUID        `json:"passage_id,omitempty"`
	QuestionText  string            `json:"question_text"`
	QuestionType  QuestionType      `json:"question_type"`
	Options       map[string]string `json:"options,omitempty"`
	SequencingMap map[string]string `json:"sequencing_map,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	Rationale     string            `json:"rationale"`
	Difficulty    Difficulty        `json:"difficulty"`
	Tags          []string          `json:"tags"`
}
