package oracle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexidrill/examgen-backend/internal/model"
)

func buildPassagePrompt(req PassageRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam content author producing reading passages for a standardized English test.\n\n")
	sb.WriteString(fmt.Sprintf("Write ONE reading passage about %q at %s difficulty, roughly %d words long.\n", req.Category, req.Difficulty, req.TargetWords))
	if len(req.TargetSkills) > 0 {
		sb.WriteString("Emphasize material that exercises these skills: " + strings.Join(req.TargetSkills, ", ") + ".\n")
	}
	if len(req.WeakAreas) > 0 {
		sb.WriteString("The reader struggles with: " + strings.Join(req.WeakAreas, ", ") + ". Lean into those areas.\n")
	}
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"content": "<passage text>", "genre": "<one of: expository, narrative, argumentative, descriptive>", "source_ref": "<short invented attribution>"}`)
	return sb.String()
}

func buildLinkedQuestionsPrompt(req LinkedQuestionsRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam question author. Write questions about the passage below.\n\n")
	sb.WriteString("PASSAGE:\n" + req.PassageContent + "\n\n")
	sb.WriteString("Produce exactly these question types and counts:\n")
	// Stable iteration so the prompt is reproducible for identical input.
	types := make([]string, 0, len(req.Counts))
	for t := range req.Counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", t, req.Counts[model.QuestionType(t)]))
	}
	sb.WriteString(fmt.Sprintf("\nDifficulty: %s.\n", req.Difficulty))
	if len(req.TargetSkills) > 0 {
		sb.WriteString("Tag each question with relevant skills from: " + strings.Join(req.TargetSkills, ", ") + ".\n")
	}
	sb.WriteString("\nEach question has four options labeled A-D. Exactly one option must be defensibly correct; do NOT indicate which.\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"questions": [{"question_text": "...", "question_type": "<type>", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}, "tags": ["..."]}]}`)
	return sb.String()
}

func buildStandalonePrompt(req StandaloneQuestionRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam question author for a standardized English test.\n\n")
	switch req.Type {
	case model.QuestionTypeSentenceOrder:
		sb.WriteString(fmt.Sprintf("Write a four-sentence mini-narrative about %q at %s difficulty whose sentences have exactly one logical order.\n", req.Category, req.Difficulty))
		sb.WriteString("List the sentences in their correct logical order. Set odd_index to 0.\n")
	case model.QuestionTypeOddOneOut:
		sb.WriteString(fmt.Sprintf("Write four thematically related sentences about %q at %s difficulty, except one that subtly breaks the theme.\n", req.Category, req.Difficulty))
		sb.WriteString("Set odd_index to the 1-based position of the sentence that does not belong.\n")
	}
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"question_text": "<instruction shown to the examinee>", "fragments": ["...", "...", "...", "..."], "odd_index": <int>, "tags": ["..."]}`)
	return sb.String()
}

func buildAnswerSelectionPrompt(req AnswerSelectionRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam answer-key author. For each question below, decide which option is correct given the passage.\n\n")
	sb.WriteString("PASSAGE:\n" + req.PassageContent + "\n\n")
	for i, q := range req.Questions {
		sb.WriteString(fmt.Sprintf("QUESTION %d: %s\n", i+1, q.QuestionText))
		for _, label := range model.OptionLabels {
			if opt, ok := q.Options[label]; ok {
				sb.WriteString(fmt.Sprintf("  %s) %s\n", label, opt))
			}
		}
	}
	sb.WriteString("\nAcross the batch, correct answers must not cluster on a single label.\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"answers": ["<label for question 1>", "<label for question 2>", ...]}`)
	return sb.String()
}

func buildRationalePrompt(req RationaleRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam explanation author. Explain in 2-4 sentences why the marked answer is correct.\n\n")
	if req.PassageContent != "" {
		sb.WriteString("PASSAGE:\n" + req.PassageContent + "\n\n")
	}
	sb.WriteString("QUESTION: " + req.QuestionText + "\n")
	for _, label := range model.OptionLabels {
		if opt, ok := req.Options[label]; ok {
			sb.WriteString(fmt.Sprintf("  %s) %s\n", label, opt))
		}
	}
	if len(req.SequencingMap) > 0 {
		positions := make([]string, 0, len(req.SequencingMap))
		for pos := range req.SequencingMap {
			positions = append(positions, pos)
		}
		sort.Strings(positions)
		for _, pos := range positions {
			sb.WriteString(fmt.Sprintf("  %s) %s\n", pos, req.SequencingMap[pos]))
		}
	}
	sb.WriteString("\nCORRECT ANSWER: " + req.CorrectAnswer + "\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"rationale": "<explanation>"}`)
	return sb.String()
}
