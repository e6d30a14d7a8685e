package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// Client wraps an OpenAI-compatible API client as a content oracle.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// New creates a new oracle client. An empty baseURL targets the official
// OpenAI API.
func New(baseURL, apiKey, modelName string, log zerolog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		log:   log.With().Str("component", "oracle").Logger(),
	}
}

// complete issues one chat completion and returns the raw JSON content.
// Token counts are recorded on the run's usage accumulator. No timeout is
// applied here; whatever deadline ctx carries is honored.
func (c *Client) complete(ctx context.Context, u *Usage, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("oracle API call: %w", err)
	}
	if u != nil {
		u.Record(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	c.log.Debug().Str("raw", raw).Msg("oracle response")
	return raw, nil
}

// GeneratePassage produces one reading passage.
func (c *Client) GeneratePassage(ctx context.Context, u *Usage, req PassageRequest) (*PassageDraft, error) {
	raw, err := c.complete(ctx, u, buildPassagePrompt(req), 0.8)
	if err != nil {
		return nil, err
	}
	return parsePassageDraft(raw)
}

// GenerateLinkedQuestions produces the requested passage-linked questions
// in one call.
func (c *Client) GenerateLinkedQuestions(ctx context.Context, u *Usage, req LinkedQuestionsRequest) ([]QuestionDraft, error) {
	raw, err := c.complete(ctx, u, buildLinkedQuestionsPrompt(req), 0.7)
	if err != nil {
		return nil, err
	}
	return parseQuestionDrafts(raw, req.Counts)
}

// GenerateStandaloneQuestion produces one passage-independent question.
func (c *Client) GenerateStandaloneQuestion(ctx context.Context, u *Usage, req StandaloneQuestionRequest) (*StandaloneDraft, error) {
	raw, err := c.complete(ctx, u, buildStandalonePrompt(req), 0.7)
	if err != nil {
		return nil, err
	}
	return parseStandaloneDraft(raw, req.Type)
}

// SelectAnswers picks the correct option for each question in the batch.
func (c *Client) SelectAnswers(ctx context.Context, u *Usage, req AnswerSelectionRequest) ([]string, error) {
	raw, err := c.complete(ctx, u, buildAnswerSelectionPrompt(req), 0.3)
	if err != nil {
		return nil, err
	}
	return parseAnswerLabels(raw, len(req.Questions))
}

// GenerateRationale produces the explanation for a finalized answer.
func (c *Client) GenerateRationale(ctx context.Context, u *Usage, req RationaleRequest) (string, error) {
	raw, err := c.complete(ctx, u, buildRationalePrompt(req), 0.4)
	if err != nil {
		return "", err
	}
	return parseRationale(raw)
}

// ─── Response parsing ──────────────────────────────────────────────────────
// Parsers are standalone so malformed-output handling is testable without a
// live endpoint.

func parsePassageDraft(raw string) (*PassageDraft, error) {
	var draft PassageDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("parse passage response: %w (raw: %s)", err, raw)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil, fmt.Errorf("oracle produced an empty passage")
	}
	return &draft, nil
}

func parseQuestionDrafts(raw string, counts map[model.QuestionType]int) ([]QuestionDraft, error) {
	var envelope struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("parse question response: %w (raw: %s)", err, raw)
	}

	want := 0
	for _, n := range counts {
		want += n
	}
	if len(envelope.Questions) != want {
		return nil, fmt.Errorf("oracle produced %d questions, expected %d", len(envelope.Questions), want)
	}

	for i, q := range envelope.Questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			return nil, fmt.Errorf("question %d has empty text", i+1)
		}
		if !model.IsLinkedType(q.QuestionType) {
			return nil, fmt.Errorf("question %d has unexpected type %q", i+1, q.QuestionType)
		}
		for _, label := range model.OptionLabels {
			if strings.TrimSpace(q.Options[label]) == "" {
				return nil, fmt.Errorf("question %d is missing option %s", i+1, label)
			}
		}
	}
	return envelope.Questions, nil
}

func parseStandaloneDraft(raw string, qt model.QuestionType) (*StandaloneDraft, error) {
	var draft StandaloneDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("parse standalone response: %w (raw: %s)", err, raw)
	}
	if strings.TrimSpace(draft.QuestionText) == "" {
		return nil, fmt.Errorf("standalone question has empty text")
	}
	if len(draft.Fragments) < 3 {
		return nil, fmt.Errorf("standalone question has %d fragments, need at least 3", len(draft.Fragments))
	}
	if qt == model.QuestionTypeOddOneOut && (draft.OddIndex < 1 || draft.OddIndex > len(draft.Fragments)) {
		return nil, fmt.Errorf("odd_index %d out of range for %d fragments", draft.OddIndex, len(draft.Fragments))
	}
	return &draft, nil
}

func parseAnswerLabels(raw string, want int) ([]string, error) {
	var envelope struct {
		Answers []string `json:"answers"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("parse answer response: %w (raw: %s)", err, raw)
	}
	if len(envelope.Answers) != want {
		return nil, fmt.Errorf("oracle selected %d answers, expected %d", len(envelope.Answers), want)
	}
	for i, label := range envelope.Answers {
		valid := false
		for _, l := range model.OptionLabels {
			if label == l {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("answer %d has invalid label %q", i+1, label)
		}
	}
	return envelope.Answers, nil
}

func parseRationale(raw string) (string, error) {
	var envelope struct {
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return "", fmt.Errorf("parse rationale response: %w (raw: %s)", err, raw)
	}
	if strings.TrimSpace(envelope.Rationale) == "" {
		return "", fmt.Errorf("oracle produced an empty rationale")
	}
	return envelope.Rationale, nil
}
