package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/oracle"
)

// Oracle is the generative content service as seen by the pipeline. The
// concrete implementation lives in internal/oracle; tests substitute fakes.
type Oracle interface {
	GeneratePassage(ctx context.Context, u *oracle.Usage, req oracle.PassageRequest) (*oracle.PassageDraft, error)
	GenerateLinkedQuestions(ctx context.Context, u *oracle.Usage, req oracle.LinkedQuestionsRequest) ([]oracle.QuestionDraft, error)
	GenerateStandaloneQuestion(ctx context.Context, u *oracle.Usage, req oracle.StandaloneQuestionRequest) (*oracle.StandaloneDraft, error)
	SelectAnswers(ctx context.Context, u *oracle.Usage, req oracle.AnswerSelectionRequest) ([]string, error)
	GenerateRationale(ctx context.Context, u *oracle.Usage, req oracle.RationaleRequest) (string, error)
}

var _ Oracle = (*oracle.Client)(nil)

// Sink receives the finished graph. The save must be all-or-nothing: a
// mid-run failure leaves zero persisted content rows.
type Sink interface {
	SaveGraph(ctx context.Context, exam model.Exam, passages []model.Passage, questions []model.Question) error
}

// Request is an accepted, validated generation request handed to the
// pipeline. The exam row and tracker record already exist.
type Request struct {
	ExamID      uuid.UUID
	RequesterID string
	Spec        model.GenerateExamRequest
}

// Result is the structured outcome of one run. No error escapes Run; a
// failure is reported here and in the tracker record.
type Result struct {
	Success bool
	ExamID  uuid.UUID
	Message string
	Usage   oracle.Usage
}

// Pipeline drives one generation run through its phases sequentially. One
// instance may serve many runs; all per-run state lives in the run struct.
type Pipeline struct {
	oracle  Oracle
	tracker *ProgressTracker
	sink    Sink
	debias  *Debiaser
	log     zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(o Oracle, tracker *ProgressTracker, sink Sink, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		oracle:  o,
		tracker: tracker,
		sink:    sink,
		debias:  NewDebiaser(),
		log:     log.With().Str("component", "pipeline").Logger(),
	}
}

// run holds the working state of one pipeline execution. Never shared
// across goroutines.
type run struct {
	req        Request
	graph      *GraphBuilder
	usage      *oracle.Usage
	passages   []runPassage
	linked     []*runQuestion
	standalone []*runQuestion
}

type runPassage struct {
	id      uuid.UUID
	content string
}

// runQuestion mirrors a registered question so later phases can build
// prompts without reaching into the graph.
type runQuestion struct {
	id         uuid.UUID
	passageIdx int // index into run.passages; -1 for standalone
	text       string
	qtype      model.QuestionType
	options    map[string]string
	seqMap     map[string]string
	correct    string
	fragments  []string // canonical order, sentence_order and odd_one_out
	oddIndex   int      // 1-based, odd_one_out only
}

func (r *run) linkedTotal() int {
	total := 0
	for _, qt := range model.LinkedQuestionTypes {
		total += r.req.Spec.TypeDistribution[string(qt)]
	}
	return total
}

func (r *run) standaloneTotal() int {
	total := 0
	for _, qt := range model.StandaloneQuestionTypes {
		total += r.req.Spec.TypeDistribution[string(qt)]
	}
	return total
}

// Run executes the full pipeline for one request. All phase errors funnel
// through the single failure handler; the returned Result is the only way
// outcomes leave the pipeline boundary.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	r := &run{
		req:   req,
		graph: NewGraphBuilder(req.ExamID),
		usage: &oracle.Usage{},
	}

	log := p.log.With().Str("exam_id", req.ExamID.String()).Logger()
	log.Info().
		Int("passages", req.Spec.PassageCount).
		Int("questions", req.Spec.QuestionCount).
		Msg("Pipeline started")

	for _, ph := range p.phases() {
		if ph.Precondition != nil && !ph.Precondition(r) {
			log.Debug().Str("phase", string(ph.Status)).Msg("Phase skipped, precondition unmet")
			continue
		}
		if err := p.tracker.Update(ctx, req.ExamID, ph.Status, ph.Step); err != nil {
			return p.fail(ctx, r, fmt.Errorf("record phase %s: %w", ph.Status, err))
		}
		if err := ph.Action(ctx, r); err != nil {
			return p.fail(ctx, r, err)
		}
	}

	return p.finalize(ctx, r)
}

// finalize exports, validates, persists in one shot, and cleans up the
// tracker record.
func (p *Pipeline) finalize(ctx context.Context, r *run) Result {
	name := r.req.Spec.Name
	if name == "" {
		name = r.req.Spec.Categories[0] + " practice exam"
	}
	timeLimit := r.req.Spec.TimeLimitMinutes
	if timeLimit == 0 {
		timeLimit = 60
	}

	exam := r.graph.ExportExam(r.req.RequesterID, name, timeLimit)
	passages := r.graph.ExportPassages()
	questions := r.graph.ExportQuestions()

	if err := ValidateGraph(exam, passages, questions); err != nil {
		return p.fail(ctx, r, fmt.Errorf("graph validation: %w", err))
	}

	if err := p.sink.SaveGraph(ctx, exam, passages, questions); err != nil {
		return p.fail(ctx, r, &PersistenceError{Err: err})
	}

	if err := p.tracker.MarkCompleted(ctx, r.req.ExamID); err != nil {
		return p.fail(ctx, r, err)
	}

	stats := r.graph.Stats()
	p.log.Info().
		Str("exam_id", r.req.ExamID.String()).
		Int("passages", stats.Passages).
		Int("linked_questions", stats.LinkedQuestions).
		Int("standalone_questions", stats.StandaloneQuestions).
		Int("oracle_calls", r.usage.Calls).
		Int("total_tokens", r.usage.TotalTokens()).
		Msg("Pipeline completed")

	return Result{Success: true, ExamID: r.req.ExamID, Usage: *r.usage}
}

// fail is the single top-level failure handler. It records the failure and
// converts the error into a structured result; nothing propagates past it.
func (p *Pipeline) fail(ctx context.Context, r *run, err error) Result {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		// All generation cost was already spent; flag for alerting.
		p.log.Error().
			Err(err).
			Str("exam_id", r.req.ExamID.String()).
			Int("wasted_tokens", r.usage.TotalTokens()).
			Msg("Persistence failed after full generation")
	} else {
		p.log.Error().
			Err(err).
			Str("exam_id", r.req.ExamID.String()).
			Msg("Pipeline failed")
	}

	if markErr := p.tracker.MarkFailed(ctx, r.req.ExamID, err.Error()); markErr != nil {
		p.log.Error().Err(markErr).
			Str("exam_id", r.req.ExamID.String()).
			Msg("Failed to record pipeline failure")
	}

	return Result{Success: false, ExamID: r.req.ExamID, Message: err.Error(), Usage: *r.usage}
}

// ─── Phase actions ─────────────────────────────────────────────────────────

func targetWords(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return 120
	case model.DifficultyHard:
		return 250
	default:
		return 180
	}
}

// passageDifficulty resolves the per-passage difficulty; "mixed" cycles
// through the concrete levels.
func passageDifficulty(spec model.Difficulty, idx int) model.Difficulty {
	if spec != model.DifficultyMixed {
		return spec
	}
	cycle := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	return cycle[idx%len(cycle)]
}

func (p *Pipeline) generatePassages(ctx context.Context, r *run) error {
	spec := r.req.Spec
	for i := 0; i < spec.PassageCount; i++ {
		category := spec.Categories[i%len(spec.Categories)]
		difficulty := passageDifficulty(spec.Difficulty, i)

		preq := oracle.PassageRequest{
			Category:    category,
			Difficulty:  difficulty,
			TargetWords: targetWords(difficulty),
		}
		if spec.Personalization != nil {
			preq.TargetSkills = spec.Personalization.TargetSkills
			preq.WeakAreas = spec.Personalization.WeakAreas
		}

		draft, err := p.oracle.GeneratePassage(ctx, r.usage, preq)
		if err != nil {
			return &OracleError{Phase: string(model.StateGeneratingPassages), Err: err}
		}

		// Word count is authoritative here, not trusted from the oracle.
		words := len(strings.Fields(draft.Content))
		id := r.graph.RegisterPassage(draft.Content, words, difficulty, draft.Genre, draft.SourceRef)
		r.passages = append(r.passages, runPassage{id: id, content: draft.Content})
	}
	return nil
}

func (p *Pipeline) generatePrimaryQuestions(ctx context.Context, r *run) error {
	spec := r.req.Spec
	perPassage := splitLinkedCounts(spec.TypeDistribution, len(r.passages))

	for i, rp := range r.passages {
		counts := perPassage[i]
		if len(counts) == 0 {
			continue
		}

		qreq := oracle.LinkedQuestionsRequest{
			PassageContent: rp.content,
			Counts:         counts,
			Difficulty:     passageDifficulty(spec.Difficulty, i),
		}
		if spec.Personalization != nil {
			qreq.TargetSkills = spec.Personalization.TargetSkills
		}

		drafts, err := p.oracle.GenerateLinkedQuestions(ctx, r.usage, qreq)
		if err != nil {
			return &OracleError{Phase: string(model.StateGeneratingPrimaryQs), Err: err}
		}

		for _, draft := range drafts {
			id, err := r.graph.RegisterLinkedQuestion(
				rp.id, draft.QuestionText, draft.QuestionType,
				draft.Options, passageDifficulty(spec.Difficulty, i), draft.Tags, "",
			)
			if err != nil {
				return err
			}
			r.linked = append(r.linked, &runQuestion{
				id:         id,
				passageIdx: i,
				text:       draft.QuestionText,
				qtype:      draft.QuestionType,
				options:    draft.Options,
			})
		}
	}
	return nil
}

func (p *Pipeline) generateSecondaryQuestions(ctx context.Context, r *run) error {
	spec := r.req.Spec
	category := 0

	for _, qt := range model.StandaloneQuestionTypes {
		count := spec.TypeDistribution[string(qt)]
		for k := 0; k < count; k++ {
			sreq := oracle.StandaloneQuestionRequest{
				Type:       qt,
				Category:   spec.Categories[category%len(spec.Categories)],
				Difficulty: passageDifficulty(spec.Difficulty, category),
			}
			category++

			draft, err := p.oracle.GenerateStandaloneQuestion(ctx, r.usage, sreq)
			if err != nil {
				return &OracleError{Phase: string(model.StateGeneratingSecondaryQs), Err: err}
			}

			// Registered with the fragments in canonical order and an
			// empty answer; the answer phase scrambles and fills both.
			seq := make(map[string]string, len(draft.Fragments))
			for idx, frag := range draft.Fragments {
				seq[strconv.Itoa(idx+1)] = frag
			}

			id := r.graph.RegisterStandaloneQuestion(
				draft.QuestionText, qt, nil, seq,
				sreq.Difficulty, draft.Tags, "",
			)
			r.standalone = append(r.standalone, &runQuestion{
				id:         id,
				passageIdx: -1,
				text:       draft.QuestionText,
				qtype:      qt,
				seqMap:     seq,
				fragments:  draft.Fragments,
				oddIndex:   draft.OddIndex,
			})
		}
	}
	return nil
}

func (p *Pipeline) selectAnswers(ctx context.Context, r *run) error {
	// Linked questions: the oracle picks the correct label per passage
	// batch, then the debiaser repositions options so the key does not
	// cluster on one label.
	byPassage := make(map[int][]*runQuestion)
	for _, q := range r.linked {
		byPassage[q.passageIdx] = append(byPassage[q.passageIdx], q)
	}

	for i, rp := range r.passages {
		batch := byPassage[i]
		if len(batch) == 0 {
			continue
		}

		areq := oracle.AnswerSelectionRequest{PassageContent: rp.content}
		for _, q := range batch {
			areq.Questions = append(areq.Questions, oracle.AnswerQuery{
				QuestionText: q.text,
				Options:      q.options,
			})
		}

		labels, err := p.oracle.SelectAnswers(ctx, r.usage, areq)
		if err != nil {
			return &OracleError{Phase: string(model.StateSelectingAnswers), Err: err}
		}

		for j, q := range batch {
			shuffled, correct := p.debias.ShuffleOptions(q.options, labels[j])
			q.options = shuffled
			q.correct = correct
			if err := r.graph.UpdateQuestion(q.id, QuestionUpdate{
				CorrectAnswer: &correct,
				Options:       shuffled,
			}); err != nil {
				return err
			}
		}
	}

	// Standalone questions need no oracle call here: sentence_order's key
	// falls out of the scramble, odd_one_out's was fixed at generation.
	for _, q := range r.standalone {
		var (
			seq     map[string]string
			correct string
		)
		switch q.qtype {
		case model.QuestionTypeSentenceOrder:
			seq, correct = p.debias.ShuffleOrdering(q.fragments)
		case model.QuestionTypeOddOneOut:
			seq, correct = p.debias.ShufflePositions(q.seqMap, strconv.Itoa(q.oddIndex))
		default:
			return fmt.Errorf("unexpected standalone type %q", q.qtype)
		}
		q.seqMap = seq
		q.correct = correct
		if err := r.graph.UpdateQuestion(q.id, QuestionUpdate{
			CorrectAnswer: &correct,
			SequencingMap: seq,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) generatePrimaryRationales(ctx context.Context, r *run) error {
	for _, q := range r.linked {
		rat, err := p.oracle.GenerateRationale(ctx, r.usage, oracle.RationaleRequest{
			PassageContent: r.passages[q.passageIdx].content,
			QuestionText:   q.text,
			Options:        q.options,
			CorrectAnswer:  q.correct,
		})
		if err != nil {
			return &OracleError{Phase: string(model.StateGeneratingPrimaryRat), Err: err}
		}
		if err := r.graph.UpdateQuestion(q.id, QuestionUpdate{Rationale: &rat}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) generateSecondaryRationales(ctx context.Context, r *run) error {
	for _, q := range r.standalone {
		rat, err := p.oracle.GenerateRationale(ctx, r.usage, oracle.RationaleRequest{
			QuestionText:  q.text,
			SequencingMap: q.seqMap,
			CorrectAnswer: q.correct,
		})
		if err != nil {
			return &OracleError{Phase: string(model.StateGeneratingSecondRat), Err: err}
		}
		if err := r.graph.UpdateQuestion(q.id, QuestionUpdate{Rationale: &rat}); err != nil {
			return err
		}
	}
	return nil
}
