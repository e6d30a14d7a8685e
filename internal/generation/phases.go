package generation

import (
	"context"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// TotalSteps is the number of recorded pipeline steps, including the
// initializing step written at acceptance time.
const TotalSteps = 7

// phase is one entry of the orchestrator's drive table. The tracker is
// updated to Status/Step before Action runs; a phase whose Precondition
// returns false is skipped as a routine no-op, not a failure.
type phase struct {
	Status       model.GenerationStateStatus
	Step         int
	Precondition func(r *run) bool
	Action       func(ctx context.Context, r *run) error
}

// phases returns the ordered drive table. Adding or removing a phase means
// editing this list only; the Run loop never changes.
func (p *Pipeline) phases() []phase {
	return []phase{
		{
			Status: model.StateGeneratingPassages,
			Step:   2,
			Action: p.generatePassages,
		},
		{
			Status:       model.StateGeneratingPrimaryQs,
			Step:         3,
			Precondition: func(r *run) bool { return r.linkedTotal() > 0 && len(r.passages) > 0 },
			Action:       p.generatePrimaryQuestions,
		},
		{
			Status:       model.StateGeneratingSecondaryQs,
			Step:         4,
			Precondition: func(r *run) bool { return r.standaloneTotal() > 0 },
			Action:       p.generateSecondaryQuestions,
		},
		{
			Status:       model.StateSelectingAnswers,
			Step:         5,
			Precondition: func(r *run) bool { return len(r.linked)+len(r.standalone) > 0 },
			Action:       p.selectAnswers,
		},
		{
			Status:       model.StateGeneratingPrimaryRat,
			Step:         6,
			Precondition: func(r *run) bool { return len(r.linked) > 0 },
			Action:       p.generatePrimaryRationales,
		},
		{
			Status:       model.StateGeneratingSecondRat,
			Step:         7,
			Precondition: func(r *run) bool { return len(r.standalone) > 0 },
			Action:       p.generateSecondaryRationales,
		},
	}
}

// splitLinkedCounts spreads each linked type's count across passages so
// every passage receives a near-equal share. Types iterate in their fixed
// model order to keep the split deterministic.
func splitLinkedCounts(dist map[string]int, passages int) []map[model.QuestionType]int {
	out := make([]map[model.QuestionType]int, passages)
	for i := range out {
		out[i] = make(map[model.QuestionType]int)
	}
	for _, qt := range model.LinkedQuestionTypes {
		count := dist[string(qt)]
		if count <= 0 {
			continue
		}
		base := count / passages
		rem := count % passages
		for i := 0; i < passages; i++ {
			n := base
			if i < rem {
				n++
			}
			if n > 0 {
				out[i][qt] = n
			}
		}
	}
	return out
}
