package qa

import "context"

// Stage names carried by Event.
const (
	StageRecommending = "stage1-started"
	StageAnswering    = "stage2-started"
	StageCompleted    = "completed"
)

// Event reports progress of one question.
type Event struct {
	AskID               string   `json:"ask_id"`
	Stage               string   `json:"stage"`
	StatusMessage       string   `json:"status_message,omitempty"`
	RecommendedArticles []string `json:"recommended_articles,omitempty"`
	FinalAnswer         string   `json:"final_answer,omitempty"`
}

// Ask runs both stages and returns the final answer. When Stage 1 finds
// nothing the fixed no-provisions message is returned and Stage 2 is skipped.
func (s *Service) Ask(ctx context.Context, question, category string) string {
	return s.run(ctx, question, category, nil).FinalAnswer
}

// AskWithStages runs the same sequence as Ask and calls emit for each step:
// stage1-started, then stage2-started and completed, or just completed when
// Stage 1 finds nothing. emit is called synchronously from the calling goroutine.
func (s *Service) AskWithStages(ctx context.Context, question, category string, emit func(Event)) Event {
	return s.run(ctx, question, category, emit)
}

func (s *Service) run(ctx context.Context, question, category string, emit func(Event)) Event {
	askID := newAskID()
	log := s.log.With("ask_id", askID)
	send := func(e Event) Event {
		e.AskID = askID
		if emit != nil {
			emit(e)
		}
		return e
	}

	// Both stages read one snapshot so a reload between them cannot split the answer.
	snap := s.index.Load()
	log.Info("question received", "category", category, "generation", snap.Generation())

	send(Event{Stage: StageRecommending, StatusMessage: StatusSearching})
	titles := s.recommend(ctx, snap, log, question, category, nil)
	if len(titles) == 0 {
		return send(Event{Stage: StageCompleted, FinalAnswer: MsgNoRelatedProvisions})
	}

	send(Event{Stage: StageAnswering, StatusMessage: StatusAnswering, RecommendedArticles: titles})
	answer := s.answer(ctx, snap, log, question, titles, category)
	return send(Event{Stage: StageCompleted, RecommendedArticles: titles, FinalAnswer: answer})
}
