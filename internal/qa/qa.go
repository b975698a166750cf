// Package qa answers statute questions in two provider calls. Stage 1 asks the
// model to pick relevant article titles from the catalogue of a category;
// Stage 2 hands it the full text of those articles and asks for the answer.
//
// Neither stage returns an error. Provider failures degrade to an empty
// recommendation or to a displayable Korean diagnostic.
package qa

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/llm"
)

// Fixed user-facing messages.
const (
	MsgNoRelatedProvisions = "해당 분야의 관련 조항을 찾을 수 없습니다. 보다 정확한 법률 용어로 다시 질문해주세요."
	MsgNoMatchingChunks    = "관련 조항을 찾을 수 없습니다."
	MsgNoMessageField      = "AI 응답을 받지 못했습니다. (message 필드 없음)"
	MsgEmptyContent        = "AI 응답을 받지 못했습니다. (응답 내용이 비어있음)"
	MsgParseErrorPrefix    = "AI 응답 파싱 오류: "
	MsgCallErrorPrefix     = "AI 호출 중 오류 발생: "

	callErrorChecklist = "\n\n확인 사항:\n" +
		"1. Ollama 서버가 실행 중인지 확인 (ollama serve)\n" +
		"2. 모델이 설치되어 있는지 확인 (ollama list)\n" +
		"3. 포트 11434가 사용 가능한지 확인"

	StatusSearching = "관련 조항을 찾는 중입니다..."
	StatusAnswering = "관련조항을 바탕으로 답변을 생성중입니다! 조금만 기다려주세요!"
)

// Snapshots supplies the current index snapshot. *index.Index satisfies it.
type Snapshots interface {
	Load() *index.Snapshot
}

type Service struct {
	llm   llm.Completer
	index Snapshots
	log   *slog.Logger
}

func New(completer llm.Completer, ix Snapshots, log *slog.Logger) *Service {
	return &Service{
		llm:   completer,
		index: ix,
		log:   log,
	}
}

// Recommend runs Stage 1 against the current snapshot. files restricts the
// catalogue to those source files; empty means all files in category.
func (s *Service) Recommend(ctx context.Context, question, category string, files []string) []string {
	return s.recommend(ctx, s.index.Load(), s.log, question, category, files)
}

// Answer runs Stage 2 against the current snapshot.
func (s *Service) Answer(ctx context.Context, question string, titles []string, category string) string {
	return s.answer(ctx, s.index.Load(), s.log, question, titles, category)
}

func (s *Service) recommend(ctx context.Context, snap *index.Snapshot, log *slog.Logger, question, category string, files []string) []string {
	log = log.With("stage", "stage1", "category", category)

	catalogue := snap.ArticleTitles(category, files)
	if len(catalogue) == 0 {
		log.Info("no article titles for category")
		return []string{}
	}

	text, err := s.llm.Chat(context.WithoutCancel(ctx), []llm.Message{
		llm.System(recommendSystemPrompt),
		llm.User(recommendPrompt(question, catalogue)),
	})
	if err != nil {
		log.Warn("recommendation call failed", "error", err)
		return []string{}
	}

	titles, err := parseTitles(text)
	if err != nil {
		log.Warn("recommendation not a json array", "error", err, "raw", truncate(text, 200))
		return []string{}
	}
	log.Info("recommended titles", "catalogue", len(catalogue), "titles", titles)
	return titles
}

// parseTitles reads a JSON string array from text, ignoring anything outside
// the first '[' and the last ']'.
func parseTitles(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	var titles []string
	if err := json.Unmarshal([]byte(text), &titles); err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

func (s *Service) answer(ctx context.Context, snap *index.Snapshot, log *slog.Logger, question string, titles []string, category string) string {
	log = log.With("stage", "stage2", "category", category)

	chunks := snap.ChunksByArticleTitles(titles, category)
	if len(chunks) == 0 {
		log.Info("no chunks for recommended titles", "titles", titles)
		return MsgNoMatchingChunks
	}

	text, err := s.llm.Chat(context.WithoutCancel(ctx), []llm.Message{
		llm.System(answerSystemPrompt),
		llm.User(answerPrompt(question, chunks)),
	})
	if err != nil {
		log.Warn("answer call failed", "chunks", len(chunks), "error", err)
		return diagnostic(err)
	}
	log.Info("answer generated", "chunks", len(chunks))
	return stripFormatting(text)
}

// diagnostic turns a provider error into the message shown in place of an answer.
func diagnostic(err error) string {
	var decodeErr *llm.DecodeError
	switch {
	case errors.Is(err, llm.ErrNoMessage):
		return MsgNoMessageField
	case errors.Is(err, llm.ErrEmptyContent):
		return MsgEmptyContent
	case errors.As(err, &decodeErr):
		return MsgParseErrorPrefix + decodeErr.Err.Error()
	default:
		return MsgCallErrorPrefix + err.Error() + callErrorChecklist
	}
}

var formatting = strings.NewReplacer("#", "", "*", "")

// stripFormatting drops markdown heading and emphasis markers.
func stripFormatting(s string) string {
	return strings.TrimSpace(formatting.Replace(s))
}

func newAskID() string {
	return uuid.NewString()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
