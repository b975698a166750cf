// Package chunker splits normalized statute text into one chunk per article.
package chunker

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/lawdesk/internal/statute"
)

// Config controls chunking behavior.
type Config struct {
	MinSpanRunes int // Spans shorter than this after cleaning are dropped as noise.
	ContextRunes int // Context inspected on each side of a header candidate.
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinSpanRunes: 50,
		ContextRunes: 50,
	}
}

var (
	lawNameRe = regexp.MustCompile(`[가-힣\s]+(?:시행규칙|시행령|법률|법|규정|지침)`)
	extRe     = regexp.MustCompile(`\.[^.]+$`)

	chapterRe = regexp.MustCompile(`(?m)^[ \t]*(제\s*\d+장)[ \t]*([^\n]*)`)

	// Groups: 1 header, 2 article digits, 3 조 suffix, 4 branch digits, 5 parenthesized title.
	articleRe = regexp.MustCompile(`(?m)^[ \t]*(제\s*(\d+)(조(?:의\s*(\d+))?)?)[ \t]*(?:\(([^)\n]+)\))?`)

	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	trailingSpRe   = regexp.MustCompile(`(?m)[ \t]+$`)
	structuralUnit = "장편절관"
)

// Rejection records an article start that produced no chunk.
type Rejection struct {
	ArticleNumber string
	Offset        int
	Reasons       []string
}

// Result is the full outcome of chunking one document.
type Result struct {
	LawName       string
	ArticleStarts int // true article starts found
	References    int // candidates classified as cross-references
	Chunks        []statute.Chunk
	Rejected      []Rejection
}

// Chunker turns normalized statute text into article chunks.
type Chunker struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Chunker {
	if cfg.MinSpanRunes <= 0 {
		cfg.MinSpanRunes = 50
	}
	if cfg.ContextRunes <= 0 {
		cfg.ContextRunes = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chunker{cfg: cfg, log: log}
}

// Chunk returns the validated article chunks of text. Chunk identifiers are left
// empty; the reload pass assigns them.
func (c *Chunker) Chunk(text, fileName, category string) []statute.Chunk {
	return c.Analyze(text, fileName, category).Chunks
}

type chapter struct {
	offset int
	title  string
}

type boundary struct {
	offset  int
	article bool
	number  string
	title   string
}

// Analyze chunks text and reports what was found and discarded along the way.
func (c *Chunker) Analyze(text, fileName, category string) Result {
	log := c.log.With("file", fileName, "category", category)
	res := Result{LawName: LawName(fileName)}

	chapters := findChapters(text)
	bounds, refs := c.findBoundaries(text)
	res.References = refs

	var starts []int
	for i, b := range bounds {
		if b.article {
			starts = append(starts, i)
		}
	}
	res.ArticleStarts = len(starts)

	if len(starts) == 0 {
		log.Warn("no article boundaries found", "chars", utf8.RuneCountInString(text))
		return res
	}

	for ordinal, bi := range starts {
		b := bounds[bi]
		end := len(text)
		if bi+1 < len(bounds) {
			end = bounds[bi+1].offset
		}
		body := cleanArticleText(text[b.offset:end])

		if n := utf8.RuneCountInString(body); n < c.cfg.MinSpanRunes {
			res.Rejected = append(res.Rejected, Rejection{
				ArticleNumber: b.number,
				Offset:        b.offset,
				Reasons:       []string{"span shorter than minimum"},
			})
			continue
		}

		chunk := statute.Chunk{
			LawName:       res.LawName,
			ChapterTitle:  chapterAt(chapters, b.offset),
			ArticleNumber: b.number,
			ArticleTitle:  b.title,
			Text:          body,
			FileName:      fileName,
			Index:         ordinal,
			Category:      category,
		}

		if problems := chunk.Problems(); len(problems) > 0 {
			log.Warn("chunk rejected", "index", ordinal, "article", b.number, "problems", problems, "preview", chunk.Preview(200))
			res.Rejected = append(res.Rejected, Rejection{
				ArticleNumber: b.number,
				Offset:        b.offset,
				Reasons:       problems,
			})
			continue
		}
		if strings.TrimSpace(chunk.ArticleTitle) == "" {
			log.Warn("article title missing, using article number", "article", b.number)
			chunk.ArticleTitle = chunk.ArticleNumber
		}
		res.Chunks = append(res.Chunks, chunk)
	}

	log.Info("chunked document",
		"law", res.LawName,
		"chapters", len(chapters),
		"articles", res.ArticleStarts,
		"references", res.References,
		"chunks", len(res.Chunks),
		"rejected", len(res.Rejected),
	)
	return res
}

// findBoundaries scans header candidates at line starts in document order and
// keeps true article starts plus structural headings (장, 편, 절, 관) that close
// the preceding article without opening one.
func (c *Chunker) findBoundaries(text string) ([]boundary, int) {
	var bounds []boundary
	refs := 0
	for _, m := range articleRe.FindAllStringSubmatchIndex(text, -1) {
		start := m[2]
		headerEnd := m[3]
		end := len(strings.TrimRight(text[:m[1]], " \t"))
		if end < headerEnd {
			end = headerEnd
		}

		if m[6] < 0 && isStructuralHeading(text[headerEnd:]) {
			bounds = append(bounds, boundary{offset: start})
			continue
		}

		before := lastRunes(text[:start], c.cfg.ContextRunes)
		matched := text[start:end]
		after := firstRunes(text[end:], c.cfg.ContextRunes)
		if !IsArticleStart(before, matched, after) {
			refs++
			continue
		}

		number := canonicalNumber(text[m[4]:m[5]], m, text)
		title := number
		if m[10] >= 0 {
			if t := strings.TrimSpace(text[m[10]:m[11]]); t != "" {
				title = t
			}
		}
		bounds = append(bounds, boundary{offset: start, article: true, number: number, title: title})
	}
	return bounds, refs
}

func canonicalNumber(digits string, m []int, text string) string {
	number := "제" + digits + "조"
	if m[8] >= 0 {
		number += "의" + text[m[8]:m[9]]
	}
	return number
}

func isStructuralHeading(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	r, _ := utf8.DecodeRuneInString(rest)
	return r != utf8.RuneError && strings.ContainsRune(structuralUnit, r)
}

func findChapters(text string) []chapter {
	var chapters []chapter
	for _, m := range chapterRe.FindAllStringSubmatchIndex(text, -1) {
		chapters = append(chapters, chapter{
			offset: m[2],
			title:  strings.TrimSpace(text[m[4]:m[5]]),
		})
	}
	return chapters
}

// chapterAt returns the title of the last chapter starting at or before offset.
func chapterAt(chapters []chapter, offset int) string {
	title := ""
	for _, ch := range chapters {
		if ch.offset > offset {
			break
		}
		title = ch.title
	}
	return title
}

func cleanArticleText(s string) string {
	s = strings.TrimSpace(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = trailingSpRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// LawName derives the law name from a source file name, e.g.
// "개인정보 보호법 시행령(20240315).pdf" -> "개인정보 보호법 시행령".
// Decomposed Hangul, as macOS writes file names, is composed first.
func LawName(fileName string) string {
	name := extRe.ReplaceAllString(norm.NFC.String(filepath.Base(fileName)), "")
	if m := lawNameRe.FindString(name); m != "" {
		if law := strings.TrimSpace(m); law != "" {
			return law
		}
	}
	return statute.UnknownLawName
}

// ParseHeader extracts the canonical article number and title from an article
// header such as "제3조의2(정관의 기재사항)". The title falls back to the number.
func ParseHeader(header string) (number, title string, ok bool) {
	m := articleRe.FindStringSubmatchIndex(header)
	if m == nil || m[6] < 0 {
		return "", "", false
	}
	number = canonicalNumber(header[m[4]:m[5]], m, header)
	title = number
	if m[10] >= 0 {
		if t := strings.TrimSpace(header[m[10]:m[11]]); t != "" {
			title = t
		}
	}
	return number, title, true
}

func lastRunes(s string, n int) string {
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
