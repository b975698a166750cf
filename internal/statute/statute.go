// Package statute holds the article-level chunk record shared by the chunker,
// the index and the question-answering stages.
package statute

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UnknownLawName is the law name assigned when none can be derived from a file name.
// Chunks carrying it never pass validation.
const UnknownLawName = "unknown"

// MinTextRunes is the shortest article body accepted by validation.
const MinTextRunes = 10

// ArticleNumberPattern matches a canonical article number such as 제3조 or 제3조의2.
var ArticleNumberPattern = regexp.MustCompile(`^제\d+조(?:의\d+)?$`)

// Chunk is one article of one law, the unit of retrieval. Values are immutable
// once built; WithID returns a copy.
type Chunk struct {
	LawName       string `json:"law_name"`
	ChapterTitle  string `json:"chapter_title"`
	ArticleNumber string `json:"article_number"` // e.g. 제5조의2
	ArticleTitle  string `json:"article_title"`  // falls back to ArticleNumber
	Text          string `json:"text"`
	ID            string `json:"chunk_id"` // <category>#<n>, assigned during reload
	FileName      string `json:"file_name"`
	Index         int    `json:"chunk_index"` // article ordinal within the source file
	Category      string `json:"category"`
}

// WithID returns a copy of c carrying the given identifier.
func (c Chunk) WithID(id string) Chunk {
	c.ID = id
	return c
}

// Header renders the bracketed citation header used in answer prompts.
func (c Chunk) Header() string {
	return fmt.Sprintf("【%s %s %s】", c.LawName, c.ArticleNumber, c.ArticleTitle)
}

// Problems lists every field violation of c. A missing article title is not a
// problem here because the chunker repairs it; the index audit checks it separately.
func (c Chunk) Problems() []string {
	var problems []string

	law := strings.TrimSpace(c.LawName)
	if law == "" || law == UnknownLawName {
		problems = append(problems, fmt.Sprintf("law name missing or invalid: %q", c.LawName))
	}

	switch {
	case strings.TrimSpace(c.ArticleNumber) == "":
		problems = append(problems, "article number missing")
	case !ArticleNumberPattern.MatchString(c.ArticleNumber):
		problems = append(problems, fmt.Sprintf("article number malformed: %q", c.ArticleNumber))
	}

	text := strings.TrimSpace(c.Text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		problems = append(problems, "article text missing")
	case n < MinTextRunes:
		problems = append(problems, fmt.Sprintf("article text too short (%d < %d chars)", n, MinTextRunes))
	}

	if strings.TrimSpace(c.FileName) == "" {
		problems = append(problems, "file name missing")
	}
	return problems
}

// Validate returns nil when c has no problems.
func (c Chunk) Validate() error {
	problems := c.Problems()
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = errors.New(p)
	}
	return errors.Join(errs...)
}

// Preview returns at most n runes of the article text, with an ellipsis when cut.
func (c Chunk) Preview(n int) string {
	if utf8.RuneCountInString(c.Text) <= n {
		return c.Text
	}
	return string([]rune(c.Text)[:n]) + "..."
}
