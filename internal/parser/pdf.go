package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/dgallion1/lawdesk/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Glyphs are laid out by position, top to bottom
// and left to right, so multi-column headers do not interleave with body text.
// It falls back to pdftotext when enabled and the Go reader fails.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lawdesk-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		var text string
		if text, err = extractPdftotext(tmpPath); err == nil {
			pages = strings.Split(text, "\f")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}

func extractPDFPages(path string) (pages []string, err error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The reader panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read pdf: %v", rec)
		}
	}()

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text := layoutGlyphs(page.Content().Text)
		if strings.TrimSpace(text) == "" {
			if plain, perr := page.GetPlainText(nil); perr == nil {
				text = plain
			}
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// layoutGlyphs orders positioned text runs into lines. Runs whose baselines lie
// within half a font size of each other share a line; a horizontal gap wider
// than a quarter font size becomes a space.
func layoutGlyphs(runs []pdflib.Text) string {
	if len(runs) == 0 {
		return ""
	}
	sorted := slices.Clone(runs)
	slices.SortStableFunc(sorted, func(a, b pdflib.Text) int {
		switch {
		case a.Y > b.Y:
			return -1
		case a.Y < b.Y:
			return 1
		}
		return 0
	})

	var lines [][]pdflib.Text
	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if math.Abs(last[0].Y-t.Y) <= tolerance(last[0], t) {
				lines[n-1] = append(last, t)
				continue
			}
		}
		lines = append(lines, []pdflib.Text{t})
	}

	var out strings.Builder
	for i, line := range lines {
		slices.SortStableFunc(line, func(a, b pdflib.Text) int {
			switch {
			case a.X < b.X:
				return -1
			case a.X > b.X:
				return 1
			}
			return 0
		})
		if i > 0 {
			out.WriteByte('\n')
		}
		for j, t := range line {
			if j > 0 {
				prev := line[j-1]
				if t.X-(prev.X+prev.W) > 0.25*fontSize(t) && !strings.HasSuffix(prev.S, " ") {
					out.WriteByte(' ')
				}
			}
			out.WriteString(t.S)
		}
	}
	return out.String()
}

func tolerance(a, b pdflib.Text) float64 {
	return math.Max(fontSize(a), fontSize(b)) / 2
}

func fontSize(t pdflib.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return 10
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
