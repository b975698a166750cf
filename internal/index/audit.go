package index

import (
	"strings"
)

// ValidationReport is the result of re-checking every chunk in a snapshot.
type ValidationReport struct {
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
	Errors  []ChunkError `json:"errors,omitempty"`
}

// ChunkError lists the problems of one invalid chunk.
type ChunkError struct {
	ID       string   `json:"chunk_id"`
	FileName string   `json:"file_name"`
	Problems []string `json:"problems"`
}

// ValidateAll re-runs the chunk field checks over the snapshot. A blank
// article title also counts here even though the chunker would have repaired it.
func (s *Snapshot) ValidateAll() ValidationReport {
	r := ValidationReport{Total: len(s.chunks)}
	for _, c := range s.chunks {
		problems := c.Problems()
		if strings.TrimSpace(c.ArticleTitle) == "" {
			problems = append(problems, "article title missing")
		}
		if len(problems) == 0 {
			r.Valid++
			continue
		}
		r.Invalid++
		r.Errors = append(r.Errors, ChunkError{ID: c.ID, FileName: c.FileName, Problems: problems})
	}
	return r
}

// UntitledStats summarizes chunks lacking an article title.
type UntitledStats struct {
	Total        int              `json:"total"`
	WithTitle    int              `json:"with_title"`
	WithoutTitle int              `json:"without_title"`
	Details      []UntitledDetail `json:"details,omitempty"`
}

type UntitledDetail struct {
	ID            string `json:"chunk_id"`
	LawName       string `json:"law_name"`
	ArticleNumber string `json:"article_number"`
	FileName      string `json:"file_name"`
	Preview       string `json:"preview"`
}

func (s *Snapshot) UntitledStats() UntitledStats {
	untitled := s.WithoutArticleTitle()
	st := UntitledStats{
		Total:        len(s.chunks),
		WithoutTitle: len(untitled),
		WithTitle:    len(s.chunks) - len(untitled),
	}
	for _, c := range untitled {
		st.Details = append(st.Details, UntitledDetail{
			ID:            c.ID,
			LawName:       c.LawName,
			ArticleNumber: c.ArticleNumber,
			FileName:      c.FileName,
			Preview:       c.Preview(100),
		})
	}
	return st
}

// DuplicateTitle is an article title shared by several chunks of one
// category. Only the first ID is visible to title recommendation.
type DuplicateTitle struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	IDs      []string `json:"chunk_ids"`
}

// DuplicateTitles reports titles that occur more than once within a category,
// in first-seen order.
func (s *Snapshot) DuplicateTitles() []DuplicateTitle {
	type key struct{ category, title string }
	ids := make(map[key][]string)
	var order []key
	for _, c := range s.chunks {
		k := key{c.Category, c.ArticleTitle}
		if _, ok := ids[k]; !ok {
			order = append(order, k)
		}
		ids[k] = append(ids[k], c.ID)
	}
	var out []DuplicateTitle
	for _, k := range order {
		if len(ids[k]) > 1 {
			out = append(out, DuplicateTitle{Category: k.category, Title: k.title, IDs: ids[k]})
		}
	}
	return out
}
