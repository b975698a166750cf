package statute

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChunk() Chunk {
	return Chunk{
		LawName:       "개인정보 보호법",
		ArticleNumber: "제3조의2",
		ArticleTitle:  "정관의 기재사항",
		Text:          "제3조의2(정관의 기재사항) 정관에는 다음 사항을 적어야 한다.",
		FileName:      "개인정보 보호법.txt",
		Category:      "개인정보보호",
	}
}

func TestChunk_ValidPasses(t *testing.T) {
	c := validChunk()
	assert.Empty(t, c.Problems())
	assert.NoError(t, c.Validate())
}

func TestChunk_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Chunk)
		want   string
	}{
		{"empty law name", func(c *Chunk) { c.LawName = " " }, "law name"},
		{"unknown law name", func(c *Chunk) { c.LawName = UnknownLawName }, "law name"},
		{"missing article number", func(c *Chunk) { c.ArticleNumber = "" }, "article number missing"},
		{"chapter as article number", func(c *Chunk) { c.ArticleNumber = "제1장" }, "malformed"},
		{"spaced article number", func(c *Chunk) { c.ArticleNumber = "제 3 조" }, "malformed"},
		{"empty text", func(c *Chunk) { c.Text = "   " }, "text missing"},
		{"short text", func(c *Chunk) { c.Text = "제1조 목적" }, "too short"},
		{"missing file name", func(c *Chunk) { c.FileName = "" }, "file name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validChunk()
			tc.mutate(&c)
			problems := c.Problems()
			require.Len(t, problems, 1)
			assert.Contains(t, problems[0], tc.want)
			assert.Error(t, c.Validate())
		})
	}
}

func TestChunk_TextBoundaryCountsRunes(t *testing.T) {
	c := validChunk()
	c.Text = strings.Repeat("가", MinTextRunes)
	assert.Empty(t, c.Problems())

	c.Text = strings.Repeat("가", MinTextRunes-1)
	assert.Len(t, c.Problems(), 1)
}

func TestChunk_EmptyTitleIsNotAProblem(t *testing.T) {
	c := validChunk()
	c.ArticleTitle = ""
	assert.Empty(t, c.Problems())
}

func TestChunk_WithIDCopies(t *testing.T) {
	c := validChunk()
	d := c.WithID("개인정보보호#1")
	assert.Equal(t, "", c.ID)
	assert.Equal(t, "개인정보보호#1", d.ID)
}

func TestChunk_Header(t *testing.T) {
	assert.Equal(t, "【개인정보 보호법 제3조의2 정관의 기재사항】", validChunk().Header())
}

func TestChunk_Preview(t *testing.T) {
	c := validChunk()
	c.Text = "가나다라마"
	assert.Equal(t, "가나다라마", c.Preview(5))
	assert.Equal(t, "가나...", c.Preview(2))
}
