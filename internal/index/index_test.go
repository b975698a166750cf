package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/lawdesk/internal/statute"
)

func chunk(id, category, file, number, title string) statute.Chunk {
	return statute.Chunk{
		LawName:       "개인정보 보호법",
		ArticleNumber: number,
		ArticleTitle:  title,
		Text:          number + "(" + title + ") 본문이 충분히 길게 작성된 조문입니다.",
		ID:            id,
		FileName:      file,
		Category:      category,
	}
}

func fixture() *Snapshot {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a1.txt", "제1조", "목적"))
	b.Add(chunk("A#2", "A", "a1.txt", "제2조", "정의"))
	b.Add(chunk("B#1", "B", "b1.txt", "제1조", "목적"))
	b.Add(chunk("A#3", "A", "a2.txt", "제1조", "목적"))
	b.Add(chunk("A#4", "A", "a2.txt", "제5조", "벌칙"))
	return b.Snapshot(1)
}

func TestSnapshot_ByCategory(t *testing.T) {
	s := fixture()
	assert.Len(t, s.ByCategory("A"), 4)
	assert.Len(t, s.ByCategory("B"), 1)
	assert.Len(t, s.ByCategory(""), 5)
	assert.Empty(t, s.ByCategory("C"))
}

func TestSnapshot_ArticleTitlesFirstWins(t *testing.T) {
	refs := fixture().ArticleTitles("A", nil)

	assert.Equal(t, []TitleRef{
		{Title: "목적", ID: "A#1"},
		{Title: "정의", ID: "A#2"},
		{Title: "벌칙", ID: "A#4"},
	}, refs)
}

func TestSnapshot_ArticleTitlesExcludesOtherCategories(t *testing.T) {
	refs := fixture().ArticleTitles("B", nil)
	assert.Equal(t, []TitleRef{{Title: "목적", ID: "B#1"}}, refs)
}

func TestSnapshot_ArticleTitlesFileFilter(t *testing.T) {
	refs := fixture().ArticleTitles("A", []string{"a2.txt"})
	assert.Equal(t, []TitleRef{
		{Title: "목적", ID: "A#3"},
		{Title: "벌칙", ID: "A#4"},
	}, refs)
}

func TestSnapshot_ArticleTitlesDecomposedFileFilter(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("계약#1", "계약", "국가계약법.txt", "제1조", "목적"))
	b.Add(chunk("계약#2", "계약", "조달사업법.txt", "제1조", "정의"))

	refs := b.Snapshot(1).ArticleTitles("계약", []string{norm.NFD.String("국가계약법.txt")})

	assert.Equal(t, []TitleRef{{Title: "목적", ID: "계약#1"}}, refs)
}

func TestSnapshot_ArticleTitlesSkipsBlankTitles(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", ""))
	b.Add(chunk("A#2", "A", "a.txt", "제2조", "  "))
	b.Add(chunk("A#3", "A", "a.txt", "제3조", "정의"))

	refs := b.Snapshot(1).ArticleTitles("A", nil)

	assert.Equal(t, []TitleRef{{Title: "정의", ID: "A#3"}}, refs)
}

func TestSnapshot_ArticleTitlesAllCategories(t *testing.T) {
	refs := fixture().ArticleTitles("", nil)
	require.Len(t, refs, 3)
	assert.Equal(t, "A#1", refs[0].ID)
}

func TestSnapshot_ChunksByArticleTitlesReturnsAllMatches(t *testing.T) {
	s := fixture()

	got := s.ChunksByArticleTitles([]string{"목적"}, "A")
	require.Len(t, got, 2)
	assert.Equal(t, "A#1", got[0].ID)
	assert.Equal(t, "A#3", got[1].ID)

	assert.Len(t, s.ChunksByArticleTitles([]string{"목적"}, ""), 3)
	assert.Empty(t, s.ChunksByArticleTitles(nil, "A"))
	assert.Empty(t, s.ChunksByArticleTitles([]string{"없는 조"}, "A"))
}

func TestSnapshot_ByID(t *testing.T) {
	s := fixture()
	c, ok := s.ByID("A#2")
	require.True(t, ok)
	assert.Equal(t, "정의", c.ArticleTitle)

	_, ok = s.ByID("A#99")
	assert.False(t, ok)
}

func TestSnapshot_Files(t *testing.T) {
	assert.Equal(t, []string{"a1.txt", "b1.txt", "a2.txt"}, fixture().Files())
}

func TestBuilder_SnapshotIsIsolated(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", "목적"))
	s := b.Snapshot(1)

	b.Add(chunk("A#2", "A", "a.txt", "제2조", "정의"))
	b.Clear()

	assert.Equal(t, 1, s.Len())
	assert.Zero(t, b.Len())
}

func TestBuilder_ClearStartsOver(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", "목적"))
	b.Add(chunk("A#2", "A", "a.txt", "제2조", "정의"))
	b.Clear()
	b.Add(chunk("B#1", "B", "b.txt", "제1조", "벌칙"))

	s := b.Snapshot(2)

	require.Equal(t, 1, s.Len())
	_, ok := s.ByID("A#1")
	assert.False(t, ok)
	assert.Equal(t, []TitleRef{{Title: "벌칙", ID: "B#1"}}, s.ArticleTitles("", nil))
}

func TestSnapshot_AllReturnsCopy(t *testing.T) {
	s := fixture()
	all := s.All()
	all[0].ArticleTitle = "변경"
	c, _ := s.ByID("A#1")
	assert.Equal(t, "목적", c.ArticleTitle)
}

func TestSnapshot_ValidateAll(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", "목적"))
	bad := chunk("A#2", "A", "a.txt", "제1장", "")
	bad.LawName = statute.UnknownLawName
	b.Add(bad)

	r := b.Snapshot(1).ValidateAll()

	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 1, r.Valid)
	assert.Equal(t, 1, r.Invalid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "A#2", r.Errors[0].ID)
	assert.Len(t, r.Errors[0].Problems, 3)
}

func TestSnapshot_UntitledStats(t *testing.T) {
	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", "목적"))
	b.Add(chunk("A#2", "A", "a.txt", "제2조", " "))

	st := b.Snapshot(1).UntitledStats()

	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.WithTitle)
	assert.Equal(t, 1, st.WithoutTitle)
	require.Len(t, st.Details, 1)
	assert.Equal(t, "제2조", st.Details[0].ArticleNumber)
}

func TestSnapshot_DuplicateTitles(t *testing.T) {
	dups := fixture().DuplicateTitles()
	assert.Equal(t, []DuplicateTitle{
		{Category: "A", Title: "목적", IDs: []string{"A#1", "A#3"}},
	}, dups)
}

func TestIndex_PublishAdvancesGeneration(t *testing.T) {
	ix := New()
	require.NotNil(t, ix.Load())
	assert.Zero(t, ix.Load().Generation())
	assert.Zero(t, ix.Load().Len())

	b := NewBuilder()
	b.Add(chunk("A#1", "A", "a.txt", "제1조", "목적"))
	s := ix.Publish(b)

	assert.Equal(t, uint64(1), s.Generation())
	assert.Same(t, s, ix.Load())
	assert.Equal(t, uint64(2), ix.Publish(NewBuilder()).Generation())
}

func TestIndex_ReadersNeverSeePartialSnapshot(t *testing.T) {
	ix := New()
	const size = 50

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if n := ix.Load().Len(); n != 0 && n != size {
				t.Errorf("observed partial snapshot with %d chunks", n)
				return
			}
		}
	}()

	for range 20 {
		b := NewBuilder()
		for i := range size {
			b.Add(chunk(fmt.Sprintf("A#%d", i+1), "A", "a.txt", "제1조", "목적"))
		}
		ix.Publish(b)
	}
	close(stop)
	wg.Wait()
}
