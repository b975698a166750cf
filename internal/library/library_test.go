package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCategories_MergesDefaultsAndDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "인사"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "계약"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, "top.txt"), "x")

	cats, err := New(root, []string{"계약", "개인정보보호"}).Categories()

	require.NoError(t, err)
	assert.Equal(t, []string{"개인정보보호", "계약", "인사"}, cats)
}

func TestCategories_MissingRoot(t *testing.T) {
	cats, err := New(filepath.Join(t.TempDir(), "missing"), []string{"계약"}).Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"계약"}, cats)
}

func TestAddCategory(t *testing.T) {
	root := t.TempDir()
	lib := New(root, []string{"계약"})

	name, err := lib.AddCategory("  인사  ")
	require.NoError(t, err)
	assert.Equal(t, "인사", name)
	assert.DirExists(t, filepath.Join(root, "인사"))

	_, err = lib.AddCategory("인사")
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = lib.AddCategory("계약")
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = lib.AddCategory("   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = lib.AddCategory("../escape")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "계약", "b.pdf"), "x")
	writeFile(t, filepath.Join(root, "계약", "a.txt"), "x")
	writeFile(t, filepath.Join(root, "계약", "scan.PNG"), "x")
	writeFile(t, filepath.Join(root, "계약", "notes.exe"), "x")
	writeFile(t, filepath.Join(root, "계약", ".hidden.txt"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(root, "계약", "sub.txt"), 0o755))

	lib := New(root, nil)
	files, err := lib.ListFiles("계약")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.pdf", "scan.PNG"}, files)

	files, err = lib.ListFiles("없음")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDocuments_CategoryFromFirstSegment(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), "x")
	writeFile(t, filepath.Join(root, "계약", "a.txt"), "x")
	writeFile(t, filepath.Join(root, "계약", "2024", "b.pdf"), "x")
	writeFile(t, filepath.Join(root, "계약", "image.png"), "x")
	writeFile(t, filepath.Join(root, ".trash", "c.txt"), "x")

	docs, err := New(root, nil).Documents(func(name string) bool {
		return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".pdf")
	})

	require.NoError(t, err)
	require.Len(t, docs, 3)
	byName := map[string]Document{}
	for _, d := range docs {
		byName[d.Name] = d
	}
	assert.Equal(t, "", byName["top.txt"].Category)
	assert.Equal(t, "계약", byName["a.txt"].Category)
	assert.Equal(t, "계약", byName["b.pdf"].Category)
	assert.Equal(t, filepath.Join(root, "계약", "2024", "b.pdf"), byName["b.pdf"].Path)
}

func TestDocuments_ComposesDecomposedNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, norm.NFD.String("계약"), norm.NFD.String("국가계약법.txt")), "x")

	docs, err := New(root, nil).Documents(nil)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "국가계약법.txt", docs[0].Name)
	assert.Equal(t, "계약", docs[0].Category)
	assert.FileExists(t, docs[0].Path)
}

func TestDocuments_MissingRoot(t *testing.T) {
	docs, err := New(filepath.Join(t.TempDir(), "missing"), nil).Documents(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	lib := New(root, nil)

	name, err := lib.Save("계약", "../../개인정보 보호법.txt", strings.NewReader("본문"), 0)
	require.NoError(t, err)
	assert.Equal(t, "개인정보 보호법.txt", name)

	data, err := os.ReadFile(filepath.Join(root, "계약", name))
	require.NoError(t, err)
	assert.Equal(t, "본문", string(data))

	name, err = lib.Save("계약", norm.NFD.String("개인정보 보호법 시행령.txt"), strings.NewReader("본문"), 0)
	require.NoError(t, err)
	assert.Equal(t, "개인정보 보호법 시행령.txt", name)
	assert.FileExists(t, filepath.Join(root, "계약", "개인정보 보호법 시행령.txt"))

	_, err = lib.Save("계약", "empty.txt", strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = lib.Save("계약", "big.txt", strings.NewReader("0123456789"), 5)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoFileExists(t, filepath.Join(root, "계약", "big.txt"))

	_, err = lib.Save("../etc", "x.txt", strings.NewReader("x"), 0)
	assert.ErrorIs(t, err, ErrInvalidName)

	files, err := lib.ListFiles("계약")
	require.NoError(t, err)
	assert.Equal(t, []string{"개인정보 보호법 시행령.txt", "개인정보 보호법.txt"}, files, "no temp files left behind")
}

func TestOnChange_ReportsPathsBeforeChanging(t *testing.T) {
	root := t.TempDir()
	lib := New(root, nil)
	var changed []string
	lib.OnChange(func(path string) {
		changed = append(changed, path)
	})

	_, err := lib.AddCategory("인사")
	require.NoError(t, err)
	_, err = lib.Save("계약", "a.txt", strings.NewReader("본문"), 0)
	require.NoError(t, err)
	_, err = lib.Save("계약", "a.txt", strings.NewReader("개정"), 0)
	require.NoError(t, err)
	require.NoError(t, lib.Delete("계약", "a.txt"))
	_, err = lib.Save("계약", "empty.txt", strings.NewReader(""), 0)
	require.ErrorIs(t, err, ErrEmptyFile)

	file := filepath.Join(root, "계약", "a.txt")
	assert.Equal(t, []string{
		filepath.Join(root, "인사"),
		filepath.Join(root, "계약"),
		file,
		file,
		file,
	}, changed)
}

func TestDeleteAndOpen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "계약", "a.txt"), "내용")
	lib := New(root, nil)

	f, err := lib.Open("계약", "a.txt")
	require.NoError(t, err)
	f.Close()

	require.NoError(t, lib.Delete("계약", "a.txt"))
	assert.NoFileExists(t, filepath.Join(root, "계약", "a.txt"))

	assert.ErrorIs(t, lib.Delete("계약", "a.txt"), ErrNotFound)
	_, err = lib.Open("계약", "a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, lib.Delete("계약", "../a.txt"), ErrInvalidName)
}
