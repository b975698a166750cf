// Package library manages the category-keyed directory tree that holds the
// source statute files.
package library

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidName    = errors.New("invalid name")
	ErrCategoryExists = errors.New("category already exists")
	ErrNotFound       = errors.New("file not found")
	ErrEmptyFile      = errors.New("empty file")
	ErrTooLarge       = errors.New("file too large")
)

// ListableExtensions are shown in file listings. Only a subset of them can be
// loaded into the index.
var ListableExtensions = []string{".pdf", ".txt", ".md", ".html", ".htm", ".docx", ".hwp", ".jpg", ".jpeg", ".png"}

// Document is one regular file found under the root.
type Document struct {
	Path     string // absolute path
	Name     string // base name, NFC-composed
	Category string // first path segment below the root, NFC-composed, empty for top-level files
}

// Library is a directory tree rooted at one upload directory.
type Library struct {
	root       string
	defaults   []string
	extensions []string
	onChange   func(path string)
}

func New(root string, defaultCategories []string) *Library {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Library{
		root:       root,
		defaults:   slices.Clone(defaultCategories),
		extensions: ListableExtensions,
	}
}

func (l *Library) Root() string {
	return l.root
}

// OnChange registers fn to be called with the absolute path of every file or
// category directory the library is about to create, replace or remove.
// Register it before the library is shared.
func (l *Library) OnChange(fn func(path string)) {
	l.onChange = fn
}

func (l *Library) changing(path string) {
	if l.onChange != nil {
		l.onChange(path)
	}
}

// EnsureRoot creates the root directory if it does not exist.
func (l *Library) EnsureRoot() error {
	return os.MkdirAll(l.root, 0o755)
}

// Categories returns the default categories plus every non-hidden directory
// under the root, sorted and deduplicated.
func (l *Library) Categories() ([]string, error) {
	cats := slices.Clone(l.defaults)
	entries, err := os.ReadDir(l.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read library root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && !hidden(e.Name()) {
			cats = append(cats, e.Name())
		}
	}
	slices.Sort(cats)
	return slices.Compact(cats), nil
}

// AddCategory creates the directory for a new category. The name is trimmed
// first; it returns the trimmed name.
func (l *Library) AddCategory(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := checkName(name); err != nil {
		return "", err
	}
	if slices.Contains(l.defaults, name) {
		return name, ErrCategoryExists
	}
	dir := filepath.Join(l.root, name)
	if _, err := os.Stat(dir); err == nil {
		return name, ErrCategoryExists
	}
	l.changing(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return name, fmt.Errorf("create category dir: %w", err)
	}
	return name, nil
}

// Dir resolves the directory of a category; an empty category is the root.
func (l *Library) Dir(category string) (string, error) {
	if category == "" {
		return l.root, nil
	}
	if err := checkName(category); err != nil {
		return "", err
	}
	return filepath.Join(l.root, category), nil
}

// ListFiles returns the sorted names of listable, non-hidden regular files
// directly inside a category. A missing directory yields an empty list.
func (l *Library) ListFiles(category string) ([]string, error) {
	dir, err := l.Dir(category)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read category dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && !hidden(e.Name()) && l.listable(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Documents walks the whole tree and returns every non-hidden regular file
// accepted by accept, in lexical walk order. A missing root yields nothing.
func (l *Library) Documents(accept func(name string) bool) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if path == l.root {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || (accept != nil && !accept(d.Name())) {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		docs = append(docs, Document{
			Path:     path,
			Name:     norm.NFC.String(d.Name()),
			Category: norm.NFC.String(categoryOf(rel)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk library: %w", err)
	}
	return docs, nil
}

// Save stores r as name inside category, replacing any existing file. At most
// limit bytes are accepted when limit > 0. It returns the cleaned,
// NFC-composed file name.
func (l *Library) Save(category, name string, r io.Reader, limit int64) (string, error) {
	name = norm.NFC.String(filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/"))))
	if err := checkName(name); err != nil {
		return "", err
	}
	dir, err := l.Dir(category)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		l.changing(dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	if limit > 0 && n > limit {
		return "", ErrTooLarge
	}
	dst := filepath.Join(dir, name)
	l.changing(dst)
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return name, nil
}

// Delete removes a regular file from a category.
func (l *Library) Delete(category, name string) error {
	path, err := l.filePath(category, name)
	if err != nil {
		return err
	}
	l.changing(path)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Open opens a regular file of a category for reading.
func (l *Library) Open(category, name string) (*os.File, error) {
	path, err := l.filePath(category, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (l *Library) filePath(category, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	dir, err := l.Dir(category)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func (l *Library) listable(name string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(name)))
}

func categoryOf(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// checkName rejects names that are empty, hidden or would escape their directory.
func checkName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case hidden(name):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
