package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/pipeline"
)

type fakeReloader struct {
	calls []string
	err   error
}

func (f *fakeReloader) ReloadCategory(_ context.Context, category, trigger string) (pipeline.JobSnapshot, error) {
	f.calls = append(f.calls, trigger+":"+category)
	return pipeline.JobSnapshot{Trigger: trigger}, f.err
}

func (f *fakeReloader) Reload(_ context.Context, trigger string) (pipeline.JobSnapshot, error) {
	f.calls = append(f.calls, trigger)
	return pipeline.JobSnapshot{Trigger: trigger, Generation: 3}, f.err
}

func newService(t *testing.T) (*Service, *fakeReloader, string) {
	t.Helper()
	root := t.TempDir()
	rl := &fakeReloader{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(library.New(root, []string{"계약"}), rl, "admin", 1024, log), rl, root
}

func TestNonAdminIsDeclined(t *testing.T) {
	s, rl, root := newService(t)

	tests := []struct {
		name string
		run  func() Result
		want string
	}{
		{"upload", func() Result {
			return s.Upload(context.Background(), "user", "계약", "a.txt", strings.NewReader("x"))
		}, "권한이 없습니다. 관리자만 파일을 업로드할 수 있습니다."},
		{"delete", func() Result {
			return s.Delete(context.Background(), "", "계약", "a.txt")
		}, "권한이 없습니다. 관리자만 파일을 삭제할 수 있습니다."},
		{"add category", func() Result {
			return s.AddCategory("Admin", "인사")
		}, "권한이 없습니다. 관리자만 분야를 추가할 수 있습니다."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.run()
			assert.False(t, res.OK())
			assert.Equal(t, tc.want, res.Message)
		})
	}

	res, job := s.Reload(context.Background(), "user")
	assert.False(t, res.OK())
	assert.Nil(t, job)
	assert.Empty(t, rl.calls)
	assert.NoDirExists(t, filepath.Join(root, "인사"))
}

func TestUpload(t *testing.T) {
	s, rl, root := newService(t)

	res := s.Upload(context.Background(), "admin", "계약", "../국가계약법.txt", strings.NewReader("제1조(목적)"))

	assert.True(t, res.OK())
	assert.Equal(t, "파일 업로드 성공: 국가계약법.txt", res.Message)
	assert.FileExists(t, filepath.Join(root, "계약", "국가계약법.txt"))
	assert.Equal(t, []string{"upload:계약"}, rl.calls)
}

func TestUpload_Failures(t *testing.T) {
	s, rl, _ := newService(t)

	res := s.Upload(context.Background(), "admin", "계약", "", strings.NewReader("x"))
	assert.Equal(t, "업로드할 파일이 없습니다.", res.Message)

	res = s.Upload(context.Background(), "admin", "계약", "empty.txt", strings.NewReader(""))
	assert.Equal(t, "업로드할 파일이 없습니다.", res.Message)

	res = s.Upload(context.Background(), "admin", "계약", "big.txt", strings.NewReader(strings.Repeat("가", 1000)))
	assert.False(t, res.OK())
	assert.True(t, strings.HasPrefix(res.Message, "파일 업로드 실패: "))

	assert.Empty(t, rl.calls)
}

func TestUpload_ReloadFailureStillSucceeds(t *testing.T) {
	s, rl, _ := newService(t)
	rl.err = errors.New("walk failed")

	res := s.Upload(context.Background(), "admin", "계약", "a.txt", strings.NewReader("x"))

	assert.True(t, res.OK())
}

func TestDelete(t *testing.T) {
	s, rl, root := newService(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "계약"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "계약", "a.txt"), []byte("x"), 0o644))

	res := s.Delete(context.Background(), "admin", "계약", "a.txt")
	assert.True(t, res.OK())
	assert.Equal(t, "삭제 성공: a.txt", res.Message)
	assert.Equal(t, []string{"delete:계약"}, rl.calls)

	res = s.Delete(context.Background(), "admin", "계약", "a.txt")
	assert.Equal(t, "파일이 존재하지 않습니다: a.txt", res.Message)

	res = s.Delete(context.Background(), "admin", "계약", "../a.txt")
	assert.True(t, strings.HasPrefix(res.Message, "삭제 실패: "))
}

func TestAddCategory(t *testing.T) {
	s, _, root := newService(t)

	res := s.AddCategory("admin", " 인사 ")
	assert.True(t, res.OK())
	assert.Equal(t, "인사", res.Message)
	assert.DirExists(t, filepath.Join(root, "인사"))

	assert.Equal(t, "이미 존재하는 분야입니다.", s.AddCategory("admin", "인사").Message)
	assert.Equal(t, "이미 존재하는 분야입니다.", s.AddCategory("admin", "계약").Message)
	assert.Equal(t, "분야명을 입력해주세요.", s.AddCategory("admin", "  ").Message)
	assert.True(t, strings.HasPrefix(s.AddCategory("admin", "a/b").Message, "분야 추가 실패: "))
}

func TestReload(t *testing.T) {
	s, rl, _ := newService(t)

	res, job := s.Reload(context.Background(), "admin")

	assert.True(t, res.OK())
	require.NotNil(t, job)
	assert.Equal(t, uint64(3), job.Generation)
	assert.Equal(t, []string{pipeline.TriggerManual}, rl.calls)
}
