// Package admin holds the mutating library operations. Each is gated on the
// caller identity matching the configured administrator; a denied call is an
// ordinary Result, not an error.
package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/pipeline"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is what every admin operation reports back to the caller.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

func success(msg string) Result { return Result{Status: StatusSuccess, Message: msg} }
func failure(msg string) Result { return Result{Status: StatusError, Message: msg} }

// Reloader rebuilds the index after a library change.
type Reloader interface {
	ReloadCategory(ctx context.Context, category, trigger string) (pipeline.JobSnapshot, error)
	Reload(ctx context.Context, trigger string) (pipeline.JobSnapshot, error)
}

type Service struct {
	lib       *library.Library
	reloader  Reloader
	adminID   string
	maxUpload int64
	log       *slog.Logger
}

func New(lib *library.Library, reloader Reloader, adminID string, maxUpload int64, log *slog.Logger) *Service {
	return &Service{
		lib:       lib,
		reloader:  reloader,
		adminID:   adminID,
		maxUpload: maxUpload,
		log:       log,
	}
}

// IsAdmin reports whether identity may change the library.
func (s *Service) IsAdmin(identity string) bool {
	return s.adminID != "" && identity == s.adminID
}

// Upload stores a file in category and reloads the index.
func (s *Service) Upload(ctx context.Context, identity, category, name string, r io.Reader) Result {
	if !s.IsAdmin(identity) {
		return failure("권한이 없습니다. 관리자만 파일을 업로드할 수 있습니다.")
	}
	if r == nil || strings.TrimSpace(name) == "" {
		return failure("업로드할 파일이 없습니다.")
	}

	saved, err := s.lib.Save(category, name, r, s.maxUpload)
	switch {
	case errors.Is(err, library.ErrEmptyFile):
		return failure("업로드할 파일이 없습니다.")
	case err != nil:
		s.log.Warn("upload failed", "category", category, "file", name, "error", err)
		return failure("파일 업로드 실패: " + err.Error())
	}
	s.log.Info("file uploaded", "category", category, "file", saved, "by", identity)

	s.reload(ctx, category, pipeline.TriggerUpload)
	return success("파일 업로드 성공: " + saved)
}

// Delete removes a file from category and reloads the index.
func (s *Service) Delete(ctx context.Context, identity, category, name string) Result {
	if !s.IsAdmin(identity) {
		return failure("권한이 없습니다. 관리자만 파일을 삭제할 수 있습니다.")
	}

	err := s.lib.Delete(category, name)
	switch {
	case errors.Is(err, library.ErrNotFound):
		return failure("파일이 존재하지 않습니다: " + name)
	case err != nil:
		s.log.Warn("delete failed", "category", category, "file", name, "error", err)
		return failure("삭제 실패: " + err.Error())
	}
	s.log.Info("file deleted", "category", category, "file", name, "by", identity)

	s.reload(ctx, category, pipeline.TriggerDelete)
	return success("삭제 성공: " + name)
}

// AddCategory creates an empty category directory.
func (s *Service) AddCategory(identity, name string) Result {
	if !s.IsAdmin(identity) {
		return failure("권한이 없습니다. 관리자만 분야를 추가할 수 있습니다.")
	}
	if strings.TrimSpace(name) == "" {
		return failure("분야명을 입력해주세요.")
	}

	created, err := s.lib.AddCategory(name)
	switch {
	case errors.Is(err, library.ErrCategoryExists):
		return failure("이미 존재하는 분야입니다.")
	case err != nil:
		return failure("분야 추가 실패: " + err.Error())
	}
	s.log.Info("category added", "category", created, "by", identity)
	return success(created)
}

// Reload rebuilds the whole index on demand.
func (s *Service) Reload(ctx context.Context, identity string) (Result, *pipeline.JobSnapshot) {
	if !s.IsAdmin(identity) {
		return failure("권한이 없습니다. 관리자만 색인을 다시 불러올 수 있습니다."), nil
	}
	job, err := s.reloader.Reload(context.WithoutCancel(ctx), pipeline.TriggerManual)
	if err != nil {
		return failure("색인 재구성 실패: " + err.Error()), &job
	}
	return success("색인 재구성 완료"), &job
}

// reload runs after the file change has already succeeded, so a failure is
// logged rather than reported as a failed upload or delete.
func (s *Service) reload(ctx context.Context, category, trigger string) {
	if _, err := s.reloader.ReloadCategory(context.WithoutCancel(ctx), category, trigger); err != nil {
		s.log.Error("reload after change failed", "category", category, "trigger", trigger, "error", err)
	}
}
