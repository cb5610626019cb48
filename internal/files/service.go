// Package files exposes the browsing surface of the storage tree:
// directory listings, file metadata, previews and directory creation.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aclgate/aclgate/internal/config"
	"github.com/aclgate/aclgate/internal/fsmeta"
	"github.com/aclgate/aclgate/internal/pathguard"
	"github.com/aclgate/aclgate/pkg/cerr"
)

type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	IsDirectory bool      `json:"is_directory"`
	Size        int64     `json:"size"`
	Owner       string    `json:"owner"`
	Group       string    `json:"group"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Preview streams a file's content. The caller owns Content and must
// close it.
type Preview struct {
	Content     io.ReadCloser
	ContentType string
	Size        int64
	Name        string
}

type Service struct {
	guard *pathguard.Guard
	env   *config.FilesEnv
}

func NewService(guard *pathguard.Guard, env *config.FilesEnv) *Service {
	return &Service{guard: guard, env: env}
}

func (s *Service) Browse(ctx context.Context, relPath string) ([]Entry, error) {
	abs, err := s.guard.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	meta, err := s.stat(abs, relPath)
	if err != nil {
		return nil, err
	}
	if !meta.IsDirectory {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("not a directory: %s", relPath), nil)
	}
	metas, err := fsmeta.List(abs)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	entries := make([]Entry, 0, len(metas))
	for _, m := range metas {
		entries = append(entries, toEntry(m, path.Join(cleanRel(relPath), m.Name)))
	}
	return entries, nil
}

func (s *Service) Info(ctx context.Context, relPath string) (*Entry, error) {
	abs, err := s.guard.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	meta, err := s.stat(abs, relPath)
	if err != nil {
		return nil, err
	}
	entry := toEntry(meta, cleanRel(relPath))
	return &entry, nil
}

func (s *Service) PreviewFile(ctx context.Context, relPath string) (*Preview, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(relPath), "."))
	if !s.env.ExtensionAllowed(ext) {
		return nil, cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("file type %q is not supported for preview", ext), nil)
	}
	abs, err := s.guard.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	meta, err := s.stat(abs, relPath)
	if err != nil {
		return nil, err
	}
	if meta.IsDirectory {
		return nil, cerr.NewError(cerr.InvalidArgument, "cannot preview a directory", nil)
	}
	if limit := s.env.MaxPreviewMB << 20; meta.Size > limit {
		return nil, cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("file exceeds the preview size limit of %d MiB", s.env.MaxPreviewMB), nil)
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cerr.NewError(cerr.PathNotFound, fmt.Sprintf("path not found: %s", relPath), err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Preview{
		Content:     f,
		ContentType: contentType,
		Size:        meta.Size,
		Name:        meta.Name,
	}, nil
}

func (s *Service) CreateDirectory(ctx context.Context, relPath string) (*Entry, error) {
	abs, err := s.guard.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return nil, cerr.NewError(cerr.AlreadyExists, fmt.Sprintf("already exists: %s", relPath), err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, cerr.NewError(cerr.PathNotFound, fmt.Sprintf("path not found: %s", path.Dir(relPath)), err)
		default:
			return nil, cerr.NewError(cerr.Internal, "server error", err)
		}
	}
	meta, err := s.stat(abs, relPath)
	if err != nil {
		return nil, err
	}
	entry := toEntry(meta, cleanRel(relPath))
	return &entry, nil
}

func (s *Service) stat(abs, relPath string) (*fsmeta.Meta, error) {
	meta, err := fsmeta.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cerr.NewError(cerr.PathNotFound, fmt.Sprintf("path not found: %s", relPath), err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	return meta, nil
}

func toEntry(m *fsmeta.Meta, relPath string) Entry {
	return Entry{
		Name:        m.Name,
		Path:        relPath,
		IsDirectory: m.IsDirectory,
		Size:        m.Size,
		Owner:       m.Owner,
		Group:       m.Group,
		ModifiedAt:  m.ModTime,
	}
}

func cleanRel(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
