package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclgate/aclgate/internal/config"
	"github.com/aclgate/aclgate/internal/pathguard"
	"github.com/aclgate/aclgate/pkg/cerr"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	guard, err := pathguard.New(root)
	require.NoError(t, err)
	env := &config.FilesEnv{
		AllowedExtensions: []string{"csv", "txt", "pdf"},
		MaxPreviewMB:      1,
	}
	return NewService(guard, env), root
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "project1", "raw"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "project1", "data.csv"), []byte("a,b\n"), 0o644))

	entries, err := svc.Browse(ctx, "project1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// fsmeta lists in directory order; find by name.
	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	data := byName["data.csv"]
	assert.Equal(t, "project1/data.csv", data.Path)
	assert.False(t, data.IsDirectory)
	assert.Equal(t, int64(4), data.Size)
	assert.NotEmpty(t, data.Owner)
	raw := byName["raw"]
	assert.True(t, raw.IsDirectory)
	assert.Equal(t, "project1/raw", raw.Path)
}

func TestBrowseErrors(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))

	_, err := svc.Browse(ctx, "missing")
	assert.True(t, cerr.IsCode(err, cerr.PathNotFound))

	_, err = svc.Browse(ctx, "file.txt")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	_, err = svc.Browse(ctx, "../outside")
	assert.True(t, cerr.IsCode(err, cerr.PathEscape))
}

func TestInfo(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	entry, err := svc.Info(ctx, "/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", entry.Name)
	assert.Equal(t, "notes.txt", entry.Path)
	assert.Equal(t, int64(5), entry.Size)
	assert.False(t, entry.IsDirectory)
}

func TestPreviewFile(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.csv"), []byte("a,b\n1,2\n"), 0o644))

	preview, err := svc.PreviewFile(ctx, "data.csv")
	require.NoError(t, err)
	defer preview.Content.Close()

	assert.Equal(t, "data.csv", preview.Name)
	assert.Equal(t, int64(8), preview.Size)
	assert.NotEmpty(t, preview.ContentType)

	content, err := io.ReadAll(preview.Content)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))

	// Extensions in the builtin MIME table get their real content type.
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.pdf"), []byte("%PDF-1.4"), 0o644))
	pdf, err := svc.PreviewFile(ctx, "doc.pdf")
	require.NoError(t, err)
	defer pdf.Content.Close()
	assert.Equal(t, "application/pdf", pdf.ContentType)
}

func TestPreviewFileRejections(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "tool.exe"), []byte("MZ"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.txt"), 0o755))

	// Disallowed extension, checked before the filesystem is touched.
	_, err := svc.PreviewFile(ctx, "tool.exe")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Contains(t, err.Error(), "not supported")

	_, err = svc.PreviewFile(ctx, "missing.txt")
	assert.True(t, cerr.IsCode(err, cerr.PathNotFound))

	_, err = svc.PreviewFile(ctx, "dir.txt")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Contains(t, err.Error(), "directory")
}

func TestPreviewFileSizeLimit(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)

	// One byte over the 1 MiB limit.
	big := make([]byte, 1<<20+1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.csv"), big, 0o644))

	_, err := svc.PreviewFile(ctx, "big.csv")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Contains(t, err.Error(), "size limit")
}

func TestCreateDirectory(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "project1"), 0o755))

	entry, err := svc.CreateDirectory(ctx, "project1/results")
	require.NoError(t, err)
	assert.Equal(t, "results", entry.Name)
	assert.Equal(t, "project1/results", entry.Path)
	assert.True(t, entry.IsDirectory)

	// Existing target
	_, err = svc.CreateDirectory(ctx, "project1/results")
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	// Missing parent: only the leaf is created, never intermediates.
	_, err = svc.CreateDirectory(ctx, "nope/results")
	assert.True(t, cerr.IsCode(err, cerr.PathNotFound))

	_, err = svc.CreateDirectory(ctx, "../escape")
	assert.True(t, cerr.IsCode(err, cerr.PathEscape))
}
