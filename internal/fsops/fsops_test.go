package fsops

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/mocks"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestList_DirectChildrenOnly(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "docs/a.txt", "a")
	writeFile(t, root, "docs/sub/deep.txt", "deep")
	writeFile(t, root, "docs/.hidden", "h")

	entries, err := s.List("/docs", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub"}, names(entries))
	assert.Equal(t, "/docs/a.txt", entries[0].Path)
	assert.Equal(t, "/docs/", entries[0].ParentPath)
}

func TestList_ShowHidden(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, ".hidden", "h")
	writeFile(t, root, "shown", "s")

	entries, err := s.List("/", true)

	require.NoError(t, err)
	assert.Equal(t, []string{".hidden", "shown"}, names(entries))
}

func TestList_EmptyDirectory(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	mkdir(t, root, "empty")

	entries, err := s.List("/empty", false)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestList_Errors(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "file", "x")

	_, err := s.List("/missing", false)
	assert.ErrorIs(t, err, webfm.ErrNotFound)

	_, err = s.List("/file", false)
	assert.ErrorIs(t, err, webfm.ErrNotADirectory)
}

func TestStat_File(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "dir/report.final.pdf", "12345")

	e, err := s.Stat("dir/report.final.pdf")

	require.NoError(t, err)
	assert.Equal(t, "report.final.pdf", e.Name)
	assert.Equal(t, "/dir/report.final.pdf", e.Path)
	assert.Equal(t, "/dir/", e.ParentPath)
	assert.Equal(t, int64(5), e.Size)
	assert.True(t, e.IsFile)
	assert.Equal(t, ".pdf", e.FileType)
	assert.False(t, e.HasChildren)
	assert.NotZero(t, e.Mode&0o400, "mode must carry permission bits")
	assert.False(t, e.DateModified.IsZero())
	assert.False(t, e.DateCreated.IsZero())
}

func TestStat_Directory(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "full/child", "x")
	mkdir(t, root, "empty")

	full, err := s.Stat("/full")
	require.NoError(t, err)
	empty, err := s.Stat("/empty")
	require.NoError(t, err)

	assert.False(t, full.IsFile)
	assert.Zero(t, full.Size)
	assert.True(t, full.HasChildren)
	assert.False(t, empty.HasChildren)
}

func TestStat_SymlinkDescribesItself(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "target.txt", "content")
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link")))

	e, err := s.Stat("/link")

	require.NoError(t, err)
	assert.False(t, e.IsFile, "symlinks are not regular files")
	assert.Equal(t, int64(len("target.txt")), e.Size)
}

func TestStat_Root(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	e, err := s.Stat("/")

	require.NoError(t, err)
	assert.Equal(t, "/", e.Path)
	assert.Equal(t, "/", e.ParentPath)
	assert.Empty(t, e.Name)
}

func TestStat_TraversalStaysInRoot(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "etc/passwd", "jailed")

	e, err := s.Stat("/../../etc/passwd")

	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", e.Path)
	assert.Equal(t, int64(len("jailed")), e.Size)
}

func TestExists(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "a", "")
	require.NoError(t, os.Symlink("nowhere", filepath.Join(root, "dangling")))

	for p, want := range map[string]bool{"/a": true, "/dangling": true, "/b": false} {
		got, err := s.Exists(p)
		require.NoError(t, err)
		assert.Equal(t, want, got, p)
	}
}

func TestMakeDir(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)

	e, err := s.MakeDir("/new")
	require.NoError(t, err)
	assert.Equal(t, "new", e.Name)
	assert.False(t, e.IsFile)
	assert.DirExists(t, filepath.Join(root, "new"))

	_, err = s.MakeDir("/new")
	assert.ErrorIs(t, err, webfm.ErrAlreadyExists)

	_, err = s.MakeDir("/missing/new")
	assert.ErrorIs(t, err, webfm.ErrNotFound)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "file", "x")
	writeFile(t, root, "dir/sub/deep", "x")
	writeFile(t, root, "keep/kept", "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "keep"), filepath.Join(root, "link")))

	require.NoError(t, s.Remove("/file"))
	require.NoError(t, s.Remove("/dir"))
	require.NoError(t, s.Remove("/link"))

	assert.NoFileExists(t, filepath.Join(root, "file"))
	assert.NoDirExists(t, filepath.Join(root, "dir"))
	assert.FileExists(t, filepath.Join(root, "keep", "kept"), "removing a symlink must not touch its target")

	assert.ErrorIs(t, s.Remove("/file"), webfm.ErrNotFound)
	assert.ErrorIs(t, s.Remove("/"), webfm.ErrInvalidInput)
}

func TestRename(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "old.txt", "x")

	e, err := s.Rename("/old.txt", "/new.txt")

	require.NoError(t, err)
	assert.Equal(t, "/new.txt", e.Path)
	assert.NoFileExists(t, filepath.Join(root, "old.txt"))
	assert.FileExists(t, filepath.Join(root, "new.txt"))

	_, err = s.Rename("/old.txt", "/other.txt")
	assert.ErrorIs(t, err, webfm.ErrNotFound)
}

func TestResolveDuplicate_Sequence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	for _, want := range []string{"f.txt", "f (1).txt", "f (2).txt", "f (3).txt"} {
		got, err := resolveDuplicate(root, "f.txt")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		writeFile(t, root, got, "")
	}
}

func TestResolveDuplicate_FillsGaps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "f.txt", "")
	writeFile(t, root, "f (2).txt", "")

	got, err := resolveDuplicate(root, "f.txt")

	require.NoError(t, err)
	assert.Equal(t, "f (1).txt", got)
}

func TestMove(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "src/a.txt", "moved")
	writeFile(t, root, "src/b.txt", "second")
	writeFile(t, root, "dst/b.txt", "existing")

	a, err := s.Move("/src/a.txt", "/dst")
	require.NoError(t, err)
	b, err := s.Move("/src/b.txt", "/dst")
	require.NoError(t, err)

	assert.Equal(t, "/dst/a.txt", a.Path)
	assert.Equal(t, "/dst/b (1).txt", b.Path, "collisions resolve to a numbered name")
	assertContent(t, filepath.Join(root, "dst", "a.txt"), "moved")
	assertContent(t, filepath.Join(root, "dst", "b.txt"), "existing")
	assertContent(t, filepath.Join(root, "dst", "b (1).txt"), "second")
	assert.NoFileExists(t, filepath.Join(root, "src", "a.txt"))

	_, err = s.Move("/src/missing", "/dst")
	assert.ErrorIs(t, err, webfm.ErrNotFound)
}

func TestCopy_File(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "a.sh", "#!/bin/sh")
	src := filepath.Join(root, "a.sh")
	require.NoError(t, os.Chmod(src, 0o750))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))
	mkdir(t, root, "dst")

	e, err := s.Copy("/a.sh", "/dst")

	require.NoError(t, err)
	assert.Equal(t, "/dst/a.sh", e.Path)
	copied := filepath.Join(root, "dst", "a.sh")
	assertContent(t, copied, "#!/bin/sh")
	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "mtime must be preserved")
	assertContent(t, src, "#!/bin/sh")
}

func TestCopy_DuplicateNames(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "f.txt", "x")

	first, err := s.Copy("/f.txt", "/")
	require.NoError(t, err)
	second, err := s.Copy("/f.txt", "/")
	require.NoError(t, err)

	assert.Equal(t, "f (1).txt", first.Name)
	assert.Equal(t, "f (2).txt", second.Name)
}

func TestCopy_DirectoryRecursive(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "tree/a.txt", "a")
	writeFile(t, root, "tree/sub/b.txt", "b")
	require.NoError(t, os.Symlink("a.txt", filepath.Join(root, "tree", "link")))
	require.NoError(t, os.Chmod(filepath.Join(root, "tree", "sub"), 0o755))
	mkdir(t, root, "dst")

	e, err := s.Copy("/tree", "/dst")

	require.NoError(t, err)
	assert.Equal(t, "/dst/tree", e.Path)
	assert.True(t, e.HasChildren)
	assertContent(t, filepath.Join(root, "dst", "tree", "a.txt"), "a")
	assertContent(t, filepath.Join(root, "dst", "tree", "sub", "b.txt"), "b")
	target, err := os.Readlink(filepath.Join(root, "dst", "tree", "link"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", target, "symlinks are copied as links")
	info, err := os.Stat(filepath.Join(root, "dst", "tree", "sub"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopy_IntoItself(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	mkdir(t, root, "tree/sub")

	_, err := s.Copy("/tree", "/tree/sub")
	assert.ErrorIs(t, err, webfm.ErrInvalidInput)

	_, err = s.Copy("/tree", "/tree")
	assert.ErrorIs(t, err, webfm.ErrInvalidInput)
}

func TestSaveUpload(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	mkdir(t, root, "up")

	e, n, err := s.SaveUpload("/up", "../../my report.txt", strings.NewReader("hello"), false)

	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "/up/my_report.txt", e.Path)
	assertContent(t, filepath.Join(root, "up", "my_report.txt"), "hello")

	_, _, err = s.SaveUpload("/up", "my report.txt", strings.NewReader("again"), false)
	assert.ErrorIs(t, err, webfm.ErrAlreadyExists)

	_, _, err = s.SaveUpload("/up", "my report.txt", strings.NewReader("again"), true)
	require.NoError(t, err)
	assertContent(t, filepath.Join(root, "up", "my_report.txt"), "again")

	left, err := os.ReadDir(filepath.Join(root, "up"))
	require.NoError(t, err)
	assert.Len(t, left, 1, "no temporary files may be left behind")
}

func TestSaveUpload_InvalidName(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	_, _, err := s.SaveUpload("/", "../..", strings.NewReader("x"), false)

	assert.ErrorIs(t, err, webfm.ErrInvalidInput)
}

func TestRemoveUpload(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "partial.bin", "x")

	require.NoError(t, s.RemoveUpload("/", "partial.bin"))
	require.NoError(t, s.RemoveUpload("/", "partial.bin"), "missing files are not an error")
	assert.NoFileExists(t, filepath.Join(root, "partial.bin"))
}

func TestArchive(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "one.txt", "1")
	writeFile(t, root, "nested/dir/two.txt", "22")

	var buf bytes.Buffer
	require.NoError(t, s.Archive(&buf, []string{"/one.txt", "/nested/dir"}))

	got := readArchive(t, &buf)
	assert.Equal(t, map[string]string{
		"one.txt":     "1",
		"dir/":        "",
		"dir/two.txt": "22",
	}, got)
}

func TestArchive_MissingPath(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	err := s.Archive(io.Discard, []string{"/missing"})

	assert.ErrorIs(t, err, webfm.ErrNotFound)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "note.txt", "plain text content")
	mkdir(t, root, "dir")

	f, err := s.Open("/note.txt")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, strings.HasPrefix(f.MIME, "text/plain"), f.MIME)
	assert.Equal(t, "note.txt", f.Entry.Name)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "plain text content", string(data), "reader must be rewound after detection")

	_, err = s.Open("/dir")
	assert.ErrorIs(t, err, webfm.ErrIsADirectory)
}

func TestSession_RunsAsUser(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	id := &mocks.MockIdentityContext{}
	id.On("Run", "alice", mock.Anything).Return(nil).Once()
	s := New(root, id).As("alice")

	_, err := s.Stat("/")

	require.NoError(t, err)
	id.AssertExpectations(t)
}

func TestSession_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}
	t.Parallel()

	s, root := newTestSession(t)
	writeFile(t, root, "locked/secret", "x")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked"), 0o755) })

	_, err := s.List("/locked", false)

	assert.ErrorIs(t, err, webfm.ErrPermissionDenied)
}

// directIdentity runs work as the test process user.
type directIdentity struct{}

func (directIdentity) Run(_ string, fn func() error) error { return fn() }

func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	root := t.TempDir()
	return New(root, directIdentity{}).As(""), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func mkdir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o755))
}

func assertContent(t *testing.T, p, want string) {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func names(entries []webfm.FileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

func readArchive(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	gz, err := gzip.NewReader(r)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	out := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[hdr.Name] = string(data)
	}
	return out
}
