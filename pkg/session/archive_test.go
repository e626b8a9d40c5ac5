package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/vfs"
)

func TestCompressThenDecompress(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Compress("work", "desktop"))
	c.Wait()

	zipNode := vfs.FindByID(c.Root(), "desktop").Child("Work.zip")
	require.NotNil(t, zipNode)
	assert.Equal(t, vfs.MimeZip, zipNode.MimeType)
	assert.Positive(t, zipNode.Size)
	assert.Equal(t, "Compression Complete", c.Notifications().List()[0].Title)

	require.NoError(t, c.Decompress(zipNode.ID, ""))
	c.Wait()

	extracted := vfs.FindByID(c.Root(), "desktop").Child("Work")
	require.NotNil(t, extracted)
	inner := extracted.Child("Work")
	require.NotNil(t, inner)
	report := inner.Child("Q3_Report.txt")
	require.NotNil(t, report)
	assert.Equal(t, "Q3 report content.", report.Content)
	assert.Equal(t, vfs.MimeText, report.MimeType)

	titles := []string{}
	for _, n := range c.Notifications().List() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Decompression Complete", "Decompressing...", "Compression Complete", "Compressing..."}, titles)
	assert.NoError(t, vfs.Validate(c.Root()))
}

func TestDecompressCorruptArchive(t *testing.T) {
	c, _ := newTestController(t)
	f, err := c.CreateFile("downloads", "bad.zip", "bm90IGEgemlw")
	require.NoError(t, err)
	before := c.Root()

	require.NoError(t, c.Decompress(f.ID, ""))
	c.Wait()

	assert.Same(t, before, c.Root())
	assert.Equal(t, "Decompression Failed", c.Notifications().List()[0].Title)
}

func TestDecompressRejectsNonArchives(t *testing.T) {
	c, _ := newTestController(t)

	assert.True(t, shellerr.Is(c.Decompress("doc1", ""), shellerr.ErrInvalidRequest))
	assert.True(t, shellerr.Is(c.Decompress("missing", ""), shellerr.ErrReferenceNotFound))
	assert.True(t, shellerr.Is(c.Compress(vfs.TrashID, ""), shellerr.ErrStructuralViolation))
	assert.True(t, shellerr.Is(c.Compress("doc1", "notes-file"), shellerr.ErrStructuralViolation))
}

func TestCompressFileName(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Compress("doc1", ""))
	c.Wait()

	assert.NotNil(t, vfs.FindByID(c.Root(), "documents").Child("project_plan.zip"))
}

func TestImportHostDir(t *testing.T) {
	c, _ := newTestController(t)
	dir := filepath.Join(t.TempDir(), "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024", "notes.md"), []byte("# n"), 0o644))

	require.NoError(t, c.ImportHostDir(dir, "downloads"))
	c.Wait()

	top := vfs.FindByID(c.Root(), "downloads").Child("photos")
	require.NotNil(t, top)
	assert.Equal(t, "hi", top.Child("readme.txt").Content)
	assert.Equal(t, "# n", top.Child("2024").Child("notes.md").Content)
	assert.Equal(t, "Import Complete", c.Notifications().List()[0].Title)
}

func TestImportHostDirFailures(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.ImportHostDir(filepath.Join(t.TempDir(), "missing"), "downloads"))
	c.Wait()
	assert.Equal(t, "Import Failed", c.Notifications().List()[0].Title)

	assert.True(t, shellerr.Is(c.ImportHostDir(t.TempDir(), "doc1"), shellerr.ErrStructuralViolation))

	opts := testOptions(nil)
	opts.ImportAllowed = func(string) bool { return false }
	restricted := New(t.Context(), opts)
	defer restricted.Close()
	assert.True(t, shellerr.Is(restricted.ImportHostDir(t.TempDir(), "downloads"), shellerr.ErrInvalidRequest))
}
