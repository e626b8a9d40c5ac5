package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webdesk/pkg/vfs"
)

func TestRenderMarkdown(t *testing.T) {
	root := vfs.SeedTree()

	p, err := Render(vfs.FindByID(root, "readme"))
	require.NoError(t, err)

	assert.Equal(t, KindMarkdown, p.Kind)
	assert.Contains(t, string(p.HTML), "<h1")
	assert.Contains(t, string(p.HTML), "<strong>Alt + F4</strong>")
	require.NotEmpty(t, p.Headings)
	assert.Equal(t, 1, p.Headings[0].Level)
	assert.Equal(t, "Welcome to WebDesk", p.Headings[0].Text)
	assert.NotEmpty(t, p.Headings[0].ID)
}

func TestRenderText(t *testing.T) {
	n := vfs.NewFile("f", "x.txt", "<script>alert(1)</script>", vfs.MimeText, time.Now())

	p, err := Render(n)
	require.NoError(t, err)

	assert.Equal(t, KindText, p.Kind)
	assert.False(t, strings.Contains(string(p.HTML), "<script>"))
	assert.Contains(t, string(p.HTML), "&lt;script&gt;")
}

func TestRenderOtherKinds(t *testing.T) {
	root := vfs.SeedTree()

	img, err := Render(vfs.FindByID(root, "pic1"))
	require.NoError(t, err)
	assert.Equal(t, KindImage, img.Kind)
	assert.Contains(t, string(img.HTML), "<img src=")

	folder, err := Render(vfs.FindByID(root, "documents"))
	require.NoError(t, err)
	assert.Equal(t, KindFolder, folder.Kind)
	assert.Contains(t, string(folder.HTML), "3 items")

	zip, err := Render(&vfs.Node{Name: "a.zip", Type: vfs.NodeFile, MimeType: vfs.MimeZip, Size: 2048})
	require.NoError(t, err)
	assert.Equal(t, KindArchive, zip.Kind)
	assert.Contains(t, string(zip.HTML), "2.0 kB")

	bin, err := Render(&vfs.Node{Name: "blob", Type: vfs.NodeFile, MimeType: vfs.MimeBinary})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, bin.Kind)

	_, err = Render(nil)
	assert.Error(t, err)
}

func TestPropertiesOf(t *testing.T) {
	root := vfs.SeedTree()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	props, ok := PropertiesOf(root, "pictures", now)
	require.True(t, ok)
	assert.Equal(t, "Folder", props.Type)
	assert.Equal(t, "~/Pictures", props.Path)
	assert.Equal(t, int64(120834+98455), props.Bytes)
	assert.Equal(t, "219 kB", props.Size)
	assert.Equal(t, 2, props.Items)
	assert.Contains(t, props.Created, "ago")
	assert.False(t, props.InTrash)

	file, ok := PropertiesOf(root, "doc1", now)
	require.True(t, ok)
	assert.Equal(t, "File", file.Type)
	assert.Equal(t, "27 B", file.Size)

	_, ok = PropertiesOf(root, "missing", now)
	assert.False(t, ok)
}
