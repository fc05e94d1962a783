package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>SKILLS</w:t></w:r></w:p>
<w:p><w:r><w:t>Go,</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> Docker</w:t></w:r></w:p>
</w:body>
</w:document>`

func writeDOCX(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "resume.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestTextExtractor_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("EDUCATION\nBSc"), 0o644))

	content, err := NewTextExtractor().ExtractTextWithMetaData(path)

	require.NoError(t, err)
	assert.Equal(t, "EDUCATION\nBSc", content.Text)
	assert.Equal(t, path, content.FilePath)
	assert.Zero(t, content.PageCount)
}

func TestTextExtractor_DOCX(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	text, err := NewTextExtractor().ExtractText(path)

	require.NoError(t, err)
	assert.Equal(t, "SKILLS\nGo,\t Docker\n", text)
	assert.Equal(t, []string{"Go,\t Docker"}, DetectSections(text)["skills"])
}

func TestTextExtractor_DOCXWithoutBody(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), map[string]string{"docProps/app.xml": "<Properties/>"})

	_, err := NewTextExtractor().ExtractText(path)

	assert.ErrorContains(t, err, "word/document.xml")
}

func TestTextExtractor_Errors(t *testing.T) {
	dir := t.TempDir()
	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte(" \n\t"), 0o644))
	image := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o644))

	_, err := NewTextExtractor().ExtractText(blank)
	assert.ErrorIs(t, err, ErrNoText)

	_, err = NewTextExtractor().ExtractText(image)
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = NewTextExtractor().ExtractText(filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "file does not exist")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("  a  \n\n   \n b\n"))
	assert.Equal(t, "", CleanText(" \n "))
}
