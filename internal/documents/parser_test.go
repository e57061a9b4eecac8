package documents

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("PTO accrues monthly.\n"), 0644))

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "PTO accrues monthly.\n", text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract("slides.pptx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("handbook.PDF"))
	assert.True(t, Supported("policy.docx"))
	assert.True(t, Supported("notes.txt"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("legacy.doc"))
}

func TestExtractDOCX(t *testing.T) {
	const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Health insurance enrollment</w:t></w:r></w:p>
    <w:p><w:r><w:t>opens in </w:t></w:r><w:r><w:t>November.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Plan</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Premium</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>PPO</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>$120</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

	path := filepath.Join(t.TempDir(), "benefits.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	part, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Health insurance enrollment")
	assert.Contains(t, text, "opens in November.")
	assert.Contains(t, text, "Plan | Premium")
	assert.Contains(t, text, "PPO | $120")
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	part, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Extract(path)
	assert.Error(t, err)
}
