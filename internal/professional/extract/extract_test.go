package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		filename    string
		want        string
	}{
		{"declared pdf", nil, "application/pdf", "cv.bin", MimePDF},
		{"declared with params", nil, "text/plain; charset=utf-8", "", MimeText},
		{"generic type uses extension", nil, "application/octet-stream", "CV.DOCX", MimeDOCX},
		{"zip with docx extension", nil, "application/zip", "cv.docx", MimeDOCX},
		{"sniffed pdf", []byte("%PDF-1.4\n"), "", "upload", MimePDF},
		{"sniffed text", []byte("plain words"), "", "", MimeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.data, tt.contentType, tt.filename))
		})
	}
}

func TestExtractText(t *testing.T) {
	text, err := New().Extract([]byte("Seasoned engineer"), "text/plain", "cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "Seasoned engineer", text)

	_, err = New().Extract([]byte{0xff, 0xfe, 0xfd}, "text/plain", "cv.txt")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := New().Extract([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, "image/png", "cv.png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := New().Extract([]byte("%PDF-1.4 truncated"), "application/pdf", "cv.pdf")
	assert.Error(t, err)
}

func TestExtractPDF(t *testing.T) {
	text, err := New().Extract(minimalPDF("Hello resume"), "application/pdf", "cv.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Hello resume")
}

func TestExtractDOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Morgan Lee</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Designer</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := New().Extract(minimalDOCX(t, body), "", "cv.docx")
	require.NoError(t, err)
	assert.Equal(t, "Morgan Lee\nSenior Designer\n", text)
}

func TestExtractMalformedDOCX(t *testing.T) {
	_, err := New().Extract([]byte("PK not really a zip"), MimeDOCX, "cv.docx")
	assert.Error(t, err)
}

func minimalDOCX(t *testing.T, document string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// minimalPDF renders a single-page document showing text in Helvetica.
func minimalPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
