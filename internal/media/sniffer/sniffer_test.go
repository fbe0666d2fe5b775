package sniffer

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want DocumentType
	}{
		{name: "pdf", head: []byte("%PDF-1.7\n%âãÏÓ"), want: TypePDF},
		{name: "jpeg", head: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, want: TypeJPEG},
		{name: "png", head: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}, want: TypePNG},
		{name: "tiff little endian", head: []byte{'I', 'I', 0x2a, 0x00, 0x08}, want: TypeTIFF},
		{name: "docx", head: []byte{'P', 'K', 0x03, 0x04, 0x14}, want: TypeDOCX},
		{name: "text", head: []byte("Patient reports neck pain after collision."), want: TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHead(tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Type)
			assert.NotEmpty(t, got.MIME)
		})
	}
}

func TestDetectHeadUnknown(t *testing.T) {
	_, err := DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DetectHead([]byte{0x00, 0x01, 0x02, 0xfe})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestIsTextToleratesTruncatedRune(t *testing.T) {
	head := append([]byte("röntgen "), 0xc3)
	assert.True(t, isText(head))
	assert.False(t, isText([]byte{'a', 0xff, 'b'}))
}

func TestDetectReadsHead(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 2048)
	result, head, err := Detect(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, TypeText, result.Type)
	assert.Len(t, head, 512)
}

func TestPDFPages(t *testing.T) {
	doc := []byte("%PDF-1.4\n1 0 obj << /Type /Pages /Count 2 >>\n2 0 obj << /Type /Page >>\n3 0 obj << /Type/Page >>")
	assert.Equal(t, 2, PDFPages(doc))
	assert.Equal(t, 1, PDFPages([]byte("%PDF-1.4")))
}

func TestMimeTypeFromHTTP(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/pdf; charset=binary")
	assert.Equal(t, "application/pdf", MimeTypeFromHTTP(h))
	assert.Equal(t, "", MimeTypeFromHTTP(http.Header{}))
}
