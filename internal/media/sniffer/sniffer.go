package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

type DocumentType string

const (
	TypePDF  DocumentType = "pdf"
	TypeJPEG DocumentType = "jpeg"
	TypePNG  DocumentType = "png"
	TypeTIFF DocumentType = "tiff"
	TypeDOCX DocumentType = "docx"
	TypeText DocumentType = "txt"
)

var ErrUnknownType = errors.New("unknown document type")

type Result struct {
	Type DocumentType
	MIME string
}

// Textual reports whether the document body can be kept as extracted text.
func (r Result) Textual() bool {
	return r.Type == TypeText
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	if isPDF(head) {
		return Result{Type: TypePDF, MIME: "application/pdf"}, nil
	}
	if isJPEG(head) {
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	}
	if isPNG(head) {
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	}
	if isTIFF(head) {
		return Result{Type: TypeTIFF, MIME: "image/tiff"}, nil
	}
	if isZip(head) {
		return Result{Type: TypeDOCX, MIME: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, nil
	}
	if isText(head) {
		return Result{Type: TypeText, MIME: "text/plain"}, nil
	}

	return Result{}, ErrUnknownType
}

func isPDF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("%PDF-"))
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isTIFF(head []byte) bool {
	return bytes.HasPrefix(head, []byte{'I', 'I', 0x2a, 0x00}) || bytes.HasPrefix(head, []byte{'M', 'M', 0x00, 0x2a})
}

func isZip(head []byte) bool {
	return bytes.HasPrefix(head, []byte{'P', 'K', 0x03, 0x04})
}

// isText accepts valid UTF-8 without NUL bytes. A multi-byte rune cut off at
// the end of the sniffed head is tolerated.
func isText(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size == 1 {
			return len(head) < utf8.UTFMax && !utf8.FullRune(head)
		}
		head = head[size:]
	}
	return true
}

var pdfPagePattern = regexp.MustCompile(`/Type\s*/Page[^s]`)

// PDFPages counts page objects in a PDF body. It returns 1 when none are found.
func PDFPages(data []byte) int {
	n := len(pdfPagePattern.FindAllIndex(data, -1))
	if n == 0 {
		return 1
	}
	return n
}

func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}
