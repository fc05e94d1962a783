package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

const DefaultMaxFileSize int64 = 10 * 1024 * 1024

var allowedExtensions = map[string][]byte{
	".pdf":  []byte("%PDF"),
	".docx": []byte("PK"),
	".txt":  nil,
}

// AllowedExtensions lists the accepted file extensions in sorted order.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ValidateFile checks the file at path and returns its metadata and contents.
// Oversized files are rejected before they are read.
func ValidateFile(path string, maxSize int64) (models.FileMeta, []byte, error) {
	name := filepath.Base(path)
	if err := validateExtension(name); err != nil {
		return models.FileMeta{}, nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.FileMeta{}, nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if err := validateSize(info.Size(), maxSize); err != nil {
		return models.FileMeta{}, nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return models.FileMeta{}, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	meta, err := ValidateUpload(name, content, maxSize)
	if err != nil {
		return models.FileMeta{}, nil, err
	}
	return meta, content, nil
}

// ValidateUpload applies type, size and content checks to an in-memory file.
func ValidateUpload(name string, content []byte, maxSize int64) (models.FileMeta, error) {
	if err := validateExtension(name); err != nil {
		return models.FileMeta{}, err
	}
	if err := validateSize(int64(len(content)), maxSize); err != nil {
		return models.FileMeta{}, err
	}

	ext := strings.ToLower(filepath.Ext(name))
	if magic := allowedExtensions[ext]; magic != nil && !bytes.HasPrefix(content, magic) {
		return models.FileMeta{}, newRejection(ErrInvalidContent,
			"file does not appear to be a valid %s", strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}
	if ext == ".txt" && !utf8.Valid(utf8Prefix(content, 1024)) {
		return models.FileMeta{}, newRejection(ErrInvalidContent, "file does not appear to be valid text")
	}

	meta := models.FileMeta{Name: name, SizeBytes: int64(len(content))}
	if ext == ".pdf" {
		meta.Pages = pdfPageCount(content)
	}
	return meta, nil
}

func validateExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		if ext == "" {
			ext = "(none)"
		}
		return newRejection(ErrUnsupportedType,
			"unsupported file type: %s. Allowed: %s", ext, strings.Join(AllowedExtensions(), ", "))
	}
	return nil
}

func validateSize(size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size == 0 {
		return newRejection(ErrEmptyFile, "file is empty")
	}
	if size > maxSize {
		return newRejection(ErrFileTooLarge, "file too large: %s. Maximum: %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxSize)))
	}
	return nil
}

// utf8Prefix cuts content to at most n bytes without splitting a rune.
func utf8Prefix(content []byte, n int) []byte {
	if len(content) <= n {
		return content
	}
	prefix := content[:n]
	for i := 0; i < utf8.UTFMax && len(prefix) > 0 && !utf8.Valid(prefix); i++ {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

// pdfPageCount is best effort: a PDF that passes the magic check but cannot be
// opened is still uploaded and the backend decides what to do with it.
func pdfPageCount(content []byte) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
