// Package blobstore keeps the letterhead ("header document") uploaded for
// each company. Documents live on the filesystem as company_<id>.pdf or
// company_<id>.jpg and are inlined into generated HTML as data URIs.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBlobNotFound       = errors.New("header document not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("only PDF and JPEG header documents are accepted")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidCompany     = errors.New("invalid company id")
)

// MaxFileSize is the maximum header document size in bytes (5 MB).
const MaxFileSize = 5 * 1024 * 1024

// AllowedContentTypes maps accepted sniffed types to the stored extension.
var AllowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
}

// extensions are tried in order by Resolve.
var extensions = []string{".pdf", ".jpg", ".jpeg"}

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Metadata describes a stored header document.
type Metadata struct {
	CompanyID   int64
	Path        string
	ContentType string
	Size        int64
	Hash        string
	CreatedAt   time.Time
}

// Store resolves and replaces company header documents.
type Store interface {
	Resolve(companyID int64) (string, error)
	Save(ctx context.Context, companyID int64, fileName string, content io.Reader) (*Metadata, error)
	Delete(companyID int64) error
}

// HeaderDocs is a Store rooted at a directory.
type HeaderDocs struct {
	dir string
}

func NewHeaderDocs(dir string) *HeaderDocs {
	return &HeaderDocs{dir: dir}
}

func (s *HeaderDocs) base(companyID int64) string {
	return filepath.Join(s.dir, "company_"+strconv.FormatInt(companyID, 10))
}

// Resolve returns the path of the company's header document, or
// ErrBlobNotFound.
func (s *HeaderDocs) Resolve(companyID int64) (string, error) {
	if companyID <= 0 {
		return "", ErrInvalidCompany
	}
	base := s.base(companyID)
	for _, ext := range extensions {
		p := base + ext
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", ErrBlobNotFound
}

// Save validates and stores content as the company's header document,
// replacing any previous one. The type is sniffed from the content; the
// uploaded file name only has to be present.
func (s *HeaderDocs) Save(_ context.Context, companyID int64, fileName string, content io.Reader) (*Metadata, error) {
	if companyID <= 0 {
		return nil, ErrInvalidCompany
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingFileName
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := AllowedContentTypes[contentType]
	if !ok {
		return nil, ErrInvalidContentType
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create header directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write header document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write header document: %w", err)
	}

	if err := s.Delete(companyID); err != nil && !errors.Is(err, ErrBlobNotFound) {
		return nil, err
	}
	dst := s.base(companyID) + ext
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("store header document: %w", err)
	}

	sum := sha256.Sum256(data)
	return &Metadata{
		CompanyID:   companyID,
		Path:        dst,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Delete removes every stored variant for the company.
func (s *HeaderDocs) Delete(companyID int64) error {
	if companyID <= 0 {
		return ErrInvalidCompany
	}
	removed := false
	base := s.base(companyID)
	for _, ext := range extensions {
		err := os.Remove(base + ext)
		if err == nil {
			removed = true
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove header document: %w", err)
		}
	}
	if !removed {
		return ErrBlobNotFound
	}
	return nil
}

// DataURI reads the file at path and returns it base64 encoded as a data
// URI with the MIME type implied by its extension.
func DataURI(path string) (string, error) {
	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", ErrInvalidContentType
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrBlobNotFound
		}
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Header is a resolved header document ready to embed.
type Header struct {
	ContentType string
	DataURI     string
}

// IsPDF reports whether the header must be embedded as an object rather
// than an image.
func (h *Header) IsPDF() bool {
	return h != nil && h.ContentType == "application/pdf"
}

// Embed resolves the company's header document and inlines it. A company
// without a document yields (nil, nil).
func Embed(s Store, companyID int64) (*Header, error) {
	path, err := s.Resolve(companyID)
	if errors.Is(err, ErrBlobNotFound) || errors.Is(err, ErrInvalidCompany) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	uri, err := DataURI(path)
	if err != nil {
		return nil, err
	}
	return &Header{ContentType: mimeByExt[strings.ToLower(filepath.Ext(path))], DataURI: uri}, nil
}
