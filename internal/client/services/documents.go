package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/Grupo-Cloud/frontend/internal/filex"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// UploadFile is a local file that passed validation.
type UploadFile struct {
	Name    string
	Type    models.FileType
	Content []byte
	// Pages is set for PDFs.
	Pages int
}

type DocumentService interface {
	// Prepare reads and validates a local file for upload.
	Prepare(path string) (*UploadFile, error)
	Upload(ctx context.Context, userID uuid.UUID, f *UploadFile) (*models.Document, error)
	Delete(ctx context.Context, userID, documentID uuid.UUID) error
}

type documentService struct {
	client  Doer
	maxSize int64
}

func NewDocumentService(client Doer, maxSize int64) DocumentService {
	return &documentService{client: client, maxSize: maxSize}
}

func (s *documentService) Prepare(path string) (*UploadFile, error) {
	name := filepath.Base(path)
	ft := models.FileTypeFromName(name)
	if ft == models.FileTypeUnknown {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFileType)
	}

	content, err := filex.ReadFileLimit(path, s.maxSize)
	if err != nil {
		if errors.Is(err, filex.ErrTooLarge) {
			return nil, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrFileTooLarge, s.maxSize)
		}
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	f := &UploadFile{Name: name, Type: ft, Content: content}
	switch ft {
	case models.FileTypePDF:
		pages, err := pdfPages(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrCorruptDocument, err)
		}
		f.Pages = pages
	case models.FileTypeDOCX:
		if err := checkDocx(path); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrCorruptDocument, err)
		}
	}
	return f, nil
}

// pdfPages opens the PDF and counts its pages. The parser panics on some
// malformed inputs, so panics are turned into errors.
func pdfPages(path string) (pages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf parser: %v", p)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pages = r.NumPage()
	if pages == 0 {
		return 0, errors.New("no pages")
	}
	return pages, nil
}

func checkDocx(path string) error {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if r.Editable().GetContent() == "" {
		return errors.New("no document body")
	}
	return nil
}

func (s *documentService) Upload(ctx context.Context, userID uuid.UUID, f *UploadFile) (*models.Document, error) {
	req, err := api.NewMultipartRequest(http.MethodPost, "/users/"+userID.String()+"/documents",
		"upload_file", f.Name, f.Type.MIME(), f.Content)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := doJSON(ctx, s.client, req, &doc); err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return &doc, nil
}

func (s *documentService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	req := api.NewRequest(http.MethodDelete, "/users/"+userID.String()+"/documents/"+documentID.String())
	if err := doJSON(ctx, s.client, req, nil); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
