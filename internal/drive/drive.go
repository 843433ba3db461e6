package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"

	"github.com/interh852/lunch-order/internal/errors"
)

const (
	pdfMIME  = "application/pdf"
	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// File is one Drive file the workflow cares about.
type File struct {
	ID   string
	Name string
}

// Service wraps the Drive API for this workflow.
type Service struct {
	svc *drive.Service
	log *zap.SugaredLogger
}

// NewService wires the service to an authenticated Drive client.
func NewService(svc *drive.Service, log *zap.SugaredLogger) *Service {
	return &Service{svc: svc, log: log.Named("drive")}
}

// ListUnprocessedMenuPDFs returns the menu PDFs in a folder that have not
// been extracted yet, sorted by name so months process in order.
func (s *Service) ListUnprocessedMenuPDFs(ctx context.Context, folderID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", folderID, pdfMIME)
	resp, err := s.svc.Files.List().Q(query).Fields("files(id, name)").PageSize(100).Context(ctx).Do()
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}

	var files []File
	for _, f := range resp.Files {
		if HasProcessedSuffix(f.Name) {
			continue
		}
		files = append(files, File{ID: f.Id, Name: f.Name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Download fetches a file's content.
func (s *Service) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}
	return data, nil
}

// Rename changes a file's name, used to stamp menu PDFs as processed.
func (s *Service) Rename(ctx context.Context, fileID, newName string) error {
	_, err := s.svc.Files.Update(fileID, &drive.File{Name: newName}).Context(ctx).Do()
	if err != nil {
		return errors.NewExternalCall("drive", err)
	}
	return nil
}

// SavePDF stores a PDF into a folder and returns the new file id.
func (s *Service) SavePDF(ctx context.Context, folderID, name string, data []byte) (string, error) {
	created, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: pdfMIME,
	}).Media(bytes.NewReader(data)).Context(ctx).Do()
	if err != nil {
		return "", errors.NewExternalCall("drive", err)
	}
	s.log.Infow("pdf saved", "name", name, "id", created.Id)
	return created.Id, nil
}

// FindOrderCard locates the order-card spreadsheet for a YYYY.MM month key
// by its conventional name.
func (s *Service) FindOrderCard(ctx context.Context, folderID, yearMonth string) (File, error) {
	name := OrderCardName(yearMonth)
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false",
		folderID, strings.ReplaceAll(name, "'", `\'`))
	resp, err := s.svc.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return File{}, errors.NewExternalCall("drive", err)
	}
	if len(resp.Files) == 0 {
		return File{}, errors.NewNotFound(name)
	}
	return File{ID: resp.Files[0].Id, Name: resp.Files[0].Name}, nil
}

// ExportXLSX exports a spreadsheet file as Excel for email attachment.
func (s *Service) ExportXLSX(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.svc.Files.Export(fileID, xlsxMIME).Context(ctx).Download()
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalCall("drive", err)
	}
	return data, nil
}
