package backup

import (
	"context"
	"fmt"
)

// Service writes backup files of the live database.
type Service struct {
	exporter *Exporter
	writer   *Writer
}

func NewService(exporter *Exporter, writer *Writer) *Service {
	return &Service{exporter: exporter, writer: writer}
}

// Backup exports the catalog and writes it to a new file.
func (s *Service) Backup(ctx context.Context) (string, error) {
	snap, err := s.exporter.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return s.writer.WriteFile(snap)
}

// Prune keeps the newest keep backup files.
func (s *Service) Prune(keep int) (int, error) {
	return s.writer.Prune(keep)
}

// Sealed reports whether files are written encrypted.
func (s *Service) Sealed() bool {
	return s.writer.Passphrase != ""
}

func (s *Service) List() ([]string, error) {
	return s.writer.List()
}
