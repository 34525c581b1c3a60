package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"twolaunch/internal/models"
)

// BackupVersion identifies the export layout
const BackupVersion = "1.0"

// AccountLister lists every account
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]models.AccountSummary, error)
}

// BackupData represents a registrations export. Password hashes and session
// tokens are never included.
type BackupData struct {
	Version       string                  `json:"version"`
	ExportedAt    time.Time               `json:"exported_at"`
	DatabaseType  string                  `json:"database_type"`
	Registrations []models.AccountSummary `json:"registrations"`
}

// BackupService exports registrations as JSON
type BackupService struct {
	accounts     AccountLister
	databaseType string
}

// NewBackupService creates a new backup service
func NewBackupService(accounts AccountLister, databaseType string) *BackupService {
	return &BackupService{accounts: accounts, databaseType: databaseType}
}

// Export writes the backup to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	if err := s.ExportToWriter(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ExportToWriter writes the backup as indented JSON to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	registrations, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to export registrations: %w", err)
	}

	backup := BackupData{
		Version:       BackupVersion,
		ExportedAt:    time.Now().UTC(),
		DatabaseType:  s.databaseType,
		Registrations: registrations,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}
