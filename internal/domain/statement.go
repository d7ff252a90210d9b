package domain

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// StatementMetadata identifies a batch of decisions for persistence and retrieval
type StatementMetadata struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	User          string `json:"user"`
	StatementName string `json:"statementName"`
}

// Validate checks the metadata fields. When users is non-empty the user must be one of them.
func (m StatementMetadata) Validate(users []string) error {
	if m.Year < 1900 || m.Year > 2100 {
		return &ValidationError{Field: "year", Message: "must be between 1900 and 2100"}
	}
	if m.Month < 1 || m.Month > 12 {
		return &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if err := ValidateUser(m.User, users); err != nil {
		return err
	}
	if strings.TrimSpace(m.StatementName) == "" {
		return &ValidationError{Field: "statementName", Message: "is required"}
	}
	return nil
}

// ValidateUser checks that user is present and, when users is non-empty, listed in it
func ValidateUser(user string, users []string) error {
	if strings.TrimSpace(user) == "" {
		return &ValidationError{Field: "user", Message: "is required"}
	}
	if len(users) > 0 && !slices.Contains(users, user) {
		return &ValidationError{Field: "user", Message: "is not a configured user"}
	}
	return nil
}

// StatementArchive retains the raw normalised statement that produced a decision batch
type StatementArchive interface {
	Store(ctx context.Context, meta StatementMetadata, content []byte) (string, error)
}

// UploadStatus is the terminal state of an uploaded statement
type UploadStatus string

const (
	// UploadStatusPersisted means every line resolved and the batch was written
	UploadStatusPersisted UploadStatus = "persisted"
	// UploadStatusAwaitingMapping means some merchants are unknown; nothing was written
	UploadStatusAwaitingMapping UploadStatus = "awaiting_mapping"
)

// StatementUpload is a normalised statement: one yyyy-mm-dd,merchant,amount record per line
type StatementUpload struct {
	Metadata StatementMetadata
	Lines    []string
}

// UploadResult describes what happened to an uploaded statement
type UploadResult struct {
	BatchID          uuid.UUID
	Status           UploadStatus
	Metadata         StatementMetadata
	Decisions        []Decision
	UnknownMerchants []string
	MappingVersion   int
	ArchiveKey       string
}
