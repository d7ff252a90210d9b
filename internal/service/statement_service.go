package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StatementService takes uploaded statements through parsing, categorisation and persistence
type StatementService struct {
	decider        *StatementDecider
	mappings       *MappingService
	decisionStore  domain.DecisionStore
	schema         domain.CategorySchema
	users          []string
	archive        domain.StatementArchive
	eventPublisher websocket.EventPublisher
}

// NewStatementService creates a new StatementService. When users is non-empty,
// statements are only accepted, and decisions only read, for those users.
func NewStatementService(
	decider *StatementDecider,
	mappings *MappingService,
	decisionStore domain.DecisionStore,
	schema domain.CategorySchema,
	users []string,
) *StatementService {
	return &StatementService{
		decider:        decider,
		mappings:       mappings,
		decisionStore:  decisionStore,
		schema:         schema,
		users:          users,
		eventPublisher: &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *StatementService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetArchive sets where raw statements are retained once their decisions are persisted
func (s *StatementService) SetArchive(archive domain.StatementArchive) {
	s.archive = archive
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *StatementService) publishEvent(user string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(user, event)
	}
}

// Upload parses and decides a statement against the current mapping snapshot.
// When every line resolves the decisions are written and the result is persisted.
// Otherwise nothing is written and the result lists the unknown merchants.
func (s *StatementService) Upload(ctx context.Context, upload domain.StatementUpload) (*domain.UploadResult, error) {
	meta := upload.Metadata
	if err := meta.Validate(s.users); err != nil {
		return nil, err
	}

	lines, err := ParseLines(upload.Lines)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Message: "statement has no transactions"}
	}

	snapshot, err := s.mappings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	decisions := s.decider.Process(lines, snapshot.Mappings)
	result := &domain.UploadResult{
		BatchID:        uuid.New(),
		Metadata:       meta,
		Decisions:      decisions,
		MappingVersion: snapshot.Version,
	}

	if unknown := unknownMerchants(decisions); len(unknown) > 0 {
		result.Status = domain.UploadStatusAwaitingMapping
		result.UnknownMerchants = unknown

		log.Info().
			Str("user", meta.User).
			Int("year", meta.Year).
			Int("month", meta.Month).
			Str("batch_id", result.BatchID.String()).
			Int("unknown_merchants", len(unknown)).
			Msg("Statement awaiting mapping")

		s.publishEvent(meta.User, websocket.StatementAwaitingMapping(map[string]interface{}{
			"batchId":          result.BatchID.String(),
			"year":             meta.Year,
			"month":            meta.Month,
			"statementName":    meta.StatementName,
			"unknownMerchants": unknown,
		}))
		return result, nil
	}

	if err := s.persist(ctx, meta, decisions); err != nil {
		return nil, err
	}
	result.Status = domain.UploadStatusPersisted
	result.ArchiveKey = s.archiveStatement(ctx, meta, upload.Lines)
	return result, nil
}

// SubmitDecisions writes a user-reviewed batch, replacing whatever is stored for
// the metadata's (year, month, user). Every decision must be resolved to a
// category and subcategory of the schema.
func (s *StatementService) SubmitDecisions(ctx context.Context, meta domain.StatementMetadata, decisions []domain.Decision) error {
	if err := meta.Validate(s.users); err != nil {
		return err
	}
	if len(decisions) == 0 {
		return &domain.ValidationError{Field: "decisions", Message: "must not be empty"}
	}

	for i, d := range decisions {
		field := fmt.Sprintf("decisions[%d]", i)
		res, ok := d.Resolved()
		if !ok {
			return &domain.ValidationError{Field: field, Message: "must have a category and subcategory"}
		}
		category, ok := domain.FindCategory(s.schema, res.Category)
		if !ok {
			return &domain.ValidationError{Field: field, Message: fmt.Sprintf("%q is not a known category", res.Category)}
		}
		if !category.HasSubCategory(res.SubCategory) {
			return &domain.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a subcategory of %q", res.SubCategory, res.Category),
			}
		}
	}

	return s.persist(ctx, meta, decisions)
}

// Decisions returns the batch stored for (year, month, user); empty when none is
func (s *StatementService) Decisions(ctx context.Context, year, month int, user string) ([]domain.Decision, error) {
	if month < 1 || month > 12 {
		return nil, &domain.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if err := domain.ValidateUser(user, s.users); err != nil {
		return nil, err
	}

	decisions, err := s.decisionStore.Read(ctx, year, month, user)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	return decisions, nil
}

func (s *StatementService) persist(ctx context.Context, meta domain.StatementMetadata, decisions []domain.Decision) error {
	if err := s.decisionStore.Write(ctx, meta, decisions); err != nil {
		return fmt.Errorf("write decisions: %w", err)
	}

	log.Info().
		Str("user", meta.User).
		Int("year", meta.Year).
		Int("month", meta.Month).
		Str("statement", meta.StatementName).
		Int("count", len(decisions)).
		Msg("Decisions persisted")

	s.publishEvent(meta.User, websocket.DecisionsPersisted(map[string]interface{}{
		"year":          meta.Year,
		"month":         meta.Month,
		"statementName": meta.StatementName,
		"count":         len(decisions),
	}))
	return nil
}

// archiveStatement stores the raw lines and returns the archive key. The
// decisions are already persisted, so a failure here is only logged.
func (s *StatementService) archiveStatement(ctx context.Context, meta domain.StatementMetadata, lines []string) string {
	if s.archive == nil {
		return ""
	}

	content := []byte(strings.Join(lines, "\n") + "\n")
	key, err := s.archive.Store(ctx, meta, content)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user", meta.User).
			Str("statement", meta.StatementName).
			Msg("Failed to archive statement")
		return ""
	}
	return key
}
