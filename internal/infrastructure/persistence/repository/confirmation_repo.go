package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// PaymentConfirmationRepository records payment confirmations reported by
// the external payment collaborator and implements port.PaymentProvider for
// the payment gate.
type PaymentConfirmationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentConfirmationRepository creates a new payment confirmation repository.
func NewPaymentConfirmationRepository(db *sql.DB, logger *zap.Logger) *PaymentConfirmationRepository {
	return &PaymentConfirmationRepository{
		db:     db,
		logger: logger,
	}
}

// Confirm records that fees for the application have been settled.
// Confirming twice is a no-op.
func (r *PaymentConfirmationRepository) Confirm(ctx context.Context, applicationID string) error {
	query := `INSERT OR IGNORE INTO payment_confirmations (application_id) VALUES (?)`
	if _, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, applicationID); err != nil {
		r.logger.Error("Failed to record payment confirmation",
			zap.String("application_id", applicationID), zap.Error(err))
		return fmt.Errorf("failed to record payment confirmation: %w", err)
	}
	return nil
}

// IsConfirmed implements port.PaymentProvider.
func (r *PaymentConfirmationRepository) IsConfirmed(ctx context.Context, applicationID string) (bool, error) {
	var count int
	err := sqlite.Executor(ctx, r.db).
		QueryRowContext(ctx, "SELECT COUNT(1) FROM payment_confirmations WHERE application_id = ?", applicationID).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check payment confirmation: %w", err)
	}
	return count > 0, nil
}

// DocumentVerificationRepository mirrors PaymentConfirmationRepository for
// the document verification collaborator and implements port.DocumentVerifier.
type DocumentVerificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentVerificationRepository creates a new document verification repository.
func NewDocumentVerificationRepository(db *sql.DB, logger *zap.Logger) *DocumentVerificationRepository {
	return &DocumentVerificationRepository{
		db:     db,
		logger: logger,
	}
}

// Verify records that the application's documents have been verified.
func (r *DocumentVerificationRepository) Verify(ctx context.Context, applicationID string) error {
	query := `INSERT OR IGNORE INTO document_verifications (application_id) VALUES (?)`
	if _, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, applicationID); err != nil {
		r.logger.Error("Failed to record document verification",
			zap.String("application_id", applicationID), zap.Error(err))
		return fmt.Errorf("failed to record document verification: %w", err)
	}
	return nil
}

// IsVerified implements port.DocumentVerifier.
func (r *DocumentVerificationRepository) IsVerified(ctx context.Context, applicationID string) (bool, error) {
	var count int
	err := sqlite.Executor(ctx, r.db).
		QueryRowContext(ctx, "SELECT COUNT(1) FROM document_verifications WHERE application_id = ?", applicationID).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check document verification: %w", err)
	}
	return count > 0, nil
}

// Verify interface compliance.
var (
	_ port.PaymentProvider  = (*PaymentConfirmationRepository)(nil)
	_ port.DocumentVerifier = (*DocumentVerificationRepository)(nil)
)
