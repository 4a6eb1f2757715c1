package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
)

// MakeFernetKey generates a fresh PAN encryption key for tests.
func MakeFernetKey(t *testing.T) *fernet.Key {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return &key
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewFolioRepository(db, MakeFernetKey(t)),
		repository.NewSchemeRepository(db),
		repository.NewHoldingRepository(db),
		repository.NewSnapshotRepository(db),
	)
}

func NewTestValuationService(t *testing.T, db *sql.DB) *service.ValuationService {
	t.Helper()

	return service.NewValuationService(
		repository.NewHoldingRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewNAVRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewRealizedGainRepository(db),
	)
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewHoldingRepository(db),
	)
}

func NewTestNAVService(t *testing.T, db *sql.DB, feed service.NAVFeed) *service.NAVService {
	t.Helper()

	return service.NewNAVService(
		repository.NewSchemeRepository(db),
		repository.NewNAVRepository(db),
		feed,
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
func MakeID() string {
	return uuid.New().String()
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
