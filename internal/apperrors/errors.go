package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrFolioNotFound indicates that a folio with the given ID does not exist.
	ErrFolioNotFound = errors.New("folio not found")

	// ErrSchemeNotFound indicates that a fund scheme with the given ID does not exist.
	ErrSchemeNotFound = errors.New("fund scheme not found")

	// ErrHoldingNotFound indicates that a holding with the given ID does not exist.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNAVNotFound indicates no NAV record for a specific scheme and date combination.
	ErrNAVNotFound = errors.New("nav record not found")

	// ErrSnapshotNotFound indicates no persisted snapshot row for the requested key.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Input-contract violations fail the single holding being processed; the
// orchestrator isolates them so other holdings still complete.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidTxnKind indicates a transaction kind outside the closed enumeration.
	ErrInvalidTxnKind = errors.New("invalid transaction kind")

	// ErrNonMonotonicLedger indicates transactions fed into the ledger out of
	// date order, which would corrupt FIFO cost basis.
	ErrNonMonotonicLedger = errors.New("transactions out of date order")

	// ErrNegativeAcquisition indicates an acquisition carrying a negative unit quantity.
	ErrNegativeAcquisition = errors.New("acquisition with negative quantity")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Operation failure errors represent system-level failures when retrieving
// or processing data.
var (
	ErrFailedToRetrievePortfolios  = errors.New("failed to retrieve portfolios")
	ErrFailedToRetrieveHoldings    = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveTransaction = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveNAVHistory  = errors.New("failed to retrieve nav history")
	ErrFailedToGetSummary          = errors.New("failed to get portfolio summary")
	ErrFailedToGetHistory          = errors.New("failed to get portfolio history")
	ErrFailedToRecompute           = errors.New("failed to recompute portfolio values")
	ErrFailedToRefreshNAV          = errors.New("failed to refresh nav history")
	ErrInvalidCSVHeaders           = errors.New("invalid CSV headers")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the data is in an inconsistent state
	// (e.g., a holding references a folio that does not exist).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
