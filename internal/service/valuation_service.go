package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/valuation"
)

// epoch is the "beginning of history" start date used when nothing narrows the window.
var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// maxParallelPortfolios caps the number of portfolios recomputed concurrently.
const maxParallelPortfolios = 4

// ValuationService orchestrates the recomputation pipeline: per holding it
// replays the transaction ledger, expands it into a dense daily series and
// persists the snapshots, then runs the folio and portfolio aggregation
// passes and finally the annualized return pass.
//
// Portfolios are independent and processed in parallel; holdings within one
// portfolio are processed sequentially under a per-portfolio lock so two
// overlapping runs never interleave writes for the same portfolio.
type ValuationService struct {
	holdingRepo      *repository.HoldingRepository
	transactionRepo  *repository.TransactionRepository
	navRepo          *repository.NAVRepository
	snapshotRepo     *repository.SnapshotRepository
	realizedGainRepo *repository.RealizedGainRepository

	portfolioLocks sync.Map // portfolio id -> *sync.Mutex

	// now is swappable in tests; valuation "today" is derived from it.
	now func() time.Time
}

// NewValuationService creates a new ValuationService with the provided repositories.
func NewValuationService(
	holdingRepo *repository.HoldingRepository,
	transactionRepo *repository.TransactionRepository,
	navRepo *repository.NAVRepository,
	snapshotRepo *repository.SnapshotRepository,
	realizedGainRepo *repository.RealizedGainRepository,
) *ValuationService {
	return &ValuationService{
		holdingRepo:      holdingRepo,
		transactionRepo:  transactionRepo,
		navRepo:          navRepo,
		snapshotRepo:     snapshotRepo,
		realizedGainRepo: realizedGainRepo,
		now:              time.Now,
	}
}

// SetClock overrides the time source. Intended for tests that need a fixed "today".
func (s *ValuationService) SetClock(now func() time.Time) {
	s.now = now
}

// Recompute runs the full pipeline for the requested scope and returns a
// report of what was written, skipped and flagged.
//
// The effective start date is the earliest of the per-holding dirty dates and
// the explicit/auto base date, so no changed transaction is ever missed. A
// failure in one holding is recorded in the report and does not abort the
// remaining holdings.
func (s *ValuationService) Recompute(ctx context.Context, req model.RecomputeRequest) (model.RecomputeReport, error) {
	report := model.RecomputeReport{
		RowsWritten:    make(map[string]int),
		FailedHoldings: make(map[string]string),
	}

	today := valuation.Day(s.now())
	start, err := s.resolveStartDate(req)
	if err != nil {
		return report, err
	}

	refs, err := s.holdingRepo.GetHoldingRefs(req.PortfolioID)
	if err != nil {
		return report, err
	}
	if len(refs) == 0 {
		return report, nil
	}

	byPortfolio := make(map[string][]model.HoldingRef)
	portfolioIDs := []string{}
	for _, ref := range refs {
		if _, seen := byPortfolio[ref.PortfolioID]; !seen {
			portfolioIDs = append(portfolioIDs, ref.PortfolioID)
		}
		byPortfolio[ref.PortfolioID] = append(byPortfolio[ref.PortfolioID], ref)
	}
	sort.Strings(portfolioIDs)

	var mu sync.Mutex
	aggFrom := today
	processed := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPortfolios)
	for _, portfolioID := range portfolioIDs {
		portfolioID := portfolioID
		holdings := byPortfolio[portfolioID]
		g.Go(func() error {
			lock := s.lockFor(portfolioID)
			lock.Lock()
			defer lock.Unlock()

			for _, ref := range holdings {
				if err := gctx.Err(); err != nil {
					return err
				}

				outcome, err := s.recomputeHolding(ref, start, req.DirtyHoldings, today)

				mu.Lock()
				switch {
				case err != nil:
					report.FailedHoldings[ref.HoldingID] = err.Error()
				case outcome.skipped:
					report.HoldingsSkipped = append(report.HoldingsSkipped, ref.HoldingID)
				default:
					report.RowsWritten[ref.HoldingID] = outcome.rowsWritten
					report.DataQuality = append(report.DataQuality, outcome.warnings...)
					if outcome.from.Before(aggFrom) {
						aggFrom = outcome.from
					}
					processed = true
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if processed {
		if err := s.aggregate(aggFrom, req.PortfolioID); err != nil {
			return report, err
		}
	}

	for _, portfolioID := range portfolioIDs {
		summary, err := s.computeReturns(portfolioID, byPortfolio[portfolioID])
		if err != nil {
			return report, fmt.Errorf("return pass for portfolio %s: %w", portfolioID, err)
		}
		if summary != nil {
			report.Portfolios = append(report.Portfolios, *summary)
		}
	}

	sort.Strings(report.HoldingsSkipped)
	return report, nil
}

// resolveStartDate merges the dirty-holding dates with the explicit or auto
// base date. Dirty dates narrow per holding later; here they only widen the
// aggregation window so every affected date is re-summed.
func (s *ValuationService) resolveStartDate(req model.RecomputeRequest) (time.Time, error) {
	fromDirty := epoch
	if len(req.DirtyHoldings) > 0 {
		first := true
		for _, d := range req.DirtyHoldings {
			day := valuation.Day(d)
			if first || day.Before(fromDirty) {
				fromDirty = day
				first = false
			}
		}
	}

	fromBase := epoch
	switch {
	case req.StartDate != nil:
		fromBase = valuation.Day(*req.StartDate)
	case req.Auto:
		latest, ok, err := s.snapshotRepo.GetLatestSchemeValueDate(req.PortfolioID)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			fromBase = latest.AddDate(0, 0, 1)
		}
	}

	if fromDirty.Before(fromBase) {
		return fromDirty, nil
	}
	return fromBase, nil
}

// holdingOutcome is the result of recomputing one holding.
type holdingOutcome struct {
	skipped     bool
	rowsWritten int
	from        time.Time
	warnings    []model.DataQualityFlag
}

// recomputeHolding replays one holding's full transaction history through the
// FIFO ledger, builds the daily snapshot series for the recompute window and
// persists it along with realized gains for disposals inside the window.
//
// The ledger always replays from the first transaction, never from a stored
// balance, so persisted snapshots can seed display continuity but can never
// corrupt cost basis.
func (s *ValuationService) recomputeHolding(ref model.HoldingRef, start time.Time, dirty map[string]time.Time, today time.Time) (holdingOutcome, error) {
	frm := start
	if d, ok := dirty[ref.HoldingID]; ok {
		frm = valuation.Day(d)
	}

	seed, err := s.snapshotRepo.GetLatestSchemeValueBefore(ref.HoldingID, frm)
	if err != nil {
		return holdingOutcome{}, err
	}

	txns, err := s.transactionRepo.GetTransactionsForHolding(ref.HoldingID)
	if err != nil {
		return holdingOutcome{}, err
	}

	split := sort.Search(len(txns), func(i int) bool {
		return !valuation.Day(txns[i].Date).Before(frm)
	})
	old, recent := txns[:split], txns[split:]

	// Without a pre-window snapshot there is nothing to anchor the window on,
	// so anchor it at the first transaction and replay the whole history. This
	// also keeps a first run with the default window from grinding out decades
	// of empty rows before the holding existed.
	if seed == nil && len(txns) > 0 {
		frm = valuation.Day(txns[0].Date)
		old, recent = nil, txns
	}

	if len(recent) == 0 && (seed == nil || !seed.Balance.GreaterThan(valuation.NegligibleUnits)) {
		return holdingOutcome{skipped: true}, nil
	}

	ledger := valuation.NewLedger()
	for _, t := range old {
		ledger.Apply(t)
	}
	preInvested, preAverage, preBalance := ledger.Invested, ledger.Average, ledger.Balance

	points := make([]valuation.ReplayPoint, 0, len(recent))
	gains := []model.RealizedGain{}
	warnings := []model.DataQualityFlag{}
	for _, t := range recent {
		before := len(ledger.Disposals)
		ledger.Apply(t)
		points = append(points, valuation.ReplayPoint{
			Date:     valuation.Day(t.Date),
			Invested: ledger.Invested,
			Average:  ledger.Average,
			Balance:  ledger.Balance,
		})

		if len(ledger.Disposals) > before {
			d := ledger.Disposals[len(ledger.Disposals)-1]
			gains = append(gains, model.RealizedGain{
				ID:        uuid.NewString(),
				HoldingID: ref.HoldingID,
				Date:      valuation.Day(t.Date),
				Units:     d.Units,
				CostBasis: d.CostBasis,
				Proceeds:  d.Proceeds,
				Gain:      d.Gain,
			})
			if d.Uncovered.IsPositive() {
				warnings = append(warnings, model.DataQualityFlag{
					HoldingID: ref.HoldingID,
					Date:      valuation.Day(t.Date).Format("2006-01-02"),
					Condition: fmt.Sprintf("sold %s units beyond available lots; uncovered units carry no cost basis", d.Uncovered),
				})
			}
		}
	}

	var gridSeed *model.SchemeValue
	if seed != nil || len(old) > 0 {
		seedNAV := decimal.Zero
		if seed != nil {
			seedNAV = seed.NAV
		}
		gridSeed = &model.SchemeValue{
			HoldingID: ref.HoldingID,
			Date:      frm,
			Invested:  preInvested,
			AvgNAV:    preAverage,
			Balance:   preBalance,
			NAV:       seedNAV,
		}
	}

	prices, err := s.navRepo.GetNAVHistory(ref.SchemeID, frm, today)
	if err != nil {
		return holdingOutcome{}, err
	}

	result, err := valuation.BuildDailySeries(valuation.GridInput{
		HoldingID:    ref.HoldingID,
		Seed:         gridSeed,
		Points:       points,
		FinalBalance: ledger.Balance,
		Prices:       prices,
		From:         frm,
		Today:        today,
	})
	if err != nil {
		return holdingOutcome{}, err
	}
	warnings = append(warnings, result.Warnings...)

	if result.Truncated {
		// The series now ends before today; rows beyond the end are stale.
		// Ancestor aggregates past the cutoff are rebuilt by the aggregation
		// pass from whatever sibling holdings still justify.
		if err := s.snapshotRepo.DeleteSchemeValuesAfter(ref.HoldingID, result.To); err != nil {
			return holdingOutcome{}, err
		}
		if err := s.snapshotRepo.DeleteFolioValuesAfter(ref.FolioID, result.To); err != nil {
			return holdingOutcome{}, err
		}
		if err := s.snapshotRepo.DeletePortfolioValuesAfter(ref.PortfolioID, result.To); err != nil {
			return holdingOutcome{}, err
		}
	}

	for i := range result.Rows {
		result.Rows[i].ID = uuid.NewString()
	}
	written, err := s.snapshotRepo.UpsertSchemeValues(result.Rows)
	if err != nil {
		return holdingOutcome{}, err
	}

	if err := s.realizedGainRepo.DeleteRealizedGainsFrom(ref.HoldingID, frm); err != nil {
		return holdingOutcome{}, err
	}
	if err := s.realizedGainRepo.CreateRealizedGains(gains); err != nil {
		return holdingOutcome{}, err
	}

	return holdingOutcome{
		rowsWritten: written,
		from:        frm,
		warnings:    warnings,
	}, nil
}

// aggregate runs the two roll-up passes over materialized tuples: scheme
// snapshots sum into folio rows, folio rows sum into portfolio rows. Each
// pass reads only what the previous pass persisted, so the aggregation law
// (parent equals sum of children per date) holds by construction.
func (s *ValuationService) aggregate(from time.Time, portfolioID string) error {
	schemeTuples, err := s.snapshotRepo.GetSchemeValueTuples(from, portfolioID)
	if err != nil {
		return err
	}
	folioRows := valuation.Aggregate(schemeTuples)

	folioValues := make([]model.FolioValue, len(folioRows))
	for i, r := range folioRows {
		folioValues[i] = model.FolioValue{
			ID:       uuid.NewString(),
			FolioID:  r.ParentID,
			Date:     r.Date,
			Invested: r.Invested,
			Value:    r.Value,
		}
	}
	if _, err := s.snapshotRepo.UpsertFolioValues(folioValues); err != nil {
		return err
	}

	folioTuples, err := s.snapshotRepo.GetFolioValueTuples(from, portfolioID)
	if err != nil {
		return err
	}
	portfolioRows := valuation.Aggregate(folioTuples)

	portfolioValues := make([]model.PortfolioValue, len(portfolioRows))
	for i, r := range portfolioRows {
		portfolioValues[i] = model.PortfolioValue{
			ID:          uuid.NewString(),
			PortfolioID: r.ParentID,
			Date:        r.Date,
			Invested:    r.Invested,
			Value:       r.Value,
		}
	}
	if _, err := s.snapshotRepo.UpsertPortfolioValues(portfolioValues); err != nil {
		return err
	}

	return nil
}

// computeReturns runs the annualized return pass for one portfolio.
//
// The full rate covers every transaction ever recorded plus the latest
// portfolio value as terminal flow. The live rate restricts flows to holdings
// with a positive current market value, answering "how is what I still hold
// performing". Each live holding also gets its own rate and current valuation
// stamped on the holding row. A rate that cannot be computed is stored as
// NULL, never as zero.
func (s *ValuationService) computeReturns(portfolioID string, refs []model.HoldingRef) (*model.ReturnSummary, error) {
	latest, err := s.snapshotRepo.GetLatestPortfolioValue(portfolioID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}

	holdingIDs := make([]string, len(refs))
	for i, ref := range refs {
		holdingIDs[i] = ref.HoldingID
	}
	txnsByHolding, err := s.transactionRepo.GetTransactionsForHoldings(holdingIDs)
	if err != nil {
		return nil, err
	}

	fullFlows := []valuation.CashFlow{}
	liveFlows := []valuation.CashFlow{}
	liveValue := decimal.Zero

	for _, ref := range refs {
		sv, err := s.snapshotRepo.GetLatestSchemeValue(ref.HoldingID)
		if err != nil {
			return nil, err
		}
		live := sv != nil && sv.Balance.GreaterThan(valuation.NegligibleUnits) && sv.Value.IsPositive()

		holdingFlows := []valuation.CashFlow{}
		for _, t := range txnsByHolding[ref.HoldingID] {
			if !t.Amount.Valid {
				continue
			}
			amount, _ := t.Amount.Decimal.Float64()
			// Money paid in is an outflow from the investor's pocket.
			flow := valuation.CashFlow{Date: t.Date, Amount: -amount}
			fullFlows = append(fullFlows, flow)
			if live {
				liveFlows = append(liveFlows, flow)
				holdingFlows = append(holdingFlows, flow)
			}
		}

		if sv == nil {
			continue
		}
		if live {
			liveValue = liveValue.Add(sv.Value)
			value, _ := sv.Value.Float64()
			rate, ok := valuation.XIRR(append(holdingFlows, valuation.CashFlow{Date: sv.Date, Amount: value}))
			var ratePtr *float64
			if ok {
				ratePtr = &rate
			}
			if err := s.holdingRepo.UpdateHoldingValuation(ref.HoldingID, sv.Value, ratePtr, sv.Date); err != nil {
				return nil, err
			}
		} else {
			if err := s.holdingRepo.UpdateHoldingValuation(ref.HoldingID, decimal.Zero, nil, sv.Date); err != nil {
				return nil, err
			}
		}
	}

	terminal, _ := latest.Value.Float64()
	fullRate, fullOK := valuation.XIRR(append(fullFlows, valuation.CashFlow{Date: latest.Date, Amount: terminal}))

	liveTerminal, _ := liveValue.Float64()
	liveRate, liveOK := valuation.XIRR(append(liveFlows, valuation.CashFlow{Date: latest.Date, Amount: liveTerminal}))

	var fullPtr, livePtr *float64
	if fullOK {
		fullPtr = &fullRate
	}
	if liveOK {
		livePtr = &liveRate
	}

	if err := s.snapshotRepo.UpdatePortfolioXIRR(portfolioID, latest.Date, fullPtr, livePtr); err != nil {
		return nil, err
	}

	return &model.ReturnSummary{
		PortfolioID: portfolioID,
		Invested:    latest.Invested.String(),
		Value:       latest.Value.String(),
		XIRRFull:    fullPtr,
		XIRRLive:    livePtr,
		AsOfDate:    latest.Date,
	}, nil
}

// GetRealizedGains returns the realized gain records of one holding.
func (s *ValuationService) GetRealizedGains(holdingID string) ([]model.RealizedGain, error) {
	if _, err := s.holdingRepo.GetHolding(holdingID); err != nil {
		return nil, err
	}
	return s.realizedGainRepo.GetRealizedGains(holdingID)
}

func (s *ValuationService) lockFor(portfolioID string) *sync.Mutex {
	l, _ := s.portfolioLocks.LoadOrStore(portfolioID, &sync.Mutex{})
	return l.(*sync.Mutex)
}
