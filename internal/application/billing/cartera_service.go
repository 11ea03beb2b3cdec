package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// upcomingWindowDays is the horizon of the "upcoming" cartera bucket
const upcomingWindowDays = 7

// CarteraService produces the arrears report: urgency-bucketed totals over
// open commitments and the paginated debtor list. Read-only.
type CarteraService struct {
	studentRepo    billing.StudentAccountRepository
	commitmentRepo billing.CommitmentRepository
}

// NewCarteraService creates a new CarteraService
func NewCarteraService(
	studentRepo billing.StudentAccountRepository,
	commitmentRepo billing.CommitmentRepository,
) *CarteraService {
	return &CarteraService{
		studentRepo:    studentRepo,
		commitmentRepo: commitmentRepo,
	}
}

// GetCarteraStats classifies open commitments into overdue, due-today,
// upcoming (next 7 days) and total-pending buckets. The four scans are
// independent and run concurrently; each sees the current committed state.
//
// Bucket boundaries are half-open [from, to) day ranges in UTC, the zone
// scheduled dates are stored in, so the three dated buckets partition every
// open commitment up to the horizon with no gap at midnight.
func (s *CarteraService) GetCarteraStats(ctx context.Context, tenantID uuid.UUID) (*CarteraSummary, error) {
	today := startOfDayUTC(time.Now())
	tomorrow := today.AddDate(0, 0, 1)
	horizon := tomorrow.AddDate(0, 0, upcomingWindowDays)

	scans := []struct {
		name     string
		from, to *time.Time
	}{
		{"overdue", nil, &today},
		{"today", &today, &tomorrow},
		{"upcoming", &tomorrow, &horizon},
		{"total", nil, nil},
	}

	buckets := make([]billing.CarteraBucket, len(scans))
	errs := make([]error, len(scans))

	var wg sync.WaitGroup
	for i, scan := range scans {
		wg.Add(1)
		go func(i int, name string, from, to *time.Time) {
			defer wg.Done()
			bucket, err := s.commitmentRepo.AggregateOpen(ctx, tenantID, from, to)
			if err != nil {
				errs[i] = fmt.Errorf("failed to aggregate %s bucket: %w", name, err)
				return
			}
			buckets[i] = bucket
		}(i, scan.name, scan.from, scan.to)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &CarteraSummary{
		TotalPendingAmount: buckets[3].Amount,
		TotalPendingCount:  buckets[3].Count,
		Overdue:            buckets[0],
		Today:              buckets[1],
		Upcoming:           buckets[2],
	}, nil
}

// GetDebts returns the paginated list of students with at least one open
// commitment. RemainingBalance is always computed from the payment ledger,
// never by summing commitment balances: installments beyond the next due one
// may not be materialized for accounts created before eager scheduling.
func (s *CarteraService) GetDebts(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) (*shared.Paginated[DebtorResponse], error) {
	filter := billing.DebtorFilter{Filter: shared.DefaultFilter()}
	if page > 0 {
		filter.Page = page
	}
	if limit > 0 {
		filter.PageSize = limit
	}
	filter.Search = strings.TrimSpace(search)

	records, err := s.studentRepo.FindDebtors(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find debtors: %w", err)
	}
	total, err := s.studentRepo.CountDebtors(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count debtors: %w", err)
	}

	now := time.Now()
	debtors := make([]DebtorResponse, 0, len(records))
	for _, record := range records {
		debtor := DebtorResponse{
			StudentAccountID:  record.StudentAccountID,
			StudentCode:       record.StudentCode,
			FullName:          record.FullName,
			ProgramID:         record.ProgramID,
			CurrentModule:     record.CurrentModule,
			TotalProgramValue: record.TotalProgramValue,
			TotalPaid:         record.TotalPaid,
			RemainingBalance:  record.TotalProgramValue.Sub(record.TotalPaid),
			LastPaymentDate:   record.LastPaymentDate,
			OverdueCount:      record.OverdueCount,
			OverdueAmount:     record.OverdueAmount,
		}
		if record.LastPaymentDate != nil {
			days := int(now.Sub(*record.LastPaymentDate).Hours() / 24)
			debtor.DaysSinceLastPayment = &days
		}
		debtors = append(debtors, debtor)
	}

	result := shared.NewPaginated(debtors, total, filter.Page, filter.PageSize)
	return &result, nil
}
