// file: internals/features/finance/fee_ledgers/service/ledger_service.go
package service

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/finerr"
	penaltyModel "feeledger_backend/internals/features/finance/penalties/model"
	penaltyService "feeledger_backend/internals/features/finance/penalties/service"
	helper "feeledger_backend/internals/helpers"
	"feeledger_backend/internals/metrics"
)

// ConfigSource: lookup config denda aktif per tahun ajaran (live, tanpa cache).
type ConfigSource interface {
	GetActive(ctx context.Context, tx *gorm.DB, academicYear string) (*penaltyModel.PenaltyConfig, error)
}

type LedgerService struct {
	DB      *gorm.DB
	Configs ConfigSource
	Now     func() time.Time
}

func NewLedgerService(db *gorm.DB, configs ConfigSource) *LedgerService {
	return &LedgerService{DB: db, Configs: configs, Now: time.Now}
}

func (s *LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* =======================================================
   CREATE
======================================================= */

type CreateLedgerInput struct {
	StudentRef   string
	AcademicYear string
	Semester     int
	Breakdown    model.FeeBreakdown
	DueDate      time.Time
}

func validateBreakdown(b model.FeeBreakdown) error {
	if len(b) == 0 {
		return finerr.InvalidInput("fee breakdown must contain at least one category")
	}
	allowed := make(map[string]bool, len(model.FeeCategories))
	for _, c := range model.FeeCategories {
		allowed[c] = true
	}
	var sum int64
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !allowed[k] {
			return finerr.InvalidInput("unknown fee category %q", k)
		}
		if b[k] < 0 {
			return finerr.InvalidAmount("fee category %s must not be negative", k)
		}
		if b[k] > math.MaxInt64-sum {
			return finerr.InvalidAmount("fee breakdown total exceeds %d", int64(math.MaxInt64))
		}
		sum += b[k]
	}
	return nil
}

func (s *LedgerService) Create(ctx context.Context, in CreateLedgerInput) (*model.FeeLedger, error) {
	in.StudentRef = strings.TrimSpace(in.StudentRef)
	in.AcademicYear = strings.TrimSpace(in.AcademicYear)
	switch {
	case in.StudentRef == "":
		return nil, finerr.InvalidInput("student ref is required")
	case in.AcademicYear == "":
		return nil, finerr.InvalidInput("academic year is required")
	case in.Semester < 1:
		return nil, finerr.InvalidInput("semester must be >= 1")
	case in.DueDate.IsZero():
		return nil, finerr.InvalidInput("due date is required")
	}
	if err := validateBreakdown(in.Breakdown); err != nil {
		return nil, err
	}

	now := s.now()
	l := &model.FeeLedger{
		FeeLedgerStudentRef:   in.StudentRef,
		FeeLedgerAcademicYear: in.AcademicYear,
		FeeLedgerSemester:     in.Semester,
		FeeLedgerBreakdown:    datatypes.NewJSONType(in.Breakdown),
		FeeLedgerTotalAmount:  in.Breakdown.Total(),
		FeeLedgerDueDate:      in.DueDate.UTC(),
		FeeLedgerVersion:      1,
		FeeLedgerCreatedAt:    now,
		FeeLedgerUpdatedAt:    now,
	}
	Recompute(l, now)

	db := s.DB.WithContext(ctx)
	var exists int64
	if err := db.Model(&model.FeeLedger{}).
		Where("fee_ledger_student_ref = ? AND fee_ledger_academic_year = ? AND fee_ledger_semester = ?",
			in.StudentRef, in.AcademicYear, in.Semester).
		Count(&exists).Error; err != nil {
		return nil, errors.Wrap(err, "check existing fee ledger")
	}
	if exists > 0 {
		return nil, finerr.DuplicateLedger(in.StudentRef, in.AcademicYear, in.Semester)
	}

	// unique index tetap jadi penjaga terakhir kalau dua create balapan
	if err := db.Omit(clause.Associations).Create(l).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, finerr.DuplicateLedger(in.StudentRef, in.AcademicYear, in.Semester)
		}
		return nil, errors.Wrap(err, "create fee ledger")
	}
	log.Printf("[FEE-LEDGER] created id=%s student=%s year=%s sem=%d total=%d",
		l.FeeLedgerID, l.FeeLedgerStudentRef, l.FeeLedgerAcademicYear, l.FeeLedgerSemester, l.FeeLedgerTotalAmount)
	return l, nil
}

/* =======================================================
   READ
======================================================= */

func (s *LedgerService) Get(ctx context.Context, id uuid.UUID, withHistory bool) (*model.FeeLedger, error) {
	q := s.DB.WithContext(ctx)
	if withHistory {
		q = q.Preload("PaymentHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_record_seq ASC")
		})
	}
	var l model.FeeLedger
	if err := q.Take(&l, "fee_ledger_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finerr.NotFound("fee ledger %s not found", id)
		}
		return nil, errors.Wrap(err, "load fee ledger")
	}
	// status overdue bergantung waktu baca
	Recompute(&l, s.now())
	return &l, nil
}

type ListFilter struct {
	StudentRef   string
	AcademicYear string
	Semester     *int
	Status       string
	Order        string
	Limit        int
	Offset       int
}

// statusScope menerjemahkan status ke predikat atas kolom input (paid, due, due_date),
// bukan fee_ledger_status tersimpan yang bisa basi setelah lewat jatuh tempo.
// Harus sejalan dengan DeriveStatus.
func statusScope(status model.FeeLedgerStatus, now time.Time) (func(*gorm.DB) *gorm.DB, error) {
	now = now.UTC()
	switch status {
	case model.FeeLedgerStatusPaid:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fee_ledger_due_amount = 0 AND fee_ledger_paid_amount > 0")
		}, nil
	case model.FeeLedgerStatusPartiallyPaid:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fee_ledger_paid_amount > 0 AND fee_ledger_paid_amount < fee_ledger_total_amount + fee_ledger_penalty_amount")
		}, nil
	case model.FeeLedgerStatusOverdue:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fee_ledger_paid_amount = 0 AND fee_ledger_due_amount > 0 AND fee_ledger_due_date < ?", now)
		}, nil
	case model.FeeLedgerStatusPending:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fee_ledger_paid_amount = 0 AND (fee_ledger_due_amount = 0 OR fee_ledger_due_date >= ?)", now)
		}, nil
	}
	return nil, finerr.InvalidInput("unknown fee ledger status %q", status)
}

func (s *LedgerService) List(ctx context.Context, f ListFilter) ([]model.FeeLedger, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.FeeLedger{})
	if v := strings.TrimSpace(f.StudentRef); v != "" {
		q = q.Where("fee_ledger_student_ref = ?", v)
	}
	if v := strings.TrimSpace(f.AcademicYear); v != "" {
		q = q.Where("fee_ledger_academic_year = ?", v)
	}
	if f.Semester != nil {
		q = q.Where("fee_ledger_semester = ?", *f.Semester)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		scope, err := statusScope(model.FeeLedgerStatus(strings.ToLower(v)), s.now())
		if err != nil {
			return nil, 0, err
		}
		q = q.Scopes(scope)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count fee ledgers")
	}
	if f.Order != "" {
		q = q.Order(f.Order)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []model.FeeLedger
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list fee ledgers")
	}
	now := s.now()
	for i := range out {
		Recompute(&out[i], now)
	}
	return out, total, nil
}

func (s *LedgerService) History(ctx context.Context, id uuid.UUID) ([]model.PaymentRecord, error) {
	if _, err := s.Get(ctx, id, false); err != nil {
		return nil, err
	}
	var out []model.PaymentRecord
	if err := s.DB.WithContext(ctx).
		Where("payment_record_fee_ledger_id = ?", id).
		Order("payment_record_seq ASC").
		Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list payment history")
	}
	return out, nil
}

/* =======================================================
   PENALTY
======================================================= */

// ApplyPenalty menghitung ulang denda ledger per asOf dengan config aktif tahun ajarannya.
// Idempoten: asOf & config yang sama → penalty sama (replace, bukan akumulasi).
func (s *LedgerService) ApplyPenalty(ctx context.Context, id uuid.UUID, asOf time.Time) (*model.FeeLedger, error) {
	var out *model.FeeLedger
	err := withVersionRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			l, changed, err := s.applyPenaltyTx(ctx, tx, id, asOf)
			if err != nil {
				return err
			}
			if changed {
				metrics.PenaltyUpdatesTotal.WithLabelValues("updated").Inc()
			} else {
				metrics.PenaltyUpdatesTotal.WithLabelValues("unchanged").Inc()
			}
			out = l
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LedgerService) applyPenaltyTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, asOf time.Time) (*model.FeeLedger, bool, error) {
	l, err := lockLedger(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	Recompute(l, now)

	// paid = terminal, tidak dikenakan denda lagi
	if l.FeeLedgerStatus == model.FeeLedgerStatusPaid {
		return l, false, nil
	}
	days := DaysOverdue(l.FeeLedgerDueDate, asOf)
	if days <= 0 {
		return l, false, nil
	}

	cfg, err := s.Configs.GetActive(ctx, tx, l.FeeLedgerAcademicYear)
	if err != nil {
		return nil, false, err
	}
	penalty, err := penaltyService.Calculate(l.FeeLedgerTotalAmount, days, *cfg)
	if err != nil {
		return nil, false, err
	}

	before := *l
	setPenalty(l, penalty, asOf.UTC(), now)
	if before.FeeLedgerPenaltyAmount == l.FeeLedgerPenaltyAmount &&
		before.FeeLedgerDueAmount == l.FeeLedgerDueAmount &&
		before.FeeLedgerStatus == l.FeeLedgerStatus &&
		before.FeeLedgerIsOverdue == l.FeeLedgerIsOverdue {
		*l = before
		return l, false, nil
	}

	if err := saveLedger(ctx, tx, l, now); err != nil {
		return nil, false, err
	}
	log.Printf("[FEE-LEDGER] penalty applied id=%s days=%d penalty=%d due=%d status=%s",
		l.FeeLedgerID, days, l.FeeLedgerPenaltyAmount, l.FeeLedgerDueAmount, l.FeeLedgerStatus)
	return l, true, nil
}

type RecomputeSummary struct {
	AsOf    time.Time `json:"as_of"`
	Scanned int       `json:"scanned"`
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
}

const recomputeBatchSize = 200

// DefaultRecomputeTimeout: batas satu putaran RecomputeOverdue (cron maupun admin).
const DefaultRecomputeTimeout = 30 * time.Minute

// RecomputeOverdue: jalan ke semua ledger belum lunas yang lewat jatuh tempo per asOf.
// Tiap ledger di transaksi sendiri; ledger tanpa config aktif dilewati.
func (s *LedgerService) RecomputeOverdue(ctx context.Context, asOf time.Time) (RecomputeSummary, error) {
	sum := RecomputeSummary{AsOf: asOf.UTC()}
	var lastID uuid.UUID
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		q := s.DB.WithContext(ctx).Model(&model.FeeLedger{}).
			Where("fee_ledger_due_date < ? AND fee_ledger_status <> ?", asOf.UTC(), model.FeeLedgerStatusPaid)
		if !first {
			q = q.Where("fee_ledger_id > ?", lastID)
		}
		var ids []uuid.UUID
		if err := q.Order("fee_ledger_id ASC").Limit(recomputeBatchSize).Pluck("fee_ledger_id", &ids).Error; err != nil {
			return sum, errors.Wrap(err, "scan overdue fee ledgers")
		}
		if len(ids) == 0 {
			return sum, nil
		}
		first = false
		lastID = ids[len(ids)-1]

		for _, id := range ids {
			sum.Scanned++
			changed := false
			err := withVersionRetry(ctx, func() error {
				return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
					_, c, err := s.applyPenaltyTx(ctx, tx, id, asOf)
					changed = c
					return err
				})
			})
			switch {
			case err == nil && changed:
				sum.Updated++
				metrics.PenaltyUpdatesTotal.WithLabelValues("updated").Inc()
			case err == nil:
				metrics.PenaltyUpdatesTotal.WithLabelValues("unchanged").Inc()
			case errors.Is(err, finerr.ErrNotFound):
				sum.Skipped++
				metrics.PenaltyUpdatesTotal.WithLabelValues("skipped").Inc()
			default:
				sum.Failed++
				metrics.PenaltyUpdatesTotal.WithLabelValues("failed").Inc()
				log.Printf("[FEE-LEDGER] recompute failed id=%s: %v", id, err)
			}
		}
		if len(ids) < recomputeBatchSize {
			return sum, nil
		}
	}
}

/* =======================================================
   LOCK + CONDITIONAL UPDATE
======================================================= */

var errVersionConflict = errors.New("fee ledger version conflict")

const maxVersionRetries = 3

// lockLedger: SELECT ... FOR UPDATE (diabaikan dialect yang tidak punya row lock).
func lockLedger(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.FeeLedger, error) {
	var l model.FeeLedger
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&l, "fee_ledger_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finerr.NotFound("fee ledger %s not found", id)
		}
		return nil, errors.Wrap(err, "lock fee ledger")
	}
	return &l, nil
}

// saveLedger: update hanya jika versi masih sama dengan yang dibaca.
func saveLedger(ctx context.Context, tx *gorm.DB, l *model.FeeLedger, now time.Time) error {
	res := tx.WithContext(ctx).Model(&model.FeeLedger{}).
		Where("fee_ledger_id = ? AND fee_ledger_version = ?", l.FeeLedgerID, l.FeeLedgerVersion).
		Updates(map[string]any{
			"fee_ledger_paid_amount":        l.FeeLedgerPaidAmount,
			"fee_ledger_penalty_amount":     l.FeeLedgerPenaltyAmount,
			"fee_ledger_due_amount":         l.FeeLedgerDueAmount,
			"fee_ledger_status":             l.FeeLedgerStatus,
			"fee_ledger_is_overdue":         l.FeeLedgerIsOverdue,
			"fee_ledger_penalty_applied_at": l.FeeLedgerPenaltyAppliedAt,
			"fee_ledger_version":            l.FeeLedgerVersion + 1,
			"fee_ledger_updated_at":         now,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update fee ledger")
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	l.FeeLedgerVersion++
	l.FeeLedgerUpdatedAt = now
	return nil
}

func withVersionRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		if err = fn(); !errors.Is(err, errVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return finerr.Conflict("fee ledger was modified concurrently, please retry")
}
