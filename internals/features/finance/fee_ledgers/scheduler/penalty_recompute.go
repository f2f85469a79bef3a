// file: internals/features/finance/fee_ledgers/scheduler/penalty_recompute.go
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/fee_ledgers/service"
	penaltyService "feeledger_backend/internals/features/finance/penalties/service"
	"feeledger_backend/internals/helpers/reporting"
	"feeledger_backend/internals/metrics"
)

const DefaultPenaltyCron = "30 1 * * *"

// Recomputer: bagian LedgerService yang dipakai job.
type Recomputer interface {
	RecomputeOverdue(ctx context.Context, asOf time.Time) (service.RecomputeSummary, error)
}

// RunPenaltyRecompute menjalankan satu putaran recompute denda per asOf.
func RunPenaltyRecompute(ctx context.Context, r Recomputer, asOf time.Time) (service.RecomputeSummary, error) {
	start := time.Now()
	sum, err := r.RecomputeOverdue(ctx, asOf)
	if err != nil {
		metrics.RecomputeRunsTotal.WithLabelValues("error").Inc()
		reporting.Error("penalty recompute gagal", err, map[string]interface{}{
			"as_of":   asOf.Format(time.RFC3339),
			"scanned": sum.Scanned,
		})
		return sum, err
	}
	if sum.Failed > 0 {
		metrics.RecomputeRunsTotal.WithLabelValues("partial").Inc()
		reporting.Warning("penalty recompute selesai dengan kegagalan", map[string]interface{}{
			"as_of":  asOf.Format(time.RFC3339),
			"failed": sum.Failed,
		})
	} else {
		metrics.RecomputeRunsTotal.WithLabelValues("ok").Inc()
	}
	log.Printf("[PENALTY-CRON] done as_of=%s scanned=%d updated=%d skipped=%d failed=%d took=%s",
		asOf.Format("2006-01-02"), sum.Scanned, sum.Updated, sum.Skipped, sum.Failed, time.Since(start).Round(time.Millisecond))
	return sum, nil
}

// StartPenaltyRecomputeCron: jadwal kosong → DefaultPenaltyCron. Caller wajib Stop() saat shutdown.
func StartPenaltyRecomputeCron(db *gorm.DB, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultPenaltyCron
	}
	svc := service.NewLedgerService(db, penaltyService.NewRegistry(db))

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), service.DefaultRecomputeTimeout)
		defer cancel()
		_, _ = RunPenaltyRecompute(ctx, svc, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PENALTY-CRON] started schedule=%q (UTC)", schedule)
	c.Start()
	return c, nil
}
