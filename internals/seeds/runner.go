package seeds

import (
	"context"
	"log"

	"gorm.io/gorm"

	penaltyConfigs "feeledger_backend/internals/seeds/penalty_configs"
)

const PenaltyConfigSeedFile = "internals/seeds/penalty_configs/data_penalty_configs.json"

// RunAllSeeds: data awal untuk environment dev/staging. Idempoten.
func RunAllSeeds(ctx context.Context, db *gorm.DB) {

	//* Penalty config per tahun ajaran
	if _, err := penaltyConfigs.SeedPenaltyConfigsFromJSON(ctx, db, PenaltyConfigSeedFile); err != nil {
		log.Printf("❌ Seed penalty config gagal: %v", err)
	}

}
