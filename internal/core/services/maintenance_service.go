package services

import (
	"context"
	"log"

	"docshelf/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// MaintenanceService runs nightly housekeeping: expired refresh tokens are
// purged and lapsed discount codes deactivated. Correctness never depends on
// it; evaluation and token validation check expiry at read time.
type MaintenanceService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	discountRepo     *repositories.DiscountCodeRepository
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{
		cron:             cron.New(),
		refreshTokenRepo: repositories.NewRefreshTokenRepository(db),
		discountRepo:     repositories.NewDiscountCodeRepository(db),
	}
}

// Start schedules the nightly run (03:00 server time)
func (s *MaintenanceService) Start() {
	_, err := s.cron.AddFunc("0 3 * * *", s.run)
	if err != nil {
		log.Printf("⚠️ Failed to schedule maintenance job: %v", err)
		return
	}
	s.cron.Start()
	log.Println("✅ Maintenance job scheduled (daily 03:00)")
}

// Stop stops the scheduler
func (s *MaintenanceService) Stop() {
	s.cron.Stop()
}

func (s *MaintenanceService) run() {
	ctx := context.Background()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️ Maintenance: purge expired refresh tokens failed: %v", err)
	}

	if err := s.discountRepo.DeactivateExpired(ctx); err != nil {
		log.Printf("⚠️ Maintenance: deactivate expired discount codes failed: %v", err)
	}
}
