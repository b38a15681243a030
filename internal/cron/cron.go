package cron

import (
	"context"
	"log"
	"time"

	"github.com/docsphere/docsphere-backend/internal/service"
	"github.com/robfig/cron/v3"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
}

// NewScheduler creates a new scheduler
func NewScheduler(services *service.Services) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		services: services,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every hour - sweep expired pending invitations. Expiry is also
	// evaluated lazily on every token read; the sweep keeps listings tidy
	// for invitations nobody looks at.
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running invitation expiry sweep...")
		s.sweepExpiredInvitations()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) sweepExpiredInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.services.Invitation.SweepExpired(ctx, "")
	if err != nil {
		log.Printf("[Cron] Invitation sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("[Cron] Expired %d invitation(s)", count)
	}
}
