package jobs

import (
	"log"
	"time"

	"github.com/movescrow/movescrow-backend/internal/storage"
)

// CleanupJob periodically deletes expired OTP challenges and pickup codes.
// Session rows are deliberately not swept; those are removed lazily when a
// verification finds them expired.
type CleanupJob struct {
	store    storage.Store
	interval time.Duration
	stop     chan struct{}
}

// NewCleanupJob creates the cleanup scheduler.
func NewCleanupJob(store storage.Store) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: time.Hour,
		stop:     make(chan struct{}),
	}
}

// Start begins the cleanup loop.
func (j *CleanupJob) Start() {
	log.Println("Starting OTP cleanup job...")
	go j.run()
}

// Stop halts the cleanup loop.
func (j *CleanupJob) Stop() {
	close(j.stop)
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.store.DeleteExpiredOTPChallenges(); err != nil {
				log.Printf("Failed to delete expired OTP challenges: %v", err)
			}
			if err := j.store.DeleteExpiredPickupOTPs(); err != nil {
				log.Printf("Failed to delete expired pickup OTPs: %v", err)
			}
		case <-j.stop:
			return
		}
	}
}
