package sweep

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
	metrics "github.com/marketmate/marketmate/internal/pkg/metrics/counter"
)

// Manager runs the periodic background work: the expiry sweep that moves
// overdue listings to expired, and the counter flush that drains Redis view
// counters into the database.
type Manager struct {
	lifecycle          *lifecycle.Manager
	expiryTicker       *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

const (
	expiryInterval       = 1 * time.Minute
	counterFlushInterval = 5 * time.Second
)

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global sweep manager (singleton). The lifecycle
// manager passed on the first call wins.
func GetManager(lm *lifecycle.Manager) *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			lifecycle: lm,
			stopCh:    make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the background workers.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Sweep Manager] Starting background tasks")

	m.expiryTicker = time.NewTicker(expiryInterval)
	m.wg.Add(1)
	go m.expiryWorker()

	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Sweep Manager] Started successfully")
}

// Stop stops the background workers and waits for them to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Sweep Manager] Stopping background tasks...")

	if m.expiryTicker != nil {
		m.expiryTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Workers read m.stopCh without the mutex; the channel must stay valid
	// until they exit. Start replaces it on the next cycle.
	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	log.Info("[Sweep Manager] Stopped successfully")
}

// expiryWorker periodically moves listings whose expiry has passed into the
// expired state.
func (m *Manager) expiryWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Sweep Manager] Expiry worker stopping")
			return
		case <-m.expiryTicker.C:
			expired, err := m.lifecycle.ExpireOverdue(time.Now())
			if err != nil {
				log.Errorf("[Sweep Manager] Expiry sweep error: %v", err)
				continue
			}
			if expired > 0 {
				log.Infof("[Sweep Manager] Expired %d overdue listings", expired)
			}
		}
	}
}

// counterFlushWorker periodically flushes view counters from Redis to the DB.
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Sweep Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Sweep Manager] Counter flush error: %v", err)
			}
		}
	}
}

// RunExpirySweepOnce exposes a manual trigger for a single sweep (admin use).
func (m *Manager) RunExpirySweepOnce() (int64, error) {
	return m.lifecycle.ExpireOverdue(time.Now())
}

// IsRunning returns whether the manager is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
