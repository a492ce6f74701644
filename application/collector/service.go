// Package collector serialises collection runs for the long-running modes.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"bmc_collect/domain/entities"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when a run is requested while another is in flight
var ErrBusy = errors.New("collection run already in progress")

// Runner executes one collection run
type Runner interface {
	Run(ctx context.Context, runID string) (entities.RunResult, error)
}

// Service runs at most one collection at a time and remembers the latest result
type Service struct {
	runner Runner
	logger *logrus.Logger
	base   context.Context
	newID  func() string

	mu      sync.Mutex
	running bool
	last    *entities.RunResult
	wg      sync.WaitGroup
}

// NewService - creates a service. Runs started with Start inherit base, so cancelling
// base interrupts them.
func NewService(base context.Context, runner Runner, logger *logrus.Logger) *Service {
	return &Service{
		runner: runner,
		logger: logger,
		base:   base,
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *Service) acquire() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrBusy
	}
	id := s.newID()
	s.running = true
	s.last = &entities.RunResult{
		ID:        id,
		Status:    entities.RunStatusRunning,
		State:     entities.StateStart,
		StartedAt: time.Now().UTC(),
	}
	s.wg.Add(1)
	return id, nil
}

func (s *Service) release(result entities.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.last = &result
	s.wg.Done()
}

// Run executes a collection synchronously
func (s *Service) Run(ctx context.Context) (entities.RunResult, error) {
	id, err := s.acquire()
	if err != nil {
		return entities.RunResult{}, err
	}
	return s.execute(ctx, id)
}

// Start launches a collection in the background and returns its run ID
func (s *Service) Start() (string, error) {
	id, err := s.acquire()
	if err != nil {
		return "", err
	}
	go s.execute(s.base, id)
	return id, nil
}

func (s *Service) execute(ctx context.Context, id string) (entities.RunResult, error) {
	log := s.logger.WithField("run_id", id)
	log.Info("Collection run started")

	result, err := s.runner.Run(ctx, id)
	result.ID = id
	s.release(result)

	if err != nil {
		log.WithField("failure_kind", result.FailureKind).Errorf("Collection run failed: %v", err)
	} else {
		log.WithField("dialog", result.Dialog).Info("Collection run settled")
	}
	return result, err
}

// Last returns the most recent run, in flight or finished
func (s *Service) Last() (entities.RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return entities.RunResult{}, false
	}
	return *s.last, true
}

// Busy reports whether a run is in flight
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the in-flight run, if any, has finished
func (s *Service) Wait() {
	s.wg.Wait()
}
