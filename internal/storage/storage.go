package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/eugenenazirov/sidesplit/internal/planner"
)

const defaultMaxPlans = 256

var (
	// ErrInvalidDefaults indicates the provided default settings violate validation rules.
	ErrInvalidDefaults = errors.New("invalid default settings")
	// ErrPlanNotFound is returned when no plan is stored under the requested id.
	ErrPlanNotFound = errors.New("plan not found")
)

// Defaults are the allocation settings applied when a request omits them.
type Defaults struct {
	Capacity        int              `json:"capacity" yaml:"capacity"`
	Sides           int              `json:"sides" yaml:"sides"`
	Even            bool             `json:"even" yaml:"even"`
	DeadlineSeconds int              `json:"deadlineSeconds" yaml:"deadline_seconds"`
	Threshold       float64          `json:"threshold" yaml:"threshold"`
	Strategy        planner.Strategy `json:"strategy" yaml:"strategy"`
}

var defaultSettings = Defaults{
	Capacity:        22 * 60,
	DeadlineSeconds: 10,
	Strategy:        planner.StrategySearch,
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Defaults {
	return defaultSettings
}

// Storage keeps default settings and finished plans.
type Storage interface {
	GetDefaults() (Defaults, error)
	SetDefaults(d Defaults) error
	SavePlan(plan planner.Plan) (string, error)
	GetPlan(id string) (planner.Plan, error)
	LookupFingerprint(fp uint64) (planner.Plan, bool)
}

// Option configures MemoryStorage.
type Option func(*MemoryStorage)

// WithMaxPlans bounds how many plans are retained; the oldest are evicted first.
func WithMaxPlans(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxPlans = n
		}
	}
}

// WithMaxDeadlineSeconds rejects default settings whose deadline exceeds
// seconds. Zero leaves the deadline unbounded.
func WithMaxDeadlineSeconds(seconds int) Option {
	return func(s *MemoryStorage) {
		if seconds > 0 {
			s.maxDeadline = seconds
		}
	}
}

// WithIDGenerator overrides plan id generation, primarily for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *MemoryStorage) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// MemoryStorage keeps state in-memory and guards access with a RWMutex.
// Untruncated plans are also indexed by request fingerprint so identical
// requests can reuse them.
type MemoryStorage struct {
	mu       sync.RWMutex
	defaults Defaults
	plans    map[string]planner.Plan
	order    []string
	maxPlans int
	newID    func() string

	maxDeadline int

	byFingerprint *xsync.Map[uint64, string]
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage initialises storage with the built-in defaults.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		defaults:      DefaultSettings(),
		plans:         make(map[string]planner.Plan),
		maxPlans:      defaultMaxPlans,
		newID:         uuid.NewString,
		byFingerprint: xsync.NewMap[uint64, string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDefaults returns the current default settings.
func (s *MemoryStorage) GetDefaults() (Defaults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.defaults, nil
}

// SetDefaults validates, normalises, and stores the provided defaults.
func (s *MemoryStorage) SetDefaults(d Defaults) error {
	normalized, err := NormalizeDefaults(d, s.maxDeadline)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.defaults = normalized
	s.mu.Unlock()

	return nil
}

// SavePlan stores a copy of plan under a new id and returns the id.
func (s *MemoryStorage) SavePlan(plan planner.Plan) (string, error) {
	id := s.newID()
	plan = plan.Clone()
	plan.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[id] = plan
	s.order = append(s.order, id)
	if !plan.Truncated {
		s.byFingerprint.Store(plan.Fingerprint, id)
	}

	for len(s.order) > s.maxPlans {
		oldest := s.order[0]
		s.order = s.order[1:]
		evicted := s.plans[oldest]
		delete(s.plans, oldest)
		if current, ok := s.byFingerprint.Load(evicted.Fingerprint); ok && current == oldest {
			s.byFingerprint.Delete(evicted.Fingerprint)
		}
	}

	return id, nil
}

// GetPlan returns a copy of the plan stored under id.
func (s *MemoryStorage) GetPlan(id string) (planner.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return planner.Plan{}, ErrPlanNotFound
	}
	return plan.Clone(), nil
}

// LookupFingerprint returns a stored untruncated plan for fp, if any.
func (s *MemoryStorage) LookupFingerprint(fp uint64) (planner.Plan, bool) {
	id, ok := s.byFingerprint.Load(fp)
	if !ok {
		return planner.Plan{}, false
	}
	plan, err := s.GetPlan(id)
	if err != nil {
		return planner.Plan{}, false
	}
	return plan, true
}

// NormalizeDefaults validates d and canonicalises its strategy name. A positive
// maxDeadline caps DeadlineSeconds.
func NormalizeDefaults(d Defaults, maxDeadline int) (Defaults, error) {
	if d.Capacity < 0 {
		return Defaults{}, fmt.Errorf("%w: capacity must be >= 0", ErrInvalidDefaults)
	}
	if d.Sides < 0 {
		return Defaults{}, fmt.Errorf("%w: sides must be >= 0", ErrInvalidDefaults)
	}
	if d.DeadlineSeconds < 0 {
		return Defaults{}, fmt.Errorf("%w: deadlineSeconds must be >= 0", ErrInvalidDefaults)
	}
	if maxDeadline > 0 && d.DeadlineSeconds > maxDeadline {
		return Defaults{}, fmt.Errorf("%w: deadlineSeconds must be <= %d", ErrInvalidDefaults, maxDeadline)
	}
	if d.Threshold < 0 {
		return Defaults{}, fmt.Errorf("%w: threshold must be >= 0", ErrInvalidDefaults)
	}
	strategy, err := planner.ParseStrategy(string(d.Strategy))
	if err != nil {
		return Defaults{}, fmt.Errorf("%w: %v", ErrInvalidDefaults, err)
	}
	d.Strategy = strategy
	return d, nil
}
