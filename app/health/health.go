// Package health serves liveness and readiness checks for a settlement engine.
//
// Endpoints:
//   - /health          liveness
//   - /health/ready    readiness for load balancers
//   - /health/detailed every component, including the invariant sweep
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/gorilla/mux"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    int64                      `json:"version"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Engine is the view of the settlement engine the checker needs.
type Engine interface {
	Initialized() bool
	LastCommitID() storetypes.CommitID
	LastBlockTime() time.Time
	CheckInvariants() (string, bool)
}

// Checker performs health checks on an engine
type Checker struct {
	logger log.Logger
	engine Engine
	now    func() time.Time

	maxBlockAge time.Duration

	mu            sync.RWMutex
	lastCheck     time.Time
	cachedHealth  *HealthCheck
	cacheDuration time.Duration
}

// Config holds configuration for the health checker
type Config struct {
	// MaxBlockAge is how old the last committed block may be before the
	// engine is reported degraded. Zero disables the check.
	MaxBlockAge time.Duration

	// CacheDuration is how long to cache health check results
	CacheDuration time.Duration
}

// DefaultConfig returns the default health check configuration
func DefaultConfig() Config {
	return Config{
		MaxBlockAge:   5 * time.Minute,
		CacheDuration: 5 * time.Second,
	}
}

// NewChecker creates a new health checker
func NewChecker(logger log.Logger, cfg Config, engine Engine) (*Checker, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.MaxBlockAge < 0 || cfg.CacheDuration < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}

	return &Checker{
		logger:        logger,
		engine:        engine,
		now:           time.Now,
		maxBlockAge:   cfg.MaxBlockAge,
		cacheDuration: cfg.CacheDuration,
	}, nil
}

// Check performs a health check. The detailed check also sweeps the
// registered invariants, which reads every pool.
func (c *Checker) Check(ctx context.Context, detailed bool) (*HealthCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !detailed && c.shouldUseCached() {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.cachedHealth, nil
	}

	health := &HealthCheck{
		Timestamp:  c.now(),
		Version:    c.engine.LastCommitID().Version,
		Components: make(map[string]ComponentHealth),
	}
	health.Components["store"] = c.checkStore()
	health.Components["blocks"] = c.checkBlocks()
	if detailed {
		health.Components["invariants"] = c.checkInvariants()
	}
	health.Status = c.calculateOverallStatus(health.Components)

	if !detailed {
		c.mu.Lock()
		c.lastCheck = c.now()
		c.cachedHealth = health
		c.mu.Unlock()
	}
	return health, nil
}

// checkStore reports whether genesis is loaded and a version committed.
func (c *Checker) checkStore() ComponentHealth {
	commit := c.engine.LastCommitID()
	metrics := map[string]interface{}{
		"version": commit.Version,
		"hash":    fmt.Sprintf("%X", commit.Hash),
	}
	if !c.engine.Initialized() {
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   "genesis not loaded",
			Timestamp: c.now(),
			Metrics:   metrics,
		}
	}
	return ComponentHealth{
		Status:    StatusHealthy,
		Message:   "store is committed",
		Timestamp: c.now(),
		Metrics:   metrics,
	}
}

// checkBlocks reports a stale engine when no block was committed recently.
func (c *Checker) checkBlocks() ComponentHealth {
	last := c.engine.LastBlockTime()
	if c.maxBlockAge == 0 || last.IsZero() {
		return ComponentHealth{Status: StatusHealthy, Message: "block age not tracked", Timestamp: c.now()}
	}

	age := c.now().Sub(last)
	metrics := map[string]interface{}{
		"last_block_time":   last.UTC().Format(time.RFC3339),
		"block_age_seconds": age.Seconds(),
	}
	if age > c.maxBlockAge {
		return ComponentHealth{
			Status:    StatusDegraded,
			Message:   fmt.Sprintf("last block %.1f minutes ago", age.Minutes()),
			Timestamp: c.now(),
			Metrics:   metrics,
		}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "blocks are recent", Timestamp: c.now(), Metrics: metrics}
}

func (c *Checker) checkInvariants() ComponentHealth {
	msg, broken := c.engine.CheckInvariants()
	if broken {
		c.logger.Error("invariant sweep failed", "fault", "internal", "msg", msg)
		return ComponentHealth{Status: StatusUnhealthy, Message: msg, Timestamp: c.now()}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "all invariants hold", Timestamp: c.now()}
}

// calculateOverallStatus determines the overall health status based on component statuses
func (c *Checker) calculateOverallStatus(components map[string]ComponentHealth) Status {
	hasUnhealthy := false
	hasDegraded := false

	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// shouldUseCached determines if cached health check results should be used
func (c *Checker) shouldUseCached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cachedHealth == nil {
		return false
	}

	return c.now().Sub(c.lastCheck) < c.cacheDuration
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", c.handleHealthReady).Methods(http.MethodGet)
	router.HandleFunc("/health/detailed", c.handleHealthDetailed).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth handles the basic liveness check endpoint
func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": c.now().Format(time.RFC3339),
	})
}

// handleHealthReady handles the readiness check endpoint. A degraded engine
// is still ready.
func (c *Checker) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	c.serveCheck(w, r, false)
}

// handleHealthDetailed handles the detailed health check endpoint
func (c *Checker) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	c.serveCheck(w, r, true)
}

func (c *Checker) serveCheck(w http.ResponseWriter, r *http.Request, detailed bool) {
	health, err := c.Check(r.Context(), detailed)
	if err != nil {
		c.logger.Error("health check failed", "detailed", detailed, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}
