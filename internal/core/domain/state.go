package domain

import (
	"sync"
	"time"
)

// ApplicationState is the process-wide singleton describing the engine's
// lifecycle. Fields are written through the setters below by main and the
// background initial-sync task, and read by status reporting through
// Snapshot; readers may observe a recent-but-stale copy, which is
// acceptable for status purposes. Every setter and Snapshot take the
// internal mutex, so a single field write is atomic and a Snapshot never
// tears across fields written together.
type ApplicationState struct {
	mu sync.Mutex

	StartupTime          time.Time
	InitialSyncStarted   bool
	InitialSyncCompleted bool
	InitialSyncError     string
	SchedulerRunning     bool
	SchedulerJobsCount   int
	MessageBusEnabled    bool
	MessageBusConnected  bool
}

// NewApplicationState constructs state stamped with the given startup time.
func NewApplicationState(startupTime time.Time) *ApplicationState {
	return &ApplicationState{StartupTime: startupTime}
}

// StateSnapshot is a shallow, read-only copy of ApplicationState safe to
// hand to the status endpoint without holding any lock.
type StateSnapshot struct {
	StartupTime          time.Time
	InitialSyncStarted   bool
	InitialSyncCompleted bool
	InitialSyncError     string
	SchedulerRunning     bool
	SchedulerJobsCount   int
	MessageBusEnabled    bool
	MessageBusConnected  bool
}

// Snapshot returns a copy of the current state.
func (s *ApplicationState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		StartupTime:          s.StartupTime,
		InitialSyncStarted:   s.InitialSyncStarted,
		InitialSyncCompleted: s.InitialSyncCompleted,
		InitialSyncError:     s.InitialSyncError,
		SchedulerRunning:     s.SchedulerRunning,
		SchedulerJobsCount:   s.SchedulerJobsCount,
		MessageBusEnabled:    s.MessageBusEnabled,
		MessageBusConnected:  s.MessageBusConnected,
	}
}

// SetInitialSyncStarted records that the background initial sync began.
func (s *ApplicationState) SetInitialSyncStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitialSyncStarted = true
}

// SetInitialSyncCompleted records a successful initial sync.
func (s *ApplicationState) SetInitialSyncCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitialSyncCompleted = true
	s.InitialSyncError = ""
}

// SetInitialSyncError records a failed initial sync; the engine keeps
// serving regardless, since the HTTP server is already up before this runs.
func (s *ApplicationState) SetInitialSyncError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitialSyncCompleted = true
	if err != nil {
		s.InitialSyncError = err.Error()
	}
}

// SetSchedulerRunning records whether the periodic scheduler is active.
func (s *ApplicationState) SetSchedulerRunning(running bool, jobsCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SchedulerRunning = running
	s.SchedulerJobsCount = jobsCount
}

// SetMessageBusEnabled records whether MQTT is configured at all.
func (s *ApplicationState) SetMessageBusEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MessageBusEnabled = enabled
}

// SetMessageBusConnected records the message-bus connection state. main
// calls it once, after the subscriber's initial connection attempt; later
// connects and disconnects seen by the subscriber are not written here.
func (s *ApplicationState) SetMessageBusConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MessageBusConnected = connected
}

// HealthStatus is the three-valued health the status endpoint reports.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "Healthy"
	HealthWarning  HealthStatus = "Warning"
	HealthDegraded HealthStatus = "Degraded"
)

// Health computes the status endpoint's health verdict for a snapshot taken
// `uptime` after startup: Degraded if the initial sync recorded an
// error, Warning if it simply hasn't completed yet after 300s, else Healthy.
func (snap StateSnapshot) Health(uptime time.Duration) HealthStatus {
	if snap.InitialSyncError != "" {
		return HealthDegraded
	}
	if !snap.InitialSyncCompleted && uptime > 300*time.Second {
		return HealthWarning
	}
	return HealthHealthy
}
