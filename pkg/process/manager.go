// Package process handles the signals that cancel a running build
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// DefaultHeartbeatInterval is the period of the heartbeat callback
const DefaultHeartbeatInterval = 10 * time.Second

// Manager turns the first interrupt into a cooperative shutdown: the
// registered handlers run once, in reverse registration order. A second
// interrupt calls the force handler.
type Manager struct {
	logger            logger.Logger
	shutdownHandlers  []func()
	forceHandler      func()
	heartbeatFunc     func()
	heartbeatInterval time.Duration
	heartbeatStop     chan struct{}
	signals           chan os.Signal
	wg                sync.WaitGroup
	mu                sync.Mutex
	running           bool
	shutdown          bool
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		logger:            log,
		heartbeatInterval: DefaultHeartbeatInterval,
		forceHandler:      func() { os.Exit(130) },
	}
}

// RegisterShutdownHandler adds a shutdown handler
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// SetForceHandler replaces the action taken on a second interrupt
func (m *Manager) SetForceHandler(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceHandler = fn
}

// SetHeartbeat sets a function called every interval while the manager runs
func (m *Manager) SetHeartbeat(fn func(), interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeatFunc = fn
	if interval > 0 {
		m.heartbeatInterval = interval
	}
}

// Start listens for SIGINT and SIGTERM until ctx is done or Stop is called.
// Cancelling ctx does not run the shutdown handlers.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.shutdown = false
	m.signals = make(chan os.Signal, 2)
	m.heartbeatStop = make(chan struct{})
	stop := m.heartbeatStop
	sigChan := m.signals
	heartbeat := m.heartbeatFunc
	m.mu.Unlock()

	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer signal.Stop(sigChan)

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case sig := <-sigChan:
				m.logger.Warn("Received signal", logger.WithField("signal", sig))
				m.handleSignal()
			}
		}
	}()

	if heartbeat != nil {
		m.startHeartbeat(ctx, stop, heartbeat)
	}
}

// Trigger delivers sig as if it came from the operating system
func (m *Manager) Trigger(sig os.Signal) {
	m.mu.Lock()
	ch := m.signals
	running := m.running
	m.mu.Unlock()
	if running && ch != nil {
		ch <- sig
	}
}

// Stop stops the process manager
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.heartbeatStop)
	m.mu.Unlock()

	m.wg.Wait()
}

// IsRunning checks if the process manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ShutdownRequested reports whether an interrupt was received
func (m *Manager) ShutdownRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

func (m *Manager) handleSignal() {
	m.mu.Lock()
	if m.shutdown {
		force := m.forceHandler
		m.mu.Unlock()
		m.logger.Error("Interrupted again, exiting")
		if force != nil {
			force()
		}
		return
	}
	m.shutdown = true
	handlers := make([]func(), len(m.shutdownHandlers))
	copy(handlers, m.shutdownHandlers)
	m.mu.Unlock()

	m.logger.Warn("Cancelling the build after the current step, interrupt again to exit")
	for i := len(handlers) - 1; i >= 0; i-- {
		handlers[i]()
	}
}

func (m *Manager) startHeartbeat(ctx context.Context, stop <-chan struct{}, fn func()) {
	m.mu.Lock()
	interval := m.heartbeatInterval
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
