// Package notifier sends desktop notifications about documentation builds
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// SendFunc delivers one notification
type SendFunc func(title, message string) error

// BuildNotifier reports build start, success, failure and cancellation
type BuildNotifier struct {
	enabled bool
	sound   bool
	logger  logger.Logger
	send    SendFunc
	beep    func() error
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	Sound   bool
}

// ConfigFromSettings reads the notification section of settings. Builds
// notify by default.
func ConfigFromSettings(s *config.Settings) Config {
	if s == nil || s.Notifications == nil {
		return Config{Enabled: true}
	}
	n := s.Notifications
	return Config{
		Enabled: n.Enabled == nil || *n.Enabled,
		Sound:   n.SoundEnabled,
	}
}

// Option customizes a BuildNotifier
type Option func(*BuildNotifier)

// WithSender replaces the desktop notification backend
func WithSender(send SendFunc) Option {
	return func(n *BuildNotifier) {
		n.send = send
	}
}

// New creates a new build notifier
func New(cfg Config, log logger.Logger, opts ...Option) *BuildNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	n := &BuildNotifier{
		enabled: cfg.Enabled,
		sound:   cfg.Sound,
		logger:  log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyBuildStart notifies that a build has started
func (n *BuildNotifier) NotifyBuildStart(helpName string) {
	n.notify("Help build", fmt.Sprintf("Building %s...", helpName), false)
}

// NotifyBuildSuccess notifies that a build succeeded
func (n *BuildNotifier) NotifyBuildSuccess(helpName string, duration time.Duration) {
	n.notify("Build succeeded", fmt.Sprintf("%s built in %s", helpName, formatDuration(duration)), true)
}

// NotifyBuildFailure notifies that a build failed. err may be nil when the
// failure was reported by a step.
func (n *BuildNotifier) NotifyBuildFailure(helpName string, err error) {
	message := helpName + " failed, see the build log"
	if err != nil {
		message = fmt.Sprintf("%s: %v", helpName, err)
	}
	n.notify("Build failed", message, true)
}

// NotifyBuildCancelled notifies that a build was cancelled
func (n *BuildNotifier) NotifyBuildCancelled(helpName string) {
	n.notify("Build cancelled", helpName+" was cancelled", false)
}

func (n *BuildNotifier) notify(title, message string, sound bool) {
	if !n.enabled {
		return
	}
	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
		n.logger.Info(fmt.Sprintf("%s: %s", title, message))
	}
	if sound && n.sound && n.beep != nil {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
