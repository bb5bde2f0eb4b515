package reconcile

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/gateway"
	"github.com/muurk/deckplane/internal/icon"
	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/page"
)

const (
	// TickInterval is how often the reconciliation tick runs
	TickInterval = 1 * time.Second

	// DrainBatchSize bounds how many queued actions one tick executes
	DrainBatchSize = 10

	// SwitchCooldown is the minimum gap between profile switch attempts
	// during self-healing
	SwitchCooldown = 5 * time.Second

	// RecoveryWindow bounds how long self-healing keeps retrying the
	// profile switch before giving up
	RecoveryWindow = 30 * time.Second
)

// PressSink receives key presses decoded against the active page. The
// protocol engine implements this to emit KeyPress events to the client.
type PressSink interface {
	OnKeyPress(name string)
}

// Controller is the reconciliation core: it keeps the desired
// configuration (profile, page) converged with the hardware state that
// gateway notifications report, through a retryable action queue drained
// on a periodic tick.
//
// The controller is explicitly constructed and exclusively owned by the
// hosting session wiring; there is no package-level instance.
type Controller struct {
	mu sync.Mutex

	gw     gateway.Gateway
	render icon.Renderer
	press  PressSink

	// baseProfile is the managed hardware profile this plugin owns.
	baseProfile string

	desired  DesiredState
	observed ObservedState

	// profileStack is the LIFO of profile names; the top entry is the
	// current desired profile, the bottom is always baseProfile while
	// the controller is active.
	profileStack []string

	queue []action

	// Self-healing bookkeeping for the managed-profile switch.
	lastSwitchAttempt time.Time
	recoveryStart     time.Time
	recoveryExpired   bool

	// Retry visibility counters, logged at debug level each tick.
	executed uint64
	requeued uint64

	// fatal terminates the process on device disconnect. Injectable for
	// tests; defaults to os.Exit(1) after logging.
	fatal func()
}

// New creates a controller driving gw, rendering key images with render,
// and managing the named base profile.
func New(gw gateway.Gateway, render icon.Renderer, baseProfile string) *Controller {
	c := &Controller{
		gw:          gw,
		render:      render,
		baseProfile: baseProfile,
	}
	c.observed.reset()
	c.fatal = func() {
		logging.Error("Device disconnected, terminating for host restart")
		logging.Sync()
		os.Exit(1)
	}
	return c
}

// SetPressSink installs the receiver for decoded key presses. Replaced on
// every session connect.
func (c *Controller) SetPressSink(sink PressSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.press = sink
}

// Phase returns the derived state machine position.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case !c.observed.Connected:
		return PhaseDisconnected
	case c.observed.DeviceID == "":
		return PhaseNoDevice
	case c.observed.Profile != c.baseProfile:
		return PhaseWrongProfile
	case !c.observed.KeysReady():
		return PhaseKeysNotReady
	default:
		return PhaseReady
	}
}

// Activate marks the controller owned by a client session: resets the
// profile stack to the base profile and queues the switch onto it.
// Logged no-op when already active.
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.desired.Active {
		logging.Info("Activate ignored, controller already active")
		return
	}

	c.desired.Active = true
	c.desired.Profile = c.baseProfile
	c.profileStack = []string{c.baseProfile}
	c.recoveryStart = time.Time{}
	c.recoveryExpired = false
	c.enqueueLocked(switchProfileAction{profile: c.baseProfile})

	logging.Info("Controller activated", zap.String("profile", c.baseProfile))
}

// Deactivate releases the controller. The physical device is left exactly
// where it is: no profile-leave command is sent. Logged no-op when
// already inactive.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.desired.Active {
		logging.Info("Deactivate ignored, controller already inactive")
		return
	}

	c.desired.Active = false
	c.desired.Page = nil
	c.profileStack = nil

	logging.Info("Controller deactivated, hardware profile left untouched")
}

// SwitchToProfile pushes the current profile and targets name. Ignored
// (logged) while inactive; switching to the already-current profile is a
// no-op.
func (c *Controller) SwitchToProfile(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.desired.Active {
		logging.Warn("SwitchToProfile ignored while inactive", zap.String("profile", name))
		return
	}
	if c.desired.Profile == name {
		logging.Info("Already on requested profile", zap.String("profile", name))
		return
	}

	c.profileStack = append(c.profileStack, name)
	c.desired.Profile = name
	c.enqueueLocked(switchProfileAction{profile: name})

	logging.Info("Profile switch queued",
		zap.String("profile", name),
		zap.Int("stack_depth", len(c.profileStack)),
	)
}

// SwitchBack pops the profile stack and targets the previous profile.
// No-op when there is no previous profile to return to.
func (c *Controller) SwitchBack() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.profileStack) <= 1 {
		logging.Warn("SwitchBack ignored, no previous profile")
		return
	}

	c.profileStack = c.profileStack[:len(c.profileStack)-1]
	previous := c.profileStack[len(c.profileStack)-1]
	c.desired.Profile = previous
	c.enqueueLocked(switchProfileAction{profile: previous})

	logging.Info("Profile switch back queued", zap.String("profile", previous))
}

// SetPage overwrites the desired page (last-write-wins) and queues a
// full-grid materialization. Always accepted: a queued materialization
// that executes later reads whatever the desired page is by then.
func (c *Controller) SetPage(p *page.Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.desired.Page = p
	c.enqueueLocked(materializePageAction{})

	name := ""
	if p != nil {
		name = p.Name
	}
	logging.Info("Desired page set", zap.String("page", name))
}

// RefreshKey queues a single-cell refresh, used after a visuals update on
// the active page.
func (c *Controller) RefreshKey(pos page.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLocked(refreshKeyAction{pos: pos})
}

// Run drives the controller until ctx is cancelled: it consumes gateway
// notifications and fires the periodic reconciliation tick. A closed
// notification stream means the gateway link is gone, which is fatal.
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	c.observed.Connected = true
	c.mu.Unlock()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	events := c.gw.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.mu.Lock()
				c.observed.reset()
				c.mu.Unlock()
				c.fatal()
				return
			}
			c.handleEvent(ev)
		case <-ticker.C:
			c.tick()
		}
	}
}

// handleEvent folds one gateway notification into ObservedState. Events
// arrive unordered; every branch takes the same exclusive lock as the
// tick.
func (c *Controller) handleEvent(ev gateway.Event) {
	switch ev.Kind {
	case gateway.EventDeviceAttached:
		c.mu.Lock()
		c.observed.Connected = true
		c.observed.DeviceID = ev.DeviceID
		phase := c.phaseLocked()
		c.mu.Unlock()
		logging.Info("Device attached",
			zap.String("device_id", ev.DeviceID),
			zap.String("phase", phase.String()),
		)

	case gateway.EventDeviceDetached:
		// Fatal: the host environment is expected to restart the plugin.
		c.mu.Lock()
		c.observed.reset()
		c.mu.Unlock()
		c.fatal()

	case gateway.EventProfileChanged:
		c.mu.Lock()
		c.observed.Profile = ev.Profile
		c.mu.Unlock()
		logging.Info("Device profile changed", zap.String("profile", ev.Profile))

	case gateway.EventKeyAppeared:
		c.mu.Lock()
		c.observed.readyKeys[page.Position{Row: ev.Row, Col: ev.Col}] = true
		ready := c.observed.KeysReady()
		if ready && c.desired.Page != nil {
			c.enqueueLocked(materializePageAction{})
		}
		if ready {
			c.recoveryStart = time.Time{}
			c.recoveryExpired = false
		}
		c.mu.Unlock()
		if ready {
			logging.Info("Virtual keys ready")
		}

	case gateway.EventKeyDisappeared:
		c.mu.Lock()
		delete(c.observed.readyKeys, page.Position{Row: ev.Row, Col: ev.Col})
		c.mu.Unlock()

	case gateway.EventKeyDown:
		c.forwardPress(ev)

	case gateway.EventKeyUp:
		logging.Debug("Key up ignored", zap.Int("row", ev.Row), zap.Int("col", ev.Col))
	}
}

// forwardPress decodes a physical key press against the desired page and
// hands the key name to the press sink. Presses are forwarded only while
// the managed profile is current; everything else on the device belongs
// to someone else.
func (c *Controller) forwardPress(ev gateway.Event) {
	c.mu.Lock()
	if c.observed.Profile != c.baseProfile || c.desired.Page == nil || c.press == nil {
		c.mu.Unlock()
		logging.Debug("Key press ignored",
			zap.Int("row", ev.Row),
			zap.Int("col", ev.Col),
			zap.String("observed_profile", c.observed.Profile),
		)
		return
	}

	binding := c.desired.Page.Binding(page.Position{Row: ev.Row, Col: ev.Col})
	sink := c.press
	c.mu.Unlock()

	if binding == nil {
		logging.Debug("Key press on empty cell ignored",
			zap.Int("row", ev.Row),
			zap.Int("col", ev.Col),
		)
		return
	}

	// Sink may block on channel I/O; never call it under the lock.
	sink.OnKeyPress(binding.Name)
}

// tick is the periodic reconciliation step: self-heal a profile mismatch,
// then drain a bounded batch of queued actions.
func (c *Controller) tick() {
	c.mu.Lock()

	c.selfHealLocked()

	var batch []action
	if c.observed.Connected && c.observed.DeviceID != "" {
		n := len(c.queue)
		if n > DrainBatchSize {
			n = DrainBatchSize
		}
		batch = c.queue[:n:n]
		c.queue = c.queue[n:]
	}

	logging.Debug("Reconcile tick",
		zap.String("phase", c.phaseLocked().String()),
		zap.Int("queued", len(c.queue)),
		zap.Int("draining", len(batch)),
		zap.Uint64("executed_total", c.executed),
		zap.Uint64("requeued_total", c.requeued),
	)
	c.mu.Unlock()

	// Execute outside the lock: gateway writes are blocking I/O.
	var failed []action
	for _, a := range batch {
		if err := a.execute(c); err != nil {
			// Only retryable failures go back on the queue; a protocol
			// rejection would fail identically on every retry.
			if !gateway.IsRetryable(err) {
				logging.Error("Action rejected, dropping",
					zap.String("action", a.describe()),
					zap.Error(err),
				)
				continue
			}
			logging.Warn("Action failed, re-enqueueing",
				zap.String("action", a.describe()),
				zap.Error(err),
			)
			failed = append(failed, a)
			continue
		}
		c.mu.Lock()
		c.executed++
		c.mu.Unlock()
	}

	if len(failed) > 0 {
		c.mu.Lock()
		c.queue = append(c.queue, failed...)
		c.requeued += uint64(len(failed))
		c.mu.Unlock()
	}
}

// selfHealLocked re-issues the managed-profile switch when the device is
// stuck off it, bounded by a cooldown between attempts and an overall
// recovery window after which it gives up (once, logged) leaving the
// plugin otherwise functional.
func (c *Controller) selfHealLocked() {
	if !c.desired.Active || c.desired.Profile != c.baseProfile {
		return
	}
	if !c.observed.Connected || c.observed.DeviceID == "" {
		return
	}
	if c.observed.KeysReady() {
		return
	}
	if c.recoveryExpired {
		return
	}
	// No attempt has gone out yet: the originally queued switch is still
	// pending, re-issuing would only double it.
	if c.lastSwitchAttempt.IsZero() {
		return
	}

	now := time.Now()
	if c.recoveryStart.IsZero() {
		c.recoveryStart = now
	}
	if now.Sub(c.recoveryStart) > RecoveryWindow {
		c.recoveryExpired = true
		logging.Warn("Profile recovery window exhausted, giving up",
			zap.String("profile", c.baseProfile),
			zap.Duration("window", RecoveryWindow),
		)
		return
	}
	if now.Sub(c.lastSwitchAttempt) < SwitchCooldown {
		return
	}

	logging.Info("Re-issuing profile switch", zap.String("profile", c.baseProfile))
	c.enqueueLocked(switchProfileAction{profile: c.baseProfile})
}

// enqueueLocked appends an action. Caller must hold c.mu.
func (c *Controller) enqueueLocked(a action) {
	c.queue = append(c.queue, a)
	logging.Debug("Action queued",
		zap.String("action", a.describe()),
		zap.Int("queue_depth", len(c.queue)),
	)
}

// noteSwitchAttempt records when a profile switch was last sent, for the
// self-healing cooldown.
func (c *Controller) noteSwitchAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSwitchAttempt = time.Now()
}

// snapshotDesiredPage reads the current desired page under the lock.
func (c *Controller) snapshotDesiredPage() *page.Resolved {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desired.Page
}

// pushKey renders one key's icon and sends the cell to the gateway.
func (c *Controller) pushKey(row, col int, title, iconSpec string) error {
	var image []byte
	if iconSpec != "" {
		data, err := c.render.Render(iconSpec, false)
		if err != nil {
			// Renderer already fell back to a placeholder where it
			// could; a hard error here only loses the image, not the key.
			logging.Warn("Icon render failed",
				zap.String("spec", iconSpec),
				zap.Error(err),
			)
		} else {
			image = data
		}
	}
	return c.gw.SetKey(row, col, title, image)
}
