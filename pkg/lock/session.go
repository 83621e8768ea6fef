package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default timeouts (spec §5). Of these, only the response timeout and the
// poll interval can be overridden (WithResponseTimeout, WithPollInterval);
// the others are fixed.
const (
	DefaultConnectTimeout    = 15 * time.Second
	DefaultDescriptorTimeout = 3 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultResponseTimeout   = 8 * time.Second
	DefaultHeartbeatTimeout  = 3 * time.Second
	DefaultTTCommandPacing   = 500 * time.Millisecond
	DefaultGSeriesPollEvery  = 5 * time.Second
	DefaultTTSeriesPollEvery = 10 * time.Second

	maxConsecutiveFailures = 5
	statusDebounceWindow   = 2 * time.Second
	cachedStateValidFor    = 30 * time.Second
	possiblySucceededDelay = 1500 * time.Millisecond
	queryRetryDelay        = 1 * time.Second
	connectQueryAttempts   = 3
	pollQueryAttempts      = 2
)

type sessionOptions struct {
	connectTimeout    time.Duration
	descriptorTimeout time.Duration
	writeTimeout      time.Duration
	responseTimeout   time.Duration
	heartbeatTimeout  time.Duration
	ttCommandPacing   time.Duration
	pollEvery         time.Duration
	logger            *slog.Logger
	serialClock       *SerialClock
}

func defaultSessionOptions(variant Variant) sessionOptions {
	pollEvery := DefaultGSeriesPollEvery
	if variant == VariantTTSeries {
		pollEvery = DefaultTTSeriesPollEvery
	}
	return sessionOptions{
		connectTimeout:    DefaultConnectTimeout,
		descriptorTimeout: DefaultDescriptorTimeout,
		writeTimeout:      DefaultWriteTimeout,
		responseTimeout:   DefaultResponseTimeout,
		heartbeatTimeout:  DefaultHeartbeatTimeout,
		ttCommandPacing:   DefaultTTCommandPacing,
		pollEvery:         pollEvery,
		logger:            slog.Default(),
		serialClock:       DefaultSerialClock,
	}
}

// SessionOption configures a Session at construction time.
type SessionOption func(*sessionOptions)

// WithLogger overrides the *slog.Logger a session uses. The default is
// slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = l }
}

// WithSerialClock overrides the SerialClock used to derive G-Series
// monotonic serials. The default is the process-wide DefaultSerialClock.
func WithSerialClock(c *SerialClock) SessionOption {
	return func(o *sessionOptions) { o.serialClock = c }
}

// WithPollInterval overrides the status-polling interval.
func WithPollInterval(d time.Duration) SessionOption {
	return func(o *sessionOptions) { o.pollEvery = d }
}

// WithResponseTimeout overrides how long a command waits for its
// correlated response.
func WithResponseTimeout(d time.Duration) SessionOption {
	return func(o *sessionOptions) { o.responseTimeout = d }
}

// Session drives a single BLE lock device over one Transport, speaking
// whichever wire protocol its Credentials select.
type Session struct {
	transport Transport
	variant   Variant
	creds     Credentials
	opts      sessionOptions

	reassembly *ReassemblyBuffer

	lockState *Publisher[LockState]
	connState *Publisher[ConnectionState]

	stateMu       sync.RWMutex
	cachedState   LockState
	cachedAt      time.Time
	lastCommanded LockState
	commandedAt   time.Time

	cmdMu       sync.Mutex
	lastCmdSend time.Time
	pending     pendingSlot

	failures int32

	ttMu     sync.RWMutex
	ttLockID string
	ttBattID int // BatteryUnknown when absent

	svc    ServiceInfo
	cancel context.CancelFunc
	eg     *errgroup.Group
	egCtx  context.Context

	pollStop chan struct{}
	pollOnce sync.Once
}

// NewSession constructs a Session for creds over transport. It does not
// connect; call Connect to do that.
func NewSession(transport Transport, creds Credentials, opts ...SessionOption) (*Session, error) {
	if creds.Variant != VariantGSeries && creds.Variant != VariantTTSeries {
		return nil, newErr("new_session", ErrUnsupportedProtocol,
			fmt.Errorf("credentials carry no recognized protocol variant"))
	}
	o := defaultSessionOptions(creds.Variant)
	for _, fn := range opts {
		fn(&o)
	}
	s := &Session{
		transport:   transport,
		variant:     creds.Variant,
		creds:       creds,
		opts:        o,
		reassembly:  NewReassemblyBuffer(creds.Variant),
		lockState:   NewPublisher(LockUnknown),
		connState:   NewPublisher(disconnected()),
		cachedState: LockUnknown,
		ttBattID:    BatteryUnknown,
	}
	if creds.Variant == VariantTTSeries {
		s.ttLockID = creds.LockID
	}
	return s, nil
}

// LockStateUpdates subscribes to LockState transitions.
func (s *Session) LockStateUpdates() (<-chan LockState, func()) { return s.lockState.Subscribe() }

// ConnectionStateUpdates subscribes to ConnectionState transitions.
func (s *Session) ConnectionStateUpdates() (<-chan ConnectionState, func()) { return s.connState.Subscribe() }

// Connect runs the connect sequence described in spec §4.7: GATT connect,
// characteristic discovery, notification enable, start of the inbound pump,
// (TT-Series) time calibration, an initial status query with retry, then
// starts the background poller.
func (s *Session) Connect(ctx context.Context) error {
	s.connState.Publish(connecting())

	connectCtx, cancel := context.WithTimeout(ctx, s.opts.connectTimeout)
	svc, err := s.transport.Connect(connectCtx)
	cancel()
	if err != nil {
		s.connState.Publish(connError(err.Error()))
		return newErr("connect", ErrConnectionFailed, err)
	}
	s.svc = svc

	descCtx, cancel := context.WithTimeout(ctx, s.opts.descriptorTimeout)
	err = s.transport.EnableNotifications(descCtx, svc)
	cancel()
	if err != nil {
		s.connState.Publish(connError(err.Error()))
		_ = s.transport.Disconnect()
		return newErr("connect", ErrConnectionFailed, err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	s.cancel = runCancel
	eg, egCtx := errgroup.WithContext(runCtx)
	s.eg = eg
	s.egCtx = egCtx
	s.pollStop = make(chan struct{})

	eg.Go(func() error { return s.inboundPump(egCtx) })

	if s.variant == VariantTTSeries {
		calCtx, calCancel := context.WithTimeout(ctx, s.opts.heartbeatTimeout)
		if err := s.calibrateTime(calCtx); err != nil {
			s.opts.logger.Warn("tt-series time calibration failed, continuing", "err", err)
		}
		calCancel()
	}

	var lastErr error
	for attempt := 0; attempt < connectQueryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(queryRetryDelay)
		}
		_, lastErr = s.QueryLockStatus(ctx)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		s.opts.logger.Warn("initial status query failed after retries, proceeding connected anyway", "err", lastErr)
	}

	eg.Go(func() error { return s.pollLoop(egCtx) })

	s.connState.Publish(connected())
	return nil
}

// Disconnect stops polling, cancels any in-flight command wait, and tears
// down the transport. Idempotent.
func (s *Session) Disconnect() error {
	if s.pollStop != nil {
		s.pollOnce.Do(func() { close(s.pollStop) })
	}
	s.pending.cancel(newErr("disconnect", ErrNotConnected, fmt.Errorf("session disconnected")))
	if s.cancel != nil {
		s.cancel()
	}
	if s.eg != nil {
		_ = s.eg.Wait()
	}
	err := s.transport.Disconnect()
	s.connState.Publish(disconnected())
	return err
}

func (s *Session) handleTransportDrop(reason string) {
	s.connState.Publish(connError(reason))
	s.pending.cancel(newErr("transport", ErrNotConnected, fmt.Errorf("%s", reason)))
}

func (s *Session) inboundPump(ctx context.Context) error {
	inbound := s.transport.Inbound()
	events := s.transport.ConnEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-inbound:
			if !ok {
				s.handleTransportDrop("inbound stream closed")
				return nil
			}
			s.reassembly.Append(chunk)
			for {
				frame, ok := s.reassembly.Next()
				if !ok {
					break
				}
				s.dispatchFrame(frame)
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Connected {
				s.handleTransportDrop(ev.Err)
				return nil
			}
		}
	}
}

func (s *Session) dispatchFrame(frame []byte) {
	switch s.variant {
	case VariantGSeries:
		s.dispatchGSeriesFrame(frame)
	case VariantTTSeries:
		s.dispatchTTSeriesFrame(frame)
	}
}

func (s *Session) noteParseFailure(err error) {
	s.opts.logger.Warn("frame parse failed", "err", err)
	atomic.AddInt32(&s.failures, 1)
}

func (s *Session) noteParseSuccess() {
	atomic.StoreInt32(&s.failures, 0)
}

func (s *Session) tooManyFailures() bool {
	return atomic.LoadInt32(&s.failures) > maxConsecutiveFailures
}

func (s *Session) pollLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.pollStop:
			return nil
		case <-time.After(s.opts.pollEvery):
		}
		if s.tooManyFailures() {
			s.opts.logger.Warn("polling loop stopping after too many consecutive failures")
			return nil
		}
		for attempt := 0; attempt < pollQueryAttempts; attempt++ {
			if _, err := s.QueryLockStatus(ctx); err == nil {
				break
			}
		}
	}
}

// --- state bookkeeping ---

func (s *Session) setCachedState(state LockState) {
	s.stateMu.Lock()
	s.cachedState = state
	s.cachedAt = timeNow()
	s.lockState.Publish(state)
	s.stateMu.Unlock()
}

func (s *Session) getCachedState() (LockState, time.Time) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cachedState, s.cachedAt
}

func (s *Session) setCommanded(state LockState) {
	s.stateMu.Lock()
	s.lastCommanded = state
	s.commandedAt = timeNow()
	s.stateMu.Unlock()
	s.setCachedState(state)
}

func (s *Session) reconcileQueriedState(observed LockState) LockState {
	if observed != LockUnknown {
		s.setCachedState(observed)
		return observed
	}
	s.stateMu.RLock()
	commanded, at := s.lastCommanded, s.commandedAt
	s.stateMu.RUnlock()
	if commanded != LockUnknown && timeNow().Sub(at) <= statusDebounceWindow {
		s.setCachedState(commanded)
		return commanded
	}
	s.setCachedState(LockUnknown)
	return LockUnknown
}

func (s *Session) fallbackCachedState() (LockState, bool) {
	state, at := s.getCachedState()
	if state == LockUnknown {
		return LockUnknown, false
	}
	return state, timeNow().Sub(at) <= cachedStateValidFor
}

// --- battery bookkeeping ---

func (s *Session) setBattery(v int) {
	s.ttMu.Lock()
	s.ttBattID = v
	s.ttMu.Unlock()
}

// BatteryLevel returns the last-known battery percentage, if any: from a
// TT-Series reply, or from a G-Series query reply that carried BATTERY.
func (s *Session) BatteryLevel() (int, bool) {
	s.ttMu.RLock()
	defer s.ttMu.RUnlock()
	if s.ttBattID == BatteryUnknown {
		return 0, false
	}
	return s.ttBattID, true
}

// DetectedLockID returns the TT-Series lock-id the session has resolved,
// either from explicit credentials or auto-detection.
func (s *Session) DetectedLockID() (string, bool) {
	s.ttMu.RLock()
	defer s.ttMu.RUnlock()
	if s.ttLockID == "" || s.ttLockID == autoDetectLockID {
		return "", false
	}
	return s.ttLockID, true
}

func (s *Session) setDetectedLockID(id string) {
	s.ttMu.Lock()
	s.ttLockID = id
	s.ttMu.Unlock()
}

// --- command pipeline ---

// pendingResult is delivered to whichever goroutine is waiting on the
// single in-flight command slot.
type pendingResult struct {
	ack    *GShortAck
	gresp  *GResponse
	ttresp *TTResponse
	err    error
}

// pendingSlot holds at most one in-flight command's result channel. The
// session only ever has one command outstanding at a time (spec §4.7:
// "a single in-flight command correlator").
type pendingSlot struct {
	mu sync.Mutex
	ch chan pendingResult
}

func (p *pendingSlot) install() chan pendingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan pendingResult, 1)
	p.ch = ch
	return ch
}

func (p *pendingSlot) complete(res pendingResult) bool {
	p.mu.Lock()
	ch := p.ch
	p.ch = nil
	p.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- res:
	default:
	}
	return true
}

func (p *pendingSlot) cancel(err error) {
	p.complete(pendingResult{err: err})
}

// sendFrame serializes command pipeline access, writes frame, and waits
// for the inbound pump to correlate a response (or short ACK). Only one
// command may be outstanding at a time; callers are themselves serialized
// by cmdMu, so a second caller blocks until the first's wait completes.
func (s *Session) sendFrame(ctx context.Context, frame []byte) (pendingResult, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.variant == VariantTTSeries {
		if wait := s.opts.ttCommandPacing - time.Since(s.lastCmdSend); wait > 0 {
			select {
			case <-ctx.Done():
				return pendingResult{}, ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	resultCh := s.pending.install()
	s.lastCmdSend = time.Now()

	writeCtx, cancel := context.WithTimeout(ctx, s.opts.writeTimeout)
	err := ChunkedWrite(writeCtx, s.transport, s.svc, frame, false)
	cancel()
	if err != nil {
		s.pending.cancel(err)
		return pendingResult{}, newErr("send_frame", ErrCommandFailed, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.responseTimeout)
	defer cancel()
	select {
	case res := <-resultCh:
		return res, res.err
	case <-waitCtx.Done():
		s.pending.cancel(waitCtx.Err())
		return pendingResult{}, newErr("send_frame", ErrTimeout, waitCtx.Err())
	}
}

// --- high-level operations ---

// Lock requests the locked state. The returned bool is true only on
// confirmed success; false signals a device-reported idempotent re-apply
// (already locked) where that's distinguishable.
func (s *Session) Lock(ctx context.Context) (bool, error) {
	if s.variant == VariantGSeries {
		return s.gSeriesLock(ctx)
	}
	return s.ttSeriesLock(ctx)
}

// Unlock requests the unlocked state. See Lock for the bool's meaning.
func (s *Session) Unlock(ctx context.Context) (bool, error) {
	if s.variant == VariantGSeries {
		return s.gSeriesUnlock(ctx)
	}
	return s.ttSeriesUnlock(ctx)
}

// QueryLockStatus probes the device for its current lock state. On probe
// failure it falls back to the last valid cached state if that
// observation is less than 30s old.
func (s *Session) QueryLockStatus(ctx context.Context) (LockState, error) {
	var state LockState
	var err error
	if s.variant == VariantGSeries {
		state, err = s.gSeriesQueryStatus(ctx)
	} else {
		state, err = s.ttSeriesQueryStatus(ctx)
	}
	if err == nil {
		return state, nil
	}
	if cached, ok := s.fallbackCachedState(); ok {
		s.opts.logger.Warn("status query failed, returning cached state", "err", err, "cached", cached)
		return cached, nil
	}
	return LockUnknown, err
}

// QueryDeviceStatus returns a full snapshot of the device.
func (s *Session) QueryDeviceStatus(ctx context.Context) (DeviceStatus, error) {
	state, err := s.QueryLockStatus(ctx)
	if err != nil {
		return DeviceStatus{}, err
	}
	battery := BatteryUnknown
	if v, ok := s.BatteryLevel(); ok {
		battery = v
	}
	return DeviceStatus{
		Lock:               state,
		BatteryPercent:     battery,
		IsConnected:        s.connState.Current().Phase == ConnPhaseConnected,
		RSSI:               0,
		LastUpdatedEpochMs: timeNow().UnixMilli(),
	}, nil
}
