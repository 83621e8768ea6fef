package lock

import (
	"context"
	"errors"
	"fmt"
)

// isTTAsyncCmd identifies business-data leading bytes the device sends
// unprompted: heartbeats and alarm conditions. These never satisfy the
// pending command slot even if one happens to be outstanding.
func isTTAsyncCmd(cmd byte) bool {
	switch cmd {
	case TTUpHeartbeat, TTUpBroke, TTUpRodCut, TTUpOpened:
		return true
	default:
		return false
	}
}

func (s *Session) dispatchTTSeriesFrame(frame []byte) {
	resp, err := TTParseFrame(frame, s.creds.TTAESKey)
	if err != nil {
		s.noteParseFailure(err)
		return
	}
	s.noteParseSuccess()

	if len(resp.Business) == 0 {
		s.opts.logger.Debug("tt-series frame with empty business data, dropped")
		return
	}

	if isTTAsyncCmd(resp.Business[0]) {
		s.handleTTAsync(resp.Business)
		return
	}

	if !s.pending.complete(pendingResult{ttresp: resp}) {
		s.opts.logger.Debug("tt-series frame with no waiting command, dropped")
	}
}

func (s *Session) handleTTAsync(business []byte) {
	switch business[0] {
	case TTUpHeartbeat:
		lockID, _ := s.DetectedLockID()
		if lockID == "" {
			lockID = s.creds.LockID
		}
		reply, err := TTBuildHeartbeatReply(lockID, NowBCD6())
		if err != nil {
			s.opts.logger.Warn("failed to build heartbeat reply", "err", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.heartbeatTimeout)
		defer cancel()
		if err := s.transport.Write(ctx, s.svc, reply, false); err != nil {
			s.opts.logger.Warn("failed to send heartbeat reply", "err", err)
		}
	case TTUpBroke, TTUpRodCut, TTUpOpened:
		s.opts.logger.Warn("tt-series alarm condition reported", "code", business[0])
		if parsed, err := TTParseLockResponse(business); err == nil {
			s.setCachedState(parsed.Status.State)
			s.setBattery(int(parsed.Battery))
		}
	}
}

func (s *Session) ttSeriesLock(ctx context.Context) (bool, error) {
	return s.ttSeriesSetSeal(ctx, true)
}

func (s *Session) ttSeriesUnlock(ctx context.Context) (bool, error) {
	return s.ttSeriesSetSeal(ctx, false)
}

func (s *Session) ttSeriesSetSeal(ctx context.Context, lock bool) (bool, error) {
	op := "unlock"
	build := TTBuildUnlock
	target := LockUnlocked
	if lock {
		op = "lock"
		build = TTBuildLock
		target = LockLocked
	}

	lockID, _ := s.DetectedLockID()
	if lockID == "" {
		lockID = s.creds.LockID
	}
	encrypted := len(s.creds.TTAESKey) > 0
	frame, err := build(lockID, s.creds.TTPassword, NowBCD6(), s.creds.TTAESKey, encrypted)
	if err != nil {
		return false, newErr(op, ErrCommandFailed, err)
	}

	res, err := s.sendFrame(ctx, frame)
	if err != nil {
		return false, newErr(op, classifyTTTransportErr(err), err)
	}
	if res.ttresp == nil {
		return false, newErr(op, ErrDecoding, fmt.Errorf("no response business data"))
	}
	parsed, err := TTParseLockResponse(res.ttresp.Business)
	if err != nil {
		return false, newErr(op, ErrDecoding, err)
	}
	s.setBattery(int(parsed.Battery))
	if parsed.LockID != "" {
		s.setDetectedLockID(parsed.LockID)
	}

	var confirmed bool
	switch parsed.Cmd {
	case TTRespLockSuccess, TTRespUnlockSuccess:
		confirmed = true
	case TTRespLockAgain, TTRespUnlockAgain:
		confirmed = false
	case TTRespUnlockWrongPassword:
		return false, newErr(op, ErrAuthenticationFailed, fmt.Errorf("device rejected password"))
	default:
		return false, newCodeErr(op, ErrCommandFailed, int(parsed.Cmd), fmt.Errorf("device rejected command"))
	}

	s.setCommanded(target)
	return confirmed, nil
}

func (s *Session) ttSeriesQueryStatus(ctx context.Context) (LockState, error) {
	lockID, _ := s.DetectedLockID()
	if lockID == "" {
		lockID = s.creds.LockID
	}
	encrypted := len(s.creds.TTAESKey) > 0
	frame, err := TTBuildCheckStatus(lockID, s.creds.TTPassword, NowBCD6(), s.creds.TTAESKey, encrypted)
	if err != nil {
		return LockUnknown, newErr("query_lock_status", ErrCommandFailed, err)
	}
	res, err := s.sendFrame(ctx, frame)
	if err != nil {
		return LockUnknown, newErr("query_lock_status", classifyTTTransportErr(err), err)
	}
	if res.ttresp == nil {
		return LockUnknown, newErr("query_lock_status", ErrDecoding, fmt.Errorf("no response business data"))
	}
	parsed, err := TTParseLockResponse(res.ttresp.Business)
	if err != nil {
		return LockUnknown, newErr("query_lock_status", ErrDecoding, err)
	}
	s.setBattery(int(parsed.Battery))
	if parsed.LockID != "" {
		s.setDetectedLockID(parsed.LockID)
	}
	if parsed.Cmd != TTRespCheckOK {
		return LockUnknown, newCodeErr("query_lock_status", ErrCommandFailed, int(parsed.Cmd), fmt.Errorf("device rejected status check"))
	}
	return s.reconcileQueriedState(parsed.Status.State), nil
}

func (s *Session) calibrateTime(ctx context.Context) error {
	frame := TTBuildCalibrateTime(NowBCD6())
	_, err := s.sendFrame(ctx, frame)
	return err
}

// CalibrateTime sends the device's wall-clock to the current time.
// TT-Series only.
func (s *Session) CalibrateTime(ctx context.Context) error {
	if s.variant != VariantTTSeries {
		return newErr("calibrate_time", ErrUnsupportedProtocol, fmt.Errorf("not a tt-series session"))
	}
	return s.calibrateTime(ctx)
}

// GetVersion queries the device firmware/protocol version. TT-Series only.
func (s *Session) GetVersion(ctx context.Context) ([]byte, error) {
	if s.variant != VariantTTSeries {
		return nil, newErr("get_version", ErrUnsupportedProtocol, fmt.Errorf("not a tt-series session"))
	}
	frame := TTBuildCheckVersion(NowBCD6())
	res, err := s.sendFrame(ctx, frame)
	if err != nil {
		return nil, newErr("get_version", classifyTTTransportErr(err), err)
	}
	if res.ttresp == nil {
		return nil, newErr("get_version", ErrDecoding, fmt.Errorf("no response business data"))
	}
	return res.ttresp.Business, nil
}

// SetWorkMode switches the device between sleep (long-interval beacon) and
// realtime (responsive) radio modes. TT-Series only.
func (s *Session) SetWorkMode(ctx context.Context, sleep bool) error {
	if s.variant != VariantTTSeries {
		return newErr("set_work_mode", ErrUnsupportedProtocol, fmt.Errorf("not a tt-series session"))
	}
	lockID, _ := s.DetectedLockID()
	if lockID == "" {
		lockID = s.creds.LockID
	}
	frame, err := TTBuildSetWorkMode(lockID, sleep)
	if err != nil {
		return newErr("set_work_mode", ErrCommandFailed, err)
	}
	_, err = s.sendFrame(ctx, frame)
	if err != nil {
		return newErr("set_work_mode", classifyTTTransportErr(err), err)
	}
	return nil
}

// classifyTTTransportErr mirrors classifyGSeriesTransportErr: it preserves
// whatever Kind sendFrame already attached (ErrNotConnected, ErrTimeout, ...)
// rather than recomputing a coarser one.
func classifyTTTransportErr(err error) ErrKind {
	var le *LockError
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return ErrCommandFailed
}
