package lock

import "fmt"

// Status class: high nibble of the LockStatus byte.
const (
	ttStatusOpen        byte = 0x10
	ttStatusStandby     byte = 0x20
	ttStatusNotReady    byte = 0x30
	ttStatusSealed      byte = 0x40
	ttStatusLocalSealed byte = 0x50
	ttStatusUnsealed    byte = 0x60
	ttStatusAlarm       byte = 0x70
	ttStatusCancelAlarm byte = 0x90
	ttStatusAbnormal    byte = 0xA0
)

// Alarm bitset: low nibble of the LockStatus byte, only meaningful when the
// status class is ttStatusAlarm.
const (
	TTAlarmRodCut    byte = 0x01
	TTAlarmOpened    byte = 0x02
	TTAlarmShell     byte = 0x04
	TTAlarmEmergency byte = 0x08
)

// Response codes of particular interest to the session engine.
const (
	TTRespCheckOK             byte = 0x62
	TTRespLockSuccess         byte = 0x80
	TTRespLockAgain           byte = 0x81
	TTRespUnlockSuccess       byte = 0x90
	TTRespUnlockAgain         byte = 0x91
	TTRespUnlockWrongPassword byte = 0x93
)

// TTStatus is the interpreted form of a TT-Series LockStatus byte.
type TTStatus struct {
	State      LockState
	IsAlarm    bool
	AlarmFlags byte // valid only when IsAlarm
}

// TTInterpretStatus classifies a raw LockStatus byte per its high nibble
// (status class) and, for the ALARM class only, its low nibble (flag bits).
func TTInterpretStatus(lockStatus byte) TTStatus {
	class := lockStatus & 0xF0
	switch class {
	case ttStatusSealed, ttStatusLocalSealed:
		return TTStatus{State: LockLocked}
	case ttStatusUnsealed, ttStatusOpen:
		return TTStatus{State: LockUnlocked}
	case ttStatusAlarm:
		return TTStatus{State: LockUnknown, IsAlarm: true, AlarmFlags: lockStatus & 0x0F}
	default:
		return TTStatus{State: LockUnknown}
	}
}

// TTLockResponse is the decoded business data of a Lock/Unlock/CheckStatus
// reply: CMD | LockID(4) | Battery(1) | LockStatus(1) | Reserved(1) |
// OpSource(1) | DateTime(6).
type TTLockResponse struct {
	Cmd      byte
	LockID   string
	Battery  byte
	Status   TTStatus
	OpSource byte
	DateTime [6]byte
}

// TTParseLockResponse decodes a Lock/Unlock/CheckStatus business payload.
func TTParseLockResponse(business []byte) (*TTLockResponse, error) {
	const wantLen = 1 + 4 + 1 + 1 + 1 + 1 + 6 // 15
	if len(business) < wantLen {
		return nil, newErr("ttseries_parse_lock_response", ErrDecoding,
			fmt.Errorf("business payload too short: got %d want %d", len(business), wantLen))
	}
	var id [4]byte
	copy(id[:], business[1:5])
	var when [6]byte
	copy(when[:], business[9:15])
	return &TTLockResponse{
		Cmd:      business[0],
		LockID:   TTDecodeLockID(id),
		Battery:  business[5],
		Status:   TTInterpretStatus(business[6]),
		OpSource: business[8],
		DateTime: when,
	}, nil
}
