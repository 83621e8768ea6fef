package lock

import (
	"bytes"
	"testing"
)

func TestTTEncodeDecodeLockIDRoundTrip(t *testing.T) {
	want := "83181001"
	enc, err := TTEncodeLockID(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := TTDecodeLockID(enc)
	if got != want {
		t.Fatalf("round trip = %q, want %q", got, want)
	}
}

func TestTTEncodeLockIDKnownVector(t *testing.T) {
	enc, err := TTEncodeLockID("83181001")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := [4]byte{0x20, 0x7E, 0x03, 0xE9}
	if enc != want {
		t.Fatalf("encode(83181001) = %x, want %x", enc, want)
	}
}

func TestTTEncodeLockIDRejectsWrongLength(t *testing.T) {
	if _, err := TTEncodeLockID("1234"); err == nil {
		t.Fatalf("expected error for short lock id")
	}
}

func TestTTEncodePasswordRightPads(t *testing.T) {
	got := TTEncodePassword("12")
	want := [6]byte{'1', '2', '0', '0', '0', '0'}
	if got != want {
		t.Fatalf("TTEncodePassword(\"12\") = %q, want %q", got, want)
	}
}

func TestTTBuildLockFrameShape(t *testing.T) {
	var when [6]byte
	frame, err := TTBuildLock("83181001", "1234", when, nil, false)
	if err != nil {
		t.Fatalf("TTBuildLock: %v", err)
	}
	if frame[0] != TTEncPlain {
		t.Fatalf("ENC = %#02x, want plain", frame[0])
	}
	wantLen := 1 + 4 + 6 + 6 // cmd + lockid + password + datetime
	if int(frame[1]) != wantLen {
		t.Fatalf("LEN = %d, want %d", frame[1], wantLen)
	}
	if len(frame) != 2+wantLen+1 {
		t.Fatalf("frame length %d, want %d", len(frame), 2+wantLen+1)
	}
	business := frame[2 : 2+wantLen]
	if business[0] != TTCmdLock {
		t.Fatalf("business CMD = %#02x, want lock", business[0])
	}
	id, _ := TTEncodeLockID("83181001")
	if !bytes.Equal(business[1:5], id[:]) {
		t.Fatalf("business lock-id = %x, want %x", business[1:5], id)
	}
	pw := TTEncodePassword("1234")
	if !bytes.Equal(business[5:11], pw[:]) {
		t.Fatalf("business password = %x, want %x", business[5:11], pw)
	}
}

func TestTTBuildEncryptedParseRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i + 1)
	}
	var when [6]byte
	frame, err := TTBuildLock("83181001", "1234", when, key, true)
	if err != nil {
		t.Fatalf("TTBuildLock: %v", err)
	}
	resp, err := TTParseFrame(frame, key)
	if err != nil {
		t.Fatalf("TTParseFrame: %v", err)
	}
	if !resp.Encrypted {
		t.Fatalf("expected Encrypted=true")
	}
	if resp.Business[0] != TTCmdLock {
		t.Fatalf("business CMD = %#02x, want lock", resp.Business[0])
	}
}

func TestTTParseFrameRejectsUnknownEncByte(t *testing.T) {
	_, err := TTParseFrame([]byte{0x77, 0x00, 0x00}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown ENC byte")
	}
}

func TestTTInterpretStatusClassifiesLockedUnlockedAlarm(t *testing.T) {
	cases := []struct {
		raw     byte
		want    LockState
		isAlarm bool
	}{
		{0x40, LockLocked, false},
		{0x50, LockLocked, false},
		{0x60, LockUnlocked, false},
		{0x10, LockUnlocked, false},
		{0x73, LockUnknown, true},
	}
	for _, c := range cases {
		got := TTInterpretStatus(c.raw)
		if got.State != c.want || got.IsAlarm != c.isAlarm {
			t.Fatalf("TTInterpretStatus(%#02x) = %+v, want state=%v alarm=%v", c.raw, got, c.want, c.isAlarm)
		}
	}
}

func TestTTInterpretStatusAlarmFlags(t *testing.T) {
	got := TTInterpretStatus(0x70 | TTAlarmRodCut | TTAlarmOpened)
	if !got.IsAlarm {
		t.Fatalf("expected alarm class")
	}
	if got.AlarmFlags != (TTAlarmRodCut | TTAlarmOpened) {
		t.Fatalf("AlarmFlags = %#02x, want %#02x", got.AlarmFlags, TTAlarmRodCut|TTAlarmOpened)
	}
}

func TestTTParseLockResponseKnownShape(t *testing.T) {
	business := []byte{
		TTRespLockSuccess,
		0x20, 0x7E, 0x03, 0xE9, // lock-id 83181001
		0x4B,       // battery 75
		0x40,       // sealed
		0x00,       // reserved
		0x02,       // op source
		0x26, 0x03, 0x05, 0x14, 0x30, 0x00, // datetime
	}
	got, err := TTParseLockResponse(business)
	if err != nil {
		t.Fatalf("TTParseLockResponse: %v", err)
	}
	if got.Cmd != TTRespLockSuccess {
		t.Fatalf("Cmd = %#02x, want lock success", got.Cmd)
	}
	if got.LockID != "83181001" {
		t.Fatalf("LockID = %q, want 83181001", got.LockID)
	}
	if got.Battery != 0x4B {
		t.Fatalf("Battery = %d, want 75", got.Battery)
	}
	if got.Status.State != LockLocked {
		t.Fatalf("Status.State = %v, want locked", got.Status.State)
	}
	if got.OpSource != 0x02 {
		t.Fatalf("OpSource = %#02x, want 0x02", got.OpSource)
	}
}

func TestTTParseLockResponseRejectsShortPayload(t *testing.T) {
	if _, err := TTParseLockResponse([]byte{0x01, 0x02}); err == nil {
		t.Fatalf("expected error for too-short business payload")
	}
}
