/*
Package lock implements the G-Series and TT-Series BLE lock wire protocols
and the per-connection session engine that drives them.

# G-Series frame layout

Command frame:

	HDR(2)=F1 1F | COMM(2) | CMD(2)BE | LEN(2)BE | BODY | CHK(1) | TAIL(2)=F2 2F

COMM is 0xFFFF for a plain frame or 0xFFEE for an encrypted one. CMD is
0x0310 (SET_PARAMS) or 0x0312 (QUERY_PARAMS). LEN is the *pre-padding*
length of the logical body: for a plain frame that's len(BODY); for an
encrypted frame it's 2(crc)+6(serial)+4(nonce)+len(content), and BODY itself
is zero-padded up to the next 16-byte boundary after AES-128-ECB encryption.
CHK is SunCheck (see Checksum) computed over every byte from COMM through
the end of BODY, i.e. strictly between HDR and CHK.

Response frames use HDR=F3 3F / TAIL=F4 4F with the same shape, or a 3-byte
short ACK: 20 F1 <result>.

Encrypted BODY, before AES:

	CRC16(2)BE-over-content | SERIAL(6)BCD | NONCE(4) | CONTENT(N)

Decrypt, then discard the 12-byte prefix (CRC+serial+nonce) to recover
CONTENT. CONTENT's first byte is a result code: 0x00 success, 0x01 fail,
0x04 bad serial, 0x05 bad CRC, 0x06 other, 0x11 "possibly succeeded" (session
verifies by re-querying).

Parameter payload (TLV): [count(1)][id(1) len(1) value(len)]... — except
QUERY_PARAMS requests, whose body is a single byte (the parameter id, no
count prefix). Parameter ids: LOCK_STATE=0x30, SEAL_STATE=0x24,
BATTERY=0x94, PASSWORD=0x26. Lock/unlock writes SEAL_STATE; status queries
read LOCK_STATE.

# TT-Series frame layout

	ENC(1) | LEN(1) | BODY | CRC8(1)

ENC is 0x01 (plain) or 0x11 (AES). LEN is always the *business-data* length,
never the padded on-wire length. When ENC=0x11, BODY on the wire spans
ceil(LEN/16)*16 bytes (AES-128-ECB, zero-padded); decrypt and truncate back
to LEN to recover business data. CRC8 is CRC-8/MAXIM over ENC‖LEN‖BODY (the
on-wire body, padded or not).

Business-data shapes (CMD is always byte 0):

	Lock/Unlock/CheckStatus: CMD | LockID(4) | Password(6 ASCII) | DateTime(6 BCD)
	CalibrateTime/CheckVersion: CMD | DateTime(6)
	SetWorkMode: CMD | LockID(4) | Mode(1)
	HeartbeatReply: CMD | LockID(4) | DateTime(6)

Response shape (Lock/Unlock/CheckStatus): CMD | LockID(4) | Battery(1) |
LockStatus(1) | Reserved(1) | OpSource(1) | DateTime(6).

LockStatus: high nibble is a status class (OPEN, STANDBY, NOT_READY,
SEALED, LOCAL_SEALED, UNSEALED, ALARM, CANCEL_ALARM, ABNORMAL); low nibble
is only meaningful when the class is ALARM, where it's a bitset (ROD_CUT,
OPENED, SHELL, EMERGENCY).

# Session engine

Session drives exactly one device: it owns the Transport, the chosen codec,
credentials, a ReassemblyBuffer, observable LockState/ConnectionState
publishers, a single in-flight command correlator, the last-known battery,
and (TT-Series only) the auto-detected lock-id. Commands are strictly
serialized; at most one awaits a response at a time. A background poller
queries status on a fixed interval (5s G-Series, 10s TT-Series) and an
inbound pump continuously feeds notification bytes into the reassembly
buffer, dispatching fully-extracted frames either to the pending command
correlator or (TT-Series async messages: heartbeat/alarm) to an async
handler.
*/
package lock
