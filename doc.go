/*
Package welockbridge is the module root for the welockbridge BLE lock-control
core. The implementation lives in pkg/lock; this file documents the module
as a whole.

# Scope

welockbridge speaks two BLE lock wire protocols over a caller-supplied GATT
write/notify transport:

  - G-Series ("Bander V11"): plain or AES-128-ECB encrypted frames bounded by
    0xF1 0x1F / 0xF2 0x2F (command) and 0xF3 0x3F / 0xF4 0x4F (response)
    headers/tails, with a single-byte "SunCheck" integrity check and a
    TLV parameter payload.
  - TT-Series ("TOTARGET A7"): a one-byte encryption-mode header, one-byte
    length, business data, and a CRC-8/MAXIM trailer, with fixed-shape
    business-data payloads per command.

Both protocols share a session engine (pkg/lock.Session) that serializes
commands, correlates responses, reassembles fragmented notifications into
whole frames, and polls device status on an interval.

# What this module does not do

BLE scanning/advertisement filtering, platform GATT service discovery,
runtime permission handling, a public convenience SDK facade, and example UI
code are all external collaborators. welockbridge consumes a narrow
Transport contract (pkg/lock.Transport) and produces a Session; wiring a
concrete BLE stack to that contract is the embedding application's job.

# Protocol selection

pkg/lock.SelectVariant maps a Credentials value and an optional scanned
device name to the protocol variant the session should speak: a variant
already set on the Credentials always wins; only when none is set is an
8-digit device name treated as a TT-Series auto-detect hint, and a small set
of substrings ("g4-", "g-lock", "gseries", "imz", "bander") hint at G-Series.

See pkg/lock's package doc for the byte-exact wire formats, the retry/verify
rules for ambiguous result codes, and the concurrency model of the session
engine.
*/
package welockbridge
