// Package protocol owns the printer wire contract and parsing primitives.
//
// Ownership boundary:
// - frame encode/decode and checksum
// - command opcode table and payload builders
// - frame splitter for raw transport chunks
// - status, heartbeat, device-info and RFID response decoders
package protocol
