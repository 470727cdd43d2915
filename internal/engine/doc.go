// Package engine drives the printer protocol over a connected transport.
//
// Ownership boundary:
// - write queue: single-writer serialization, retry, settle pacing
// - correlator: FIFO matching of inbound frames to outstanding requests
// - client: transport pump plus the public device operations
// - print job: the multi-step state machine for one physical print
package engine
