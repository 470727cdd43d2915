package engine

import "errors"

var (
	ErrWriteFailed     = errors.New("engine: write failed")
	ErrTransportClosed = errors.New("engine: transport closed")
	ErrJobInProgress   = errors.New("engine: print job already in progress")
	ErrNoResponse      = errors.New("engine: no response from printer")
	ErrCommandRejected = errors.New("engine: command rejected by printer")
)
