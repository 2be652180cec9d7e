package domain

import "errors"

var (
	// ErrSessionInProgress is returned when a participant starts a reading while owning another.
	ErrSessionInProgress = errors.New("participant already has a reading in progress")
	// ErrNoSession is returned when a command arrives for a participant without a session.
	ErrNoSession = errors.New("no reading in progress")
	// ErrNotAQuestion indicates the message does not contain an answer line.
	ErrNotAQuestion = errors.New("message is not a question")
	// ErrMalformedQuestion indicates the question is missing its reveal delimiters.
	ErrMalformedQuestion = errors.New("question is not properly formatted")
	// ErrNotFound is returned by chat and storage lookups that miss.
	ErrNotFound = errors.New("not found")
	// ErrChannelNotConfigured indicates the channel has no playtesting/results mapping.
	ErrChannelNotConfigured = errors.New("channel not configured")
	// ErrPacketNotSet indicates no packet is being read on the server.
	ErrPacketNotSet = errors.New("packet not configured")
)
