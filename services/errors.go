package services

import "errors"

var (
	// ErrMatchNotFound means the update key matched neither a match id
	// nor a valid position in the collection.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNoPlayers means a match was submitted without any players.
	ErrNoPlayers = errors.New("at least one player is required")
)
