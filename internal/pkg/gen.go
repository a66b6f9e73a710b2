package pkg

import "github.com/google/uuid"

// GenerateGameID - generates a unique identifier for a game session.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateNewSessionID - generates a new unique connection session ID.
func GenerateNewSessionID() string {
	return uuid.New().String()
}
