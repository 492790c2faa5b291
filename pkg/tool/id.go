package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered id. User ids and registration
// correlation ids both use v7 so rows sort roughly by creation time.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
