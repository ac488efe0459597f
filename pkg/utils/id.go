package utils

import (
	"github.com/google/uuid"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		logger.L().Errorw("Failed to generate UUID", "error", err)
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
