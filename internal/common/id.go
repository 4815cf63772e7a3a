package common

import (
	"github.com/google/uuid"
)

// NewPostmortemID generates a unique postmortem note ID with the "pm_" prefix
// Format: pm_<uuid>
func NewPostmortemID() string {
	return "pm_" + uuid.New().String()
}
