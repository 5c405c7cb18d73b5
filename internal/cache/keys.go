package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskStatusKey returns the cache key holding a task's last known status.
func TaskStatusKey(taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s", taskID)
}

// RateLimitKey returns the rate limit counter key for an API key prefix.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
