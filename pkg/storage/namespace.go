package storage

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// DefaultNamespace is used when a backend config leaves Namespace empty
const DefaultNamespace = "default"

// KeyPrefix returns the key prefix owned by a namespace.
// Format: "at:" + 16 hex digits of xxhash64(namespace) + ":"
func KeyPrefix(namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return fmt.Sprintf("at:%016x:", xxhash.Sum64String(namespace))
}
