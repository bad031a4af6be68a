package redis

import "fmt"

// roomKeyPrefix returns the prefix shared by all keys of one room instance
func roomKeyPrefix(prefix, party, roomID string) string {
	return fmt.Sprintf("%s:%s:%s:", prefix, party, roomID)
}
