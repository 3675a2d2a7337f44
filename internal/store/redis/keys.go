package redis

// KeyPrefix namespaces every readmark key in a shared Redis instance.
const KeyPrefix = "readmark:"

// Key returns the Redis key for a (collection, userID) pair.
func Key(collection, userID string) string {
	return KeyPrefix + collection + ":" + userID
}
