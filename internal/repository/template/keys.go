package template

// KeyPrefix namespaces template hashes; the FT index covers exactly this prefix.
const KeyPrefix = "promptdex:tpl:"

// IndexName is the ranked text index over template hashes.
const IndexName = "promptdex:tpl:idx"

// Key returns the hash key for a template id.
func Key(id string) string {
	return KeyPrefix + id
}

// IDFromKey strips the key prefix. Keys outside the namespace are returned unchanged.
func IDFromKey(key string) string {
	if len(key) > len(KeyPrefix) && key[:len(KeyPrefix)] == KeyPrefix {
		return key[len(KeyPrefix):]
	}
	return key
}
