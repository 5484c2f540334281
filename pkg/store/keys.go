package store

import "strconv"

// Three disjoint key prefixes partition the keyspace so records, the exact
// name index and the prefix index coexist in one store without collision.
const (
	recordKeyPrefix = "city:"
	nameKeyPrefix   = "name:"
	searchKeyPrefix = "search:"
)

// RecordKey returns the key holding the serialized record for id.
func RecordKey(id int64) string {
	return recordKeyPrefix + strconv.FormatInt(id, 10)
}

// RecordKeyFor is RecordKey for an id already in its decimal string form,
// as stored in the index membership sets.
func RecordKeyFor(member string) string {
	return recordKeyPrefix + member
}

// NameKey returns the key of the id set for a normalized full name.
func NameKey(normalized string) string {
	return nameKeyPrefix + normalized
}

// PrefixKey returns the key of the id set for a normalized name prefix.
func PrefixKey(prefix string) string {
	return searchKeyPrefix + prefix
}
