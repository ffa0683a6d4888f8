package cache

import "github.com/GerlachSG/Cruciflix/internal/domain"

// Cache keys for catalog collections
const (
	// KeyMovies holds the movie list
	KeyMovies = string(domain.EntityMovies)

	// KeySeries holds the series list
	KeySeries = string(domain.EntitySeries)

	// KeyTags holds the tag list
	KeyTags = string(domain.EntityTags)

	// suffixTimestamp is appended to a key to address its write time
	suffixTimestamp = ":ts"
)

// KnownKeys returns every key cleared by a full eviction
func KnownKeys() []string {
	return []string{KeyMovies, KeySeries, KeyTags}
}

// KeyFor maps an entity type to its cache key
func KeyFor(t domain.EntityType) string {
	return string(t)
}

func timestampKey(key string) string {
	return key + suffixTimestamp
}
