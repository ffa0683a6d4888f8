package domain

// Entity is implemented by every cached catalog document.
// The cache and change detection only look at identity and freshness.
type Entity interface {
	// GetID returns the document id
	GetID() string

	// Freshness returns UpdatedAt when set, CreatedAt otherwise
	Freshness() int64
}

// Content is the polymorphic view over movies and series used by listings,
// search and filters. Movie and Series implement this interface directly.
type Content interface {
	Entity

	// GetTitle returns the display title
	GetTitle() string

	// GetDescription returns the synopsis
	GetDescription() string

	// GetTags returns the tag names attached to the title
	GetTags() []string

	// GetCreatedAt returns the creation time in unix millis
	GetCreatedAt() int64

	// GetContentType returns "movie" or "series"
	GetContentType() ContentType

	// Featured reports whether the title is promoted on the home screen
	Featured() bool

	// KidsSafe reports whether the title is visible to kids profiles
	KidsSafe() bool
}

// Compile-time checks
var (
	_ Content = (*Movie)(nil)
	_ Content = (*Series)(nil)
	_ Entity  = (*Episode)(nil)
	_ Entity  = (*Tag)(nil)
)
