package domain

// Link is a supplementary link attached to a resolved media descriptor,
// such as the channel page of a video.
type Link struct {
	Label string
	URL   string
}

// MediaDescriptor is the playable representation of a source URL produced
// by a parser. It is immutable once produced.
type MediaDescriptor struct {
	// URL is the directly playable stream location.
	URL string
	// OriginalURL is the source URL the descriptor was resolved from.
	OriginalURL string
	Title       string
	MimeType    string

	ThumbnailURL string

	// Duration in seconds. Zero means unknown, which includes live streams.
	Duration float64

	SupportsResume bool
	IsLive         bool

	Links []Link
}
