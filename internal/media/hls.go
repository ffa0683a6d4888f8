package media

import (
	"fmt"
	"strings"
)

// PlaylistContentType is the MIME type of HLS playlists
const PlaylistContentType = "application/vnd.apple.mpegurl"

// DefaultResolution is used when no rendition is requested
const DefaultResolution = "720p"

// Rendition describes one HLS variant stream
type Rendition struct {
	Name       string
	Bandwidth  int
	Resolution string
}

// Renditions lists the supported variants, lowest first
var Renditions = []Rendition{
	{Name: "360p", Bandwidth: 800000, Resolution: "640x360"},
	{Name: "480p", Bandwidth: 1400000, Resolution: "854x480"},
	{Name: "720p", Bandwidth: 2800000, Resolution: "1280x720"},
	{Name: "1080p", Bandwidth: 5000000, Resolution: "1920x1080"},
}

func findRendition(name string) (Rendition, bool) {
	for _, r := range Renditions {
		if r.Name == name {
			return r, true
		}
	}
	return Rendition{}, false
}

// MasterPlaylist lists a stream entry per known resolution. Unknown names
// are skipped.
func MasterPlaylist(resolutions []string) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n\n")
	for _, name := range resolutions {
		r, ok := findRendition(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", r.Bandwidth, r.Resolution)
		fmt.Fprintf(&b, "%s/playlist.m3u8\n\n", r.Name)
	}
	return b.String()
}

// VariantPlaylist is a placeholder VOD playlist of two ten-second segments.
// Segments are not transcoded.
func VariantPlaylist() string {
	return strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-TARGETDURATION:10",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXTINF:10.0,",
		"segment_0.ts",
		"#EXTINF:10.0,",
		"segment_1.ts",
		"#EXT-X-ENDLIST",
	}, "\n")
}
