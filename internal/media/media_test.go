package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mp4Header = append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isommp41"), make([]byte, 64)...)

func newTestUploader() (*Uploader, afero.Fs) {
	fs := afero.NewMemMapFs()
	u := NewUploader(NewFSStore(fs, "/data", "https://cdn.test"), nil)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return u, fs
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a_paix_o_de_cristo_", Sanitize("A Paixão de Cristo!"))
	assert.Equal(t, "ben_hur", Sanitize("BEN-HUR"))
}

func TestMasterPlaylist(t *testing.T) {
	got := MasterPlaylist([]string{"360p", "4k", "1080p"})
	want := "#EXTM3U\n#EXT-X-VERSION:3\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n360p/playlist.m3u8\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080\n1080p/playlist.m3u8\n\n"
	assert.Equal(t, want, got)
}

func TestVariantPlaylist(t *testing.T) {
	p := VariantPlaylist()
	assert.True(t, strings.HasPrefix(p, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10"))
	assert.Equal(t, 2, strings.Count(p, "#EXTINF:10.0,"))
	assert.True(t, strings.HasSuffix(p, "#EXT-X-ENDLIST"))
}

func TestUploadVideo(t *testing.T) {
	u, fs := newTestUploader()

	asset, err := u.UploadVideo(context.Background(), "The Chosen", "ep1.mp4", bytes.NewReader(mp4Header))
	require.NoError(t, err)
	assert.Equal(t, "videos/originals/the_chosen_1700000000000.mp4", asset.Path)
	assert.Equal(t, "https://cdn.test/videos/originals/the_chosen_1700000000000.mp4", asset.URL)
	assert.Equal(t, "video/mp4", asset.ContentType)

	stored, err := afero.ReadFile(fs, "/data/videos/originals/the_chosen_1700000000000.mp4")
	require.NoError(t, err)
	assert.Equal(t, mp4Header, stored)
}

func TestUploadVideo_RejectsNonVideo(t *testing.T) {
	u, _ := newTestUploader()
	_, err := u.UploadVideo(context.Background(), "x", "x.mp4", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestUploadImage_Resizes(t *testing.T) {
	u, fs := newTestUploader()

	src := imaging.New(200, 100, color.NRGBA{R: 139, A: 255})
	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, src, imaging.PNG))

	asset, err := u.UploadImage(context.Background(), ImageThumbnail, "Ben Hur", &png)
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/ben_hur_1700000000000.jpg", asset.Path)
	assert.Equal(t, "image/jpeg", asset.ContentType)

	f, err := fs.Open("/data/" + asset.Path)
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), img.Bounds())
}

func TestProcessVideo(t *testing.T) {
	u, fs := newTestUploader()

	assets, err := u.ProcessVideo(context.Background(), UploadVideoRequest{
		Title:    "Ben Hur",
		Filename: "benhur.mp4",
		Video:    bytes.NewReader(mp4Header),
	})
	require.NoError(t, err)
	assert.True(t, assets.HLSPending)
	assert.Equal(t, "https://cdn.test/videos/hls/ben_hur_1700000000000/master.m3u8", assets.HLSURL)
	assert.Empty(t, assets.ThumbnailURL)

	master, err := afero.ReadFile(fs, "/data/videos/hls/ben_hur_1700000000000/master.m3u8")
	require.NoError(t, err)
	assert.Contains(t, string(master), "RESOLUTION=1280x720")

	ok, err := afero.Exists(fs, "/data/videos/hls/ben_hur_1700000000000/720p/playlist.m3u8")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFSStore_RejectsEmptyPath(t *testing.T) {
	s := NewFSStore(afero.NewMemMapFs(), "/data", "")
	_, err := s.Put(context.Background(), "/", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}
