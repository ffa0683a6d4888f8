package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes are inspected to detect the file type
const sniffLen = 3072

// JPEGQuality is used for every re-encoded image
const JPEGQuality = 80

// ErrUnsupportedMedia indicates an upload of the wrong kind of file
var ErrUnsupportedMedia = errors.New("unsupported media type")

// ImageKind selects the target size of an uploaded image
type ImageKind string

const (
	ImageThumbnail ImageKind = "thumbnail"
	ImageBanner    ImageKind = "banner"
)

var imageSizes = map[ImageKind][2]int{
	ImageThumbnail: {1280, 720},
	ImageBanner:    {1920, 1080},
}

var imageDirs = map[ImageKind]string{
	ImageThumbnail: "thumbnails",
	ImageBanner:    "banners",
}

// Asset is an uploaded object
type Asset struct {
	Path        string
	URL         string
	ContentType string
}

// Uploader writes catalog media to an ObjectStore using stable naming
type Uploader struct {
	store  ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewUploader(store ObjectStore, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, logger: logger, now: time.Now}
}

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// Sanitize turns a title into an object name stem
func Sanitize(title string) string {
	return strings.ToLower(unsafeChars.ReplaceAllString(title, "_"))
}

func (u *Uploader) stem(title string) string {
	return fmt.Sprintf("%s_%d", Sanitize(title), u.now().UnixMilli())
}

// sniff detects the content type and returns a reader replaying the
// inspected bytes
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

func isKind(m *mimetype.MIME, prefix string) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}

// UploadVideo stores the original file under videos/originals
func (u *Uploader) UploadVideo(ctx context.Context, title, filename string, r io.Reader) (Asset, error) {
	m, body, err := sniff(r)
	if err != nil {
		return Asset{}, err
	}
	if !isKind(m, "video/") {
		return Asset{}, fmt.Errorf("%w: %s is not a video", ErrUnsupportedMedia, m.String())
	}

	ext := path.Ext(filename)
	if ext == "" {
		ext = m.Extension()
	}
	objectPath := "videos/originals/" + u.stem(title) + ext
	url, err := u.store.Put(ctx, objectPath, body, m.String())
	if err != nil {
		u.logger.Error("failed to upload video", "path", objectPath, "error", err)
		return Asset{}, err
	}
	u.logger.Info("uploaded video", "path", objectPath, "contentType", m.String())
	return Asset{Path: objectPath, URL: url, ContentType: m.String()}, nil
}

// UploadImage decodes an image, fills it to the standard size for kind and
// stores it as JPEG
func (u *Uploader) UploadImage(ctx context.Context, kind ImageKind, title string, r io.Reader) (Asset, error) {
	size, ok := imageSizes[kind]
	if !ok {
		return Asset{}, fmt.Errorf("%w: unknown image kind %q", ErrUnsupportedMedia, kind)
	}
	m, body, err := sniff(r)
	if err != nil {
		return Asset{}, err
	}
	if !isKind(m, "image/") {
		return Asset{}, fmt.Errorf("%w: %s is not an image", ErrUnsupportedMedia, m.String())
	}

	src, err := imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		return Asset{}, fmt.Errorf("failed to decode image: %w", err)
	}
	resized := imaging.Fill(src, size[0], size[1], imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return Asset{}, fmt.Errorf("failed to encode image: %w", err)
	}

	objectPath := imageDirs[kind] + "/" + u.stem(title) + ".jpg"
	url, err := u.store.Put(ctx, objectPath, &buf, "image/jpeg")
	if err != nil {
		u.logger.Error("failed to upload image", "path", objectPath, "error", err)
		return Asset{}, err
	}
	return Asset{Path: objectPath, URL: url, ContentType: "image/jpeg"}, nil
}

// PublishHLS writes the master playlist and one placeholder variant per
// resolution, returning the master playlist asset
func (u *Uploader) PublishHLS(ctx context.Context, title string, resolutions []string) (Asset, error) {
	if len(resolutions) == 0 {
		resolutions = []string{DefaultResolution}
	}
	base := "videos/hls/" + u.stem(title)

	masterPath := base + "/master.m3u8"
	masterURL, err := u.store.Put(ctx, masterPath, strings.NewReader(MasterPlaylist(resolutions)), PlaylistContentType)
	if err != nil {
		u.logger.Error("failed to upload master playlist", "path", masterPath, "error", err)
		return Asset{}, err
	}

	for _, res := range resolutions {
		if _, ok := findRendition(res); !ok {
			continue
		}
		variantPath := base + "/" + res + "/playlist.m3u8"
		if _, err := u.store.Put(ctx, variantPath, strings.NewReader(VariantPlaylist()), PlaylistContentType); err != nil {
			u.logger.Error("failed to upload variant playlist", "path", variantPath, "error", err)
			return Asset{}, err
		}
	}
	return Asset{Path: masterPath, URL: masterURL, ContentType: PlaylistContentType}, nil
}

// VideoAssets are the URLs recorded on a movie or episode after upload
type VideoAssets struct {
	VideoURL     string
	HLSURL       string
	ThumbnailURL string
	HLSPending   bool
}

// UploadVideoRequest bundles the inputs of a full video upload
type UploadVideoRequest struct {
	Title       string
	Filename    string
	Video       io.Reader
	Thumbnail   io.Reader // Optional
	Resolutions []string
}

// ProcessVideo uploads the original, publishes placeholder HLS playlists and
// the optional thumbnail
func (u *Uploader) ProcessVideo(ctx context.Context, req UploadVideoRequest) (VideoAssets, error) {
	original, err := u.UploadVideo(ctx, req.Title, req.Filename, req.Video)
	if err != nil {
		return VideoAssets{}, err
	}
	hls, err := u.PublishHLS(ctx, req.Title, req.Resolutions)
	if err != nil {
		return VideoAssets{}, err
	}
	assets := VideoAssets{VideoURL: original.URL, HLSURL: hls.URL, HLSPending: true}
	if req.Thumbnail != nil {
		thumb, err := u.UploadImage(ctx, ImageThumbnail, req.Title, req.Thumbnail)
		if err != nil {
			return VideoAssets{}, err
		}
		assets.ThumbnailURL = thumb.URL
	}
	return assets, nil
}
