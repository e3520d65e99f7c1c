package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"

	// Extra decoders for phone and desktop uploads beyond jpeg/png/gif.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxInputBytes caps raw uploads before any decoding work.
const MaxInputBytes = 20 << 20

// MaxInputPixels caps the declared pixel count so a small, highly compressed
// file cannot expand into gigabytes of NRGBA on decode.
const MaxInputPixels = 50_000_000

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Fingerprints are blurhashes over a small thumbnail of the pixel grid.
const (
	fingerprintXComponents = 4
	fingerprintYComponents = 3
	fingerprintGrid        = 32
)

var (
	ErrDecode   = errors.New("input is not a decodable image")
	ErrTooLarge = errors.New("input exceeds the size limit")
	ErrEmpty    = errors.New("input is empty")
)

type Options struct {
	Width   int
	Format  string
	Quality int
}

func DefaultOptions() Options {
	return Options{Width: 1024, Format: FormatPNG, Quality: 100}
}

type Normalized struct {
	Data        []byte
	Fingerprint string
	Width       int
	Height      int
	ContentType string
}

// Normalize decodes raw bytes of any registered format and re-encodes them as
// a Width x Width square. The resize stretches to fill: aspect ratio is not
// preserved. PNG output always carries an alpha channel, even for opaque
// sources.
func Normalize(raw []byte, opts Options) (*Normalized, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	if len(raw) > MaxInputBytes {
		return nil, ErrTooLarge
	}
	opts = withDefaults(opts)

	if err := checkDimensions(raw); err != nil {
		return nil, err
	}
	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := imaging.Resize(src, opts.Width, opts.Width, imaging.Lanczos)

	var buf bytes.Buffer
	contentType := "image/png"
	switch opts.Format {
	case FormatJPEG:
		contentType = "image/jpeg"
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	default:
		err = imaging.Encode(&buf, alphaImage{resized}, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(opts.Quality)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	fingerprint, err := fingerprintImage(resized)
	if err != nil {
		return nil, err
	}

	return &Normalized{
		Data:        buf.Bytes(),
		Fingerprint: fingerprint,
		Width:       opts.Width,
		Height:      opts.Width,
		ContentType: contentType,
	}, nil
}

// Fingerprint decodes data and returns its visual fingerprint. Near-identical
// images produce equal or near-equal strings.
func Fingerprint(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if err := checkDimensions(data); err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fingerprintImage(img)
}

// alphaImage reports itself as non-opaque so the PNG encoder always writes
// RGBA (color type 6) instead of collapsing opaque pixels to RGB.
type alphaImage struct{ *image.NRGBA }

func (alphaImage) Opaque() bool { return false }

// checkDimensions reads only the header and rejects images whose declared
// size exceeds MaxInputPixels.
func checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func fingerprintImage(img image.Image) (string, error) {
	thumb := imaging.Resize(img, fingerprintGrid, fingerprintGrid, imaging.Box)
	hash, err := blurhash.Encode(fingerprintXComponents, fingerprintYComponents, thumb)
	if err != nil {
		return "", fmt.Errorf("failed to compute fingerprint: %w", err)
	}
	return hash, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}
	return opts
}

// pngLevel maps a 1-100 quality to a zlib level. PNG is lossless, so quality
// only trades encode time for size.
func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality >= 90:
		return png.BestCompression
	case quality >= 50:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}
