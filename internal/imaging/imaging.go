// Package imaging prepares book images: uploaded covers, social preview
// cards and images embedded in the catalog as data URIs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the maximum width or height for stored covers.
const MaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// Preview card size used by Open Graph scrapers.
const (
	PreviewWidth  = 1200
	PreviewHeight = 630
)

// PreviewBackground fills the letterbox around a preview cover.
var PreviewBackground = color.RGBA{0xFF, 0xF8, 0xE1, 0xFF}

// AllowedMIME lists the accepted upload MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Extensions maps data URI MIME types to file extensions.
var Extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ErrNotDataURI is returned for references that are not inline images.
var ErrNotDataURI = errors.New("not an image data URI")

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
}

// Process reads an uploaded cover, validates the format by sniffing bytes,
// downscales it to MaxDimension and re-encodes it as JPEG.
func Process(r io.Reader) (*ProcessResult, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(downscale(img, MaxDimension))
}

// Preview renders the image centred on a PreviewWidth x PreviewHeight card,
// scaled to fit and letterboxed with PreviewBackground.
func Preview(r io.Reader) (*ProcessResult, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, PreviewWidth, PreviewHeight))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: PreviewBackground}, image.Point{}, draw.Src)

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), PreviewWidth, PreviewHeight)
	x := (PreviewWidth - w) / 2
	y := (PreviewHeight - h) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), img, b, draw.Over, nil)

	return encodeJPEG(dst)
}

// DataURI is a decoded inline image.
type DataURI struct {
	MIME string
	Ext  string
	Data []byte
}

// IsDataURI reports whether ref is an inline image.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:image/")
}

// DecodeDataURI decodes a base64 data:image URI.
func DecodeDataURI(ref string) (*DataURI, error) {
	if !IsDataURI(ref) {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("data URI without payload")
	}
	mime, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	mime = strings.ToLower(mime)
	ext, ok := Extensions[mime]
	if !ok {
		return nil, fmt.Errorf("unsupported data URI type %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return &DataURI{MIME: mime, Ext: ext, Data: data}, nil
}

func decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff the actual type, never trust the client header.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG, PNG and WebP accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) (*ProcessResult, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return &ProcessResult{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// fit scales w x h to fit inside maxW x maxH, preserving the aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(int(math.Round(float64(w)*scale)), 1)
	nh := max(int(math.Round(float64(h)*scale)), 1)
	return nw, nh
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return img
	}

	newW, newH := fit(bounds.Dx(), bounds.Dy(), maxDim, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
