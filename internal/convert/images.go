package convert

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log"

	"github.com/disintegration/imaging"

	"github.com/shiomura/bookroom/internal/book"
)

const jpegQuality = 85

// processAssets downscales extracted images wider than maxWidth, keeping the
// aspect ratio and the original format. Assets that cannot be decoded or
// re-encoded pass through untouched; a broken image is the source's problem,
// not a conversion failure.
func processAssets(assets []book.ImageAsset, maxWidth int) []book.ImageAsset {
	if maxWidth <= 0 {
		return assets
	}

	out := make([]book.ImageAsset, len(assets))
	for i, a := range assets {
		out[i] = a

		cfg, format, err := image.DecodeConfig(bytes.NewReader(a.Data))
		if err != nil || cfg.Width <= maxWidth {
			continue
		}

		src, _, err := image.Decode(bytes.NewReader(a.Data))
		if err != nil {
			log.Printf("warning: failed to decode image %s: %v, keeping original", a.Name, err)
			continue
		}
		resized := imaging.Resize(src, maxWidth, 0, imaging.Lanczos)

		var buf bytes.Buffer
		switch format {
		case "jpeg":
			err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality})
		case "png":
			err = png.Encode(&buf, resized)
		default:
			continue
		}
		if err != nil {
			log.Printf("warning: failed to re-encode image %s: %v, keeping original", a.Name, err)
			continue
		}
		out[i].Data = buf.Bytes()
	}
	return out
}
