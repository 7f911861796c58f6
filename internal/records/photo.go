package records

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

const maxPhotoEdge = 1600

var photoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// sniffPhoto detects the image type from the leading bytes.
func sniffPhoto(data []byte) (contentType, ext string, ok bool) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType = http.DetectContentType(head)
	ext, ok = photoTypes[contentType]
	return contentType, ext, ok
}

// normalizePhoto re-encodes JPEG and PNG uploads as a JPEG whose longer
// edge is at most maxPhotoEdge. Re-encoding drops EXIF metadata. WebP is
// stored as uploaded.
func normalizePhoto(r io.Reader, contentType, ext string) ([]byte, string, string, error) {
	if contentType == "image/webp" {
		data, err := io.ReadAll(r)
		return data, contentType, ext, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", "", fmt.Errorf("decode photo: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > maxPhotoEdge || b.Dy() > maxPhotoEdge {
		img = imaging.Fit(img, maxPhotoEdge, maxPhotoEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", "", fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}
