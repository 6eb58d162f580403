package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrImageTooLarge indicates the decoded scan exceeds the configured limit.
	ErrImageTooLarge = errors.New("essay image exceeds maximum allowed size")
	// ErrImageTypeNotAllowed indicates the scan is not a supported image format.
	ErrImageTypeNotAllowed = errors.New("essay image type not allowed")
	// ErrImageEncoding indicates the scan is neither a data URI nor valid base64.
	ErrImageEncoding = errors.New("essay image is not valid base64")
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// essayImage is a scan ready to be attached to an inference request.
type essayImage struct {
	Data    []byte
	MIME    string
	Resized bool
}

// DataURI renders the image as an inline data URI.
func (i essayImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIME, base64.StdEncoding.EncodeToString(i.Data))
}

// Extension returns the file extension for the image type.
func (i essayImage) Extension() string {
	return mimetype.Lookup(i.MIME).Extension()
}

// prepareEssayImage decodes a data URI or bare base64 payload, checks its type by content and
// downscales it so the longest side is at most maxDimension pixels.
func prepareEssayImage(raw string, maxBytes int64, maxDimension int) (essayImage, error) {
	data, err := decodeImagePayload(raw)
	if err != nil {
		return essayImage{}, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return essayImage{}, ErrImageTooLarge
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), allowedImageTypes...) {
		return essayImage{}, fmt.Errorf("%w: %s", ErrImageTypeNotAllowed, detected.String())
	}

	image := essayImage{Data: data, MIME: detected.String()}
	if maxDimension <= 0 || detected.Is("image/webp") {
		return image, nil
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return essayImage{}, fmt.Errorf("%w: %v", ErrImageTypeNotAllowed, err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return image, nil
	}

	resized := imaging.Fit(decoded, maxDimension, maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return essayImage{}, fmt.Errorf("encode resized essay image: %w", err)
	}

	return essayImage{Data: buf.Bytes(), MIME: "image/jpeg", Resized: true}, nil
}

func decodeImagePayload(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, ErrImageEncoding
		}
		payload = payload[comma+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	if payload == "" {
		return nil, ErrImageEncoding
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, ErrImageEncoding
		}
	}
	return data, nil
}
