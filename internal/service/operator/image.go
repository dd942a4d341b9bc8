package operator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/domain"
)

const (
	// MaxImageBytes is the largest upload accepted.
	MaxImageBytes = 10 << 20
	// MaxImageSide bounds both dimensions of an uploaded image.
	MaxImageSide = 1600
	// MaxImagePixels caps width*height read from the header before decoding.
	MaxImagePixels = 40_000_000
)

// Upload is a file received from the admin form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadImage checks and normalizes an image and stores it upstream,
// returning the public URL.
func (s *Service) UploadImage(ctx context.Context, up Upload) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(up.ContentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", domain.Invalid("image", "Можно загрузить только изображение")
	}
	if len(up.Data) == 0 {
		return "", domain.Invalid("image", "Файл пустой")
	}
	if len(up.Data) > MaxImageBytes {
		return "", domain.Invalid("image", fmt.Sprintf("Файл слишком большой (макс. %dMB)", MaxImageBytes>>20))
	}

	data, contentType, err := normalizeImage(up, mediaType)
	if err != nil {
		return "", err
	}
	filename := up.Filename
	if filename == "" {
		filename = "image"
	}
	form, err := apiclient.NewFileForm("image", filename, contentType, data)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := s.call(ctx, http.MethodPost, "/images", form, "Не удалось загрузить изображение", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", &domain.RequestError{Status: http.StatusBadGateway, Message: "Сервер не вернул url изображения"}
	}
	s.logger.Info("image uploaded", zap.String("url", out.URL), zap.Int("bytes", len(data)))
	return out.URL, nil
}

// normalizeImage decodes the upload and shrinks it to fit MaxImageSide.
// Images already within bounds are sent unchanged.
func normalizeImage(up Upload, mediaType string) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return nil, "", domain.Invalid("image", "Можно загрузить только изображение")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, "", domain.Invalid("image", fmt.Sprintf("Изображение слишком большое (макс. %d Мпикс)", MaxImagePixels/1_000_000))
	}
	img, err := imaging.Decode(bytes.NewReader(up.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", domain.Invalid("image", "Можно загрузить только изображение")
	}
	b := img.Bounds()
	if b.Dx() <= MaxImageSide && b.Dy() <= MaxImageSide {
		return up.Data, mediaType, nil
	}

	format, err := imaging.FormatFromFilename(up.Filename)
	if err != nil {
		format, err = imaging.FormatFromExtension(strings.TrimPrefix(mediaType, "image/"))
		if err != nil {
			format = imaging.JPEG
		}
	}
	resized := imaging.Fit(img, MaxImageSide, MaxImageSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), formatContentType(format, up.Filename), nil
}

func formatContentType(f imaging.Format, filename string) string {
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.JPEG:
		return "image/jpeg"
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
