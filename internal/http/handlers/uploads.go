package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"artisanreel/internal/domain"
)

const (
	maxImagesPerRequest = 10
	maxImageBytes       = 10 << 20
)

// videoForm is the product submission shared by the video and prompt
// endpoints. It arrives either as multipart (files under "images") or as JSON
// with image URLs.
type videoForm struct {
	Script      string   `json:"script"`
	ProductName string   `json:"product_name"`
	ImageURLs   []string `json:"image_urls"`

	images []domain.Image
}

func (a *App) readVideoForm(w http.ResponseWriter, r *http.Request) (*videoForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var form videoForm
		if err := a.decodeJSON(w, r, &form); err != nil {
			return nil, err
		}
		if err := form.addURLs(form.ImageURLs); err != nil {
			return nil, err
		}
		return &form, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes())
	if err := r.ParseMultipartForm(a.maxUploadBytes()); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidInput)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := &videoForm{
		Script:      r.FormValue("script"),
		ProductName: r.FormValue("product_name"),
	}
	files := r.MultipartForm.File["images"]
	if len(files)+len(r.MultipartForm.Value["image_urls"]) > maxImagesPerRequest {
		return nil, fmt.Errorf("%w: at most %d images are allowed", domain.ErrInvalidInput, maxImagesPerRequest)
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		if len(data) > maxImageBytes {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidInput, fh.Filename, maxImageBytes)
		}
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, fmt.Errorf("%w: %s is not an image", domain.ErrInvalidInput, fh.Filename)
		}
		form.images = append(form.images, domain.Image{Data: data, MIME: mimeType})
	}
	if err := form.addURLs(r.MultipartForm.Value["image_urls"]); err != nil {
		return nil, err
	}
	return form, nil
}

func (f *videoForm) addURLs(urls []string) error {
	if len(f.images)+len(urls) > maxImagesPerRequest {
		return fmt.Errorf("%w: at most %d images are allowed", domain.ErrInvalidInput, maxImagesPerRequest)
	}
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			return fmt.Errorf("%w: image url %q must be http(s)", domain.ErrInvalidInput, u)
		}
		f.images = append(f.images, domain.Image{URL: u})
	}
	return nil
}

func (f *videoForm) validate() error {
	f.Script = strings.TrimSpace(f.Script)
	f.ProductName = strings.TrimSpace(f.ProductName)
	if f.ProductName == "" {
		return fmt.Errorf("%w: product_name is required", domain.ErrInvalidInput)
	}
	if f.Script == "" {
		return fmt.Errorf("%w: script is required", domain.ErrInvalidInput)
	}
	return nil
}
