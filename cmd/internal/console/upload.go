package console

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"console/cmd/internal/backend"
)

var errNoImage = errors.New("no image")

// decodeForm fills dst from a JSON body or from a multipart form. Any other
// content type is rejected with errUnsupportedMediaType.
// For multipart forms the image part, if any, is returned as an upload.
func decodeForm(w http.ResponseWriter, r *http.Request, dst any, fill func(get func(string) []string)) (*backend.Upload, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return nil, decodeJSON(w, r, 1<<20, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	fill(func(key string) []string {
		if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
			return vs
		}
		return r.MultipartForm.Value[key+"[]"]
	})

	up, err := readImage(r)
	if errors.Is(err, errNoImage) {
		return nil, nil
	}
	return up, err
}

func readImage(r *http.Request) (*backend.Upload, error) {
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errNoImage
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errNoImage
	}

	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("image has content type %q", ct)
	}
	return &backend.Upload{Filename: hdr.Filename, ContentType: ct, Data: data}, nil
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}
