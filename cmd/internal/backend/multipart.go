package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"console/cmd/internal/client"
)

// Upload is an image attached to an app or game form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type formField struct {
	name  string
	value string
}

// multipartRequest encodes fields and an optional image as multipart/form-data.
func multipartRequest(method, p string, fields []formField, image *Upload) (client.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return client.Request{}, fmt.Errorf("encode form field %s: %w", f.name, err)
		}
	}

	if image != nil && len(image.Data) > 0 {
		h := make(textproto.MIMEHeader)
		filename := strings.TrimSpace(image.Filename)
		if filename == "" {
			filename = "image"
		}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		ct := image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return client.Request{}, fmt.Errorf("encode image: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return client.Request{}, fmt.Errorf("encode image: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return client.Request{}, fmt.Errorf("encode form: %w", err)
	}

	return client.Request{
		Method:      method,
		Path:        p,
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	}, nil
}

func (a *API) doMultipart(ctx context.Context, method, p string, fields []formField, image *Upload, dst any) error {
	req, err := multipartRequest(method, p, fields, image)
	if err != nil {
		return err
	}
	resp, err := a.c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.JSON(dst)
}
