// Package bind decodes and validates HTTP request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/mazraa/config"
	"github.com/shashiranjanraj/mazraa/pkg/validate"
)

// ErrEmptyBody is returned when a JSON body was expected but none was sent.
var ErrEmptyBody = errors.New("request body is empty")

// maxBodyBytes returns the configured request body size limit (default 4 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "4194304"), 10, 64)
	if err != nil || n <= 0 {
		return 4 << 20 // 4 MB
	}
	return n
}

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

// File is an uploaded multipart file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ErrFileTooLarge is returned by Image when the upload exceeds the limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrNotImage is returned by Image for non-image uploads.
var ErrNotImage = errors.New("file is not an image")

// Image reads the multipart field as an image of at most maxBytes. The
// content type is sniffed from the bytes, not trusted from the client.
func Image(r *http.Request, field string, maxBytes int64) (File, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return File{}, ErrFileTooLarge
		}
		return File{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	f, hdr, err := r.FormFile(field)
	if err != nil {
		return File{}, fmt.Errorf("missing file %q: %w", field, err)
	}
	defer f.Close()

	if hdr.Size > maxBytes {
		return File{}, ErrFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return File{}, err
	}
	if int64(len(data)) > maxBytes {
		return File{}, ErrFileTooLarge
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return File{}, ErrNotImage
	}
	return File{Name: hdr.Filename, ContentType: ct, Data: data}, nil
}
