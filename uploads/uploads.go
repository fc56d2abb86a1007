// Package uploads stores recipe images and their thumbnails on local disk.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"recipebox/errs"
	"recipebox/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const (
	MaxImageSize   = 10 << 20
	ThumbnailWidth = 400
	FieldName      = "image"
	URLPrefix      = "/static/uploads/"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

type Handler struct {
	Dir string
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.New(errs.InvalidRequest, "image exceeds 10 MiB")
		}
		return errs.Wrap(errs.InvalidRequest, "invalid multipart form", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FieldName)
	if err != nil {
		return errs.Wrap(errs.InvalidRequest, "missing image field", err)
	}
	defer file.Close()
	if header.Size > MaxImageSize {
		return errs.New(errs.InvalidRequest, "image exceeds 10 MiB")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return errs.Wrap(errs.InvalidRequest, "failed to read image", err)
	}
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return errs.New(errs.InvalidRequest, "image must be jpeg, png or gif")
	}

	name, err := h.Save(data, ext)
	if err != nil {
		return err
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"image": name,
		"url":   URLPrefix + name,
	})
	return nil
}

// Save writes data under a fresh uuid name together with its thumbnail and
// returns the name.
func (h *Handler) Save(data []byte, ext string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errs.Wrap(errs.InvalidRequest, "image could not be decoded", err)
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(h.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := thumbnail(img, filepath.Join(h.Dir, "thumb_"+name)); err != nil {
		os.Remove(path)
		return "", err
	}
	slog.Debug("image stored", "name", name, "bytes", len(data))
	return name, nil
}

func thumbnail(img image.Image, path string) error {
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}
