package uploads

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recipebox/utils"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploadImage", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImageStoresFileAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	h := &Handler{Dir: dir}

	rec := httptest.NewRecorder()
	utils.Handle(h.UploadImage)(rec, multipartRequest(t, FieldName, pngBytes(t, 800, 200)), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	name := body["image"]
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Equal(t, URLPrefix+name, body["url"])

	_, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(dir, "thumb_"+name))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, 100, thumb.Bounds().Dy())
}

func TestUploadImageKeepsSmallImages(t *testing.T) {
	dir := t.TempDir()
	name, err := (&Handler{Dir: dir}).Save(pngBytes(t, 50, 20), ".png")
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(dir, "thumb_"+name))
	require.NoError(t, err)
	assert.Equal(t, 50, thumb.Bounds().Dx())
}

func TestUploadImageRejects(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"wrong field", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", pngBytes(t, 10, 10))
		}},
		{"not an image", func(t *testing.T) *http.Request {
			return multipartRequest(t, FieldName, []byte("plain text, not pixels"))
		}},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/uploadImage", strings.NewReader("{}"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			rec := httptest.NewRecorder()
			utils.Handle((&Handler{Dir: dir}).UploadImage)(rec, tt.req(t), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}
