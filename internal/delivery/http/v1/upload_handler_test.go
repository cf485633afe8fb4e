package v1

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	data        []byte
	contentType string
}

func (s *fakeStorage) UploadBuffer(ctx context.Context, data []byte, contentType string) (string, error) {
	s.data = data
	s.contentType = contentType
	return "https://cdn.example.com/products/img", nil
}

func multipartRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	store := &fakeStorage{}
	h := NewUploadHandler(store, 1)

	rec := httptest.NewRecorder()
	h.UploadImage(rec, multipartRequest(t, "shirt.png", "image/png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"url":"https://cdn.example.com/products/img"}`, rec.Body.String())
	assert.NotEmpty(t, store.data)
	assert.Contains(t, []string{"image/webp", "image/jpeg"}, store.contentType)
}

func TestUploadImage_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
	}{
		{"wrong mime type", "notes.png", "text/plain", []byte("hello")},
		{"wrong extension", "shirt.exe", "image/png", []byte("hello")},
		{"not an image", "shirt.png", "image/png", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStorage{}
			rec := httptest.NewRecorder()
			NewUploadHandler(store, 1).UploadImage(rec, multipartRequest(t, tt.filename, tt.contentType, tt.data))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, store.data)
		})
	}
}
