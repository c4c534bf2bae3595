package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formFile builds a parsed multipart file the way handlers receive one.
func formFile(t *testing.T, filename, contentType string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	file, fh, err := req.FormFile("photo")
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file, fh
}

func TestSavePhoto(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	file, fh := formFile(t, "rex.png", "image/png", []byte("png-bytes"))
	urlPath, err := store.SavePhoto(file, fh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(urlPath, URLPrefix+"/pet-"))
	assert.True(t, strings.HasSuffix(urlPath, ".png"))

	data, err := os.ReadFile(filepath.Join(store.BaseDir(), filepath.Base(urlPath)))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestSavePhoto_Rejections(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
	}{
		{name: "bad extension", filename: "rex.pdf", contentType: "image/png", content: []byte("x")},
		{name: "bad mime type", filename: "rex.png", contentType: "application/pdf", content: []byte("x")},
		{name: "no extension", filename: "rex", contentType: "image/png", content: []byte("x")},
		{name: "too large", filename: "rex.jpg", contentType: "image/jpeg", content: bytes.Repeat([]byte("a"), MaxPhotoSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, fh := formFile(t, tt.filename, tt.contentType, tt.content)
			_, err := store.SavePhoto(file, fh)
			assert.ErrorIs(t, err, ErrInvalidPhoto)
		})
	}

	entries, err := os.ReadDir(store.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must leave no files behind")
}

func TestDeletePhoto(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	file, fh := formFile(t, "rex.gif", "image/gif", []byte("gif"))
	urlPath, err := store.SavePhoto(file, fh)
	require.NoError(t, err)

	store.DeletePhoto(urlPath)
	_, statErr := os.Stat(filepath.Join(store.BaseDir(), filepath.Base(urlPath)))
	assert.True(t, os.IsNotExist(statErr))

	// Deleting again, or deleting nothing, must not panic or error out.
	store.DeletePhoto(urlPath)
	store.DeletePhoto("")
}
