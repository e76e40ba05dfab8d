package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snackpdf/converter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFile(name string, data []byte) *models.FileHandle {
	return models.NewFileHandle(name, int64(len(data)), "", func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func TestClient_UploadSendsMultipartForm(t *testing.T) {
	var gotPath, gotPageSize, gotQuality, gotName string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotPageSize = r.FormValue(models.FieldPageSize)
		gotQuality = r.FormValue(models.FieldQuality)

		f, hdr, err := r.FormFile(models.FieldFile)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil)
	req := models.NewConversionRequest(memFile(`re"port.docx`, []byte("docx bytes")))

	payload, err := c.Upload(context.Background(), "/api/word_to_pdf", req)
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.4"), payload)
	assert.Equal(t, "/api/word_to_pdf", gotPath)
	assert.Equal(t, "A4", gotPageSize)
	assert.Equal(t, "95", gotQuality)
	assert.Equal(t, `re"port.docx`, gotName)
	assert.Equal(t, []byte("docx bytes"), gotBody)
}

func TestClient_UploadErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantServer  bool
		wantMessage string
	}{
		{"server message", http.StatusBadRequest, `{"error":"bad format"}`, true, "bad format"},
		{"missing message", http.StatusInternalServerError, `{}`, true, DefaultErrorMessage},
		{"empty message", http.StatusInternalServerError, `{"error":""}`, true, DefaultErrorMessage},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).Upload(context.Background(), "/api/zip_to_pdf",
				models.NewConversionRequest(memFile("a.zip", []byte("PK"))))
			require.Error(t, err)

			var serverErr *ServerError
			var transportErr *TransportError
			if tt.wantServer {
				require.True(t, errors.As(err, &serverErr))
				assert.Equal(t, tt.status, serverErr.Status)
				assert.Equal(t, tt.wantMessage, serverErr.ServerMessage())
			} else {
				assert.True(t, errors.As(err, &transportErr))
			}
		})
	}
}

func TestClient_UploadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Upload(context.Background(), "/api/zip_to_pdf",
		models.NewConversionRequest(memFile("a.zip", []byte("PK"))))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.NotEmpty(t, transportErr.Error())
}

func TestClient_UploadUnreadableFile(t *testing.T) {
	file := models.NewFileHandle("gone.zip", 10, "", func() (io.ReadCloser, error) {
		return nil, errors.New("file vanished")
	})

	_, err := New("http://127.0.0.1:1", nil).Upload(context.Background(), "/api/zip_to_pdf",
		models.NewConversionRequest(file))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "file vanished")
}
