// Package client posts conversion requests to the snackpdf API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/snackpdf/converter/internal/models"
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "Conversion failed"

// ServerError is a non-2xx response with a structured error body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// ServerMessage returns the message reported by the server.
func (e *ServerError) ServerMessage() string {
	return e.Message
}

// TransportError is a request that did not produce a usable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client uploads files to conversion endpoints relative to a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. A nil httpClient gets a client without timeout;
// requests wait until the transport settles or ctx is done.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Upload posts req as multipart form data to endpoint and returns the response body.
func (c *Client) Upload(ctx context.Context, endpoint string, req models.ConversionRequest) ([]byte, error) {
	if req.File == nil {
		return nil, &TransportError{Err: fmt.Errorf("no file in request")}
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/pdf, application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	var errBody struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &errBody); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decoding error response (status %d): %w", resp.StatusCode, err)}
	}
	if errBody.Error == "" {
		errBody.Error = DefaultErrorMessage
	}
	return nil, &ServerError{Status: resp.StatusCode, Message: errBody.Error}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(req models.ConversionRequest) (io.Reader, string, error) {
	src, err := req.File.Open()
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", req.File.Name, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, models.FieldFile, quoteEscaper.Replace(req.File.Name)))
	contentType := req.File.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", req.File.Name, err)
	}

	fields := req.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
