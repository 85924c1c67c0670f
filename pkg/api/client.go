package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "http://127.0.0.1:5000"

const (
	uploadPath    = "/upload"
	deletePath    = "/delete-pdf"
	chatPath      = "/chat"
	statusPath    = "/pdf-status"
	uploadFieldID = "pdf"
)

// Client talks to the PDF chat server. Requests are never retried and carry
// no timeout of their own; callers bound them through the context.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type ClientOption func(*Client) error

func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		u, err := ParseBaseURL(raw)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.httpClient = hc
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	base, err := ParseBaseURL(DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    base,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "apply client option")
		}
	}
	return c, nil
}

// ParseBaseURL accepts an absolute http(s) URL and drops any trailing slash.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("server url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse server url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("server url %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, errors.Errorf("server url %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = u.Path + path
	return u.String()
}

// UploadFile opens path and uploads it under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (*MessageResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}
	defer func() {
		_ = f.Close()
	}()
	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload posts r as the multipart field "pdf".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*MessageResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadFieldID, filename)
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, errors.Wrap(err, "read pdf")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, uploadPath, mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePDF(ctx context.Context) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, deletePath, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, question string) (*ChatResponse, error) {
	payload, err := json.Marshal(ChatRequest{Question: question})
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, chatPath, "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, statusPath, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return errors.Wrap(err, "send request")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil {
			se.Detail = eb.Error
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Errorf("invalid response from %s: %v", path, err)
	}
	return nil
}
