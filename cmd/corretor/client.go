package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/orchestrator"
)

// client calls the corretor HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *client) upload(ctx context.Context, path, category string) (*documents.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("category", category); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var doc documents.Document
	if err := c.do(ctx, http.MethodPost, "/documents", mw.FormDataContentType(), &body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *client) status(ctx context.Context, id uuid.UUID) (*orchestrator.StatusView, error) {
	var view orchestrator.StatusView
	if err := c.do(ctx, http.MethodGet, "/extractions/"+id.String(), "", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *client) expire(ctx context.Context, id uuid.UUID, attempts int) (*orchestrator.Transition, error) {
	body, err := json.Marshal(orchestrator.ExpireRequest{Attempts: attempts})
	if err != nil {
		return nil, err
	}

	var t orchestrator.Transition
	if err := c.do(ctx, http.MethodPost, "/extractions/"+id.String()+"/expire", "application/json", bytes.NewReader(body), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *client) confirm(ctx context.Context, cmd orchestrator.ConfirmCommand) (*orchestrator.ConfirmResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	var res orchestrator.ConfirmResult
	path := "/extractions/" + cmd.DocumentID.String() + "/confirm"
	if err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) export(ctx context.Context, query url.Values) ([]byte, error) {
	var buf bytes.Buffer
	path := "/policies/export"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// do sends a request and decodes a JSON response into out, or copies the raw
// body when out is a *bytes.Buffer.
func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}

	if buf, ok := out.(*bytes.Buffer); ok {
		_, err := io.Copy(buf, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
