package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// ImportMode selects how an archive is imported.
type ImportMode int

const (
	// ImportAdd creates a new integration from the archive.
	ImportAdd ImportMode = iota
	// ImportReplace overwrites an existing integration with the archive.
	ImportReplace
)

func (m ImportMode) String() string {
	if m == ImportReplace {
		return "replace"
	}
	return "add"
}

func (m ImportMode) method() string {
	if m == ImportReplace {
		return http.MethodPut
	}
	return http.MethodPost
}

// ExpectedStatus is the status code the service answers a successful import
// with.
func (m ImportMode) ExpectedStatus() int {
	if m == ImportReplace {
		return http.StatusOK
	}
	return http.StatusNoContent
}

// ListIntegrations fetches the whole catalogue in one request.
func (c *Client) ListIntegrations(ctx context.Context) ([]Integration, error) {
	endpoint := c.IntegrationsURL()

	resp, err := c.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Header: jsonHeaders(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	if err := expect("list integrations", endpoint, resp, http.StatusOK); err != nil {
		return nil, err
	}

	items, err := ParseIntegrations(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse integrations: %w", err)
	}
	return items, nil
}

// ImportArchive uploads an archive as multipart form data under the field
// "file". The response is returned whenever the exchange completed, also
// alongside a *StatusError.
func (c *Client) ImportArchive(ctx context.Context, mode ImportMode, filename string, content []byte) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	endpoint := c.ArchiveURL()
	header := http.Header{}
	header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.Do(ctx, &Request{
		Method: mode.method(),
		URL:    endpoint,
		Header: header,
		Body:   buf.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import archive: %w", err)
	}

	return resp, expect("import archive ("+mode.String()+")", endpoint, resp, mode.ExpectedStatus())
}

// SetStatus requests a lifecycle transition. The service expects a POST with
// a PATCH method override.
func (c *Client) SetStatus(ctx context.Context, href string, status Status) error {
	body, err := json.Marshal(map[string]Status{"status": status})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	header := jsonHeaders()
	header.Set("X-HTTP-Method-Override", http.MethodPatch)

	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    href,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to set status %s: %w", status, err)
	}
	return expect("set status "+string(status), href, resp, http.StatusOK)
}

// ExportArchive downloads the archive of the integration at href.
func (c *Client) ExportArchive(ctx context.Context, href string) ([]byte, error) {
	endpoint := href + "/archive"

	header := http.Header{}
	header.Set("Accept", "application/octet-stream")
	header.Set("Content-Type", "application/json")

	resp, err := c.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Header: header,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export archive: %w", err)
	}
	if err := expect("export archive", endpoint, resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Delete removes the integration at href.
func (c *Client) Delete(ctx context.Context, href string) error {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodDelete,
		URL:    href,
		Header: jsonHeaders(),
	})
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	return expect("delete integration", href, resp, http.StatusOK)
}
