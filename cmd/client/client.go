package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	api "gitlab.com/dirk.krummacker/surf-contacts/pkg/model"
)

// apiClient talks to the REST API of the contacts service.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *apiClient) upload(paths []string) (api.UploadResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range paths {
		data, err := os.ReadFile(p) // nosemgrep
		if err != nil {
			return api.UploadResponse{}, err
		}
		part, err := w.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			return api.UploadResponse{}, err
		}
		if _, err := part.Write(data); err != nil {
			return api.UploadResponse{}, err
		}
	}
	if err := w.Close(); err != nil {
		return api.UploadResponse{}, err
	}

	var response api.UploadResponse
	err := c.do(http.MethodPost, "/api/upload", w.FormDataContentType(), &body, &response)
	return response, err
}

type listParams struct {
	page      int
	limit     int
	contacted string
	search    string
}

func (c *apiClient) list(p listParams) (api.ContactList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(p.page))
	query.Set("limit", strconv.Itoa(p.limit))
	if p.contacted != "" {
		query.Set("contacted", p.contacted)
	}
	if p.search != "" {
		query.Set("search", p.search)
	}

	var response api.ContactList
	err := c.do(http.MethodGet, "/api/contacts?"+query.Encode(), "", nil, &response)
	return response, err
}

func (c *apiClient) stats() (api.Stats, error) {
	var response api.Stats
	err := c.do(http.MethodGet, "/api/stats", "", nil, &response)
	return response, err
}

func (c *apiClient) mark(id int64, contacted bool) (api.StatusResponse, error) {
	body, err := json.Marshal(api.StatusUpdate{Id: id, Contacted: contacted})
	if err != nil {
		return api.StatusResponse{}, err
	}
	var response api.StatusResponse
	err = c.do(http.MethodPut, "/api/contacts", "application/json", bytes.NewReader(body), &response)
	return response, err
}

// welcome downloads the welcome document of a contact into dir and returns the file path.
func (c *apiClient) welcome(id int64, dir string) (string, error) {
	res, err := c.send(http.MethodGet, fmt.Sprintf("/api/contacts/%d/generate-pdf", id), "", nil)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	name := fmt.Sprintf("welcome-%d.pdf", id)
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = filepath.Base(params["filename"])
	}
	target := filepath.Join(dir, name)
	f, err := os.Create(target) // nosemgrep
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, res.Body); err != nil {
		return "", err
	}
	return target, nil
}

func (c *apiClient) do(method, path, contentType string, body io.Reader, out any) error {
	res, err := c.send(method, path, contentType, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return json.NewDecoder(res.Body).Decode(out)
}

// send performs the request and turns every non-2xx answer into an error carrying the API
// error message.
func (c *apiClient) send(method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making http request: %w", err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()

	var apiErr api.ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
		return nil, fmt.Errorf("%s %s: %s", method, path, res.Status)
	}
	return nil, fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error, res.Status)
}
