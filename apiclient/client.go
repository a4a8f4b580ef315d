// Package apiclient wraps the REST API of the school backend: one method per call.
package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

type Client struct {
	baseURL string
	token   string
	rest    *rest.Client
}

// New returns a client for the API rooted at baseURL (e.g. http://localhost:5000/api).
// A nil httpClient means http.DefaultClient.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		rest:    &rest.Client{HTTPClient: httpClient},
	}
}

func NewFromConfig(conf *core.Config) *Client {
	return New(conf.APIBaseURL(), conf.APIToken, nil)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) request(method rest.Method, path string, query map[string]string, body interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + "/" + strings.TrimLeft(path, "/"),
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if c.token != "" {
		req.Headers["Authorization"] = "Bearer " + c.token
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return rest.Request{}, errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

// send performs the call and decodes a 2xx JSON response into out (when not nil).
func (c *Client) send(ctx context.Context, method rest.Method, path string, query map[string]string, body, out interface{}) error {
	req, err := c.request(method, path, query, body)
	if err != nil {
		return err
	}
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	httpResp, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	resp, err := rest.BuildResponse(httpResp)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, resp.Body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	return errors.Wrapf(json.Unmarshal([]byte(resp.Body), out), "decoding %s %s", method, path)
}

func resourcePath(resource string, id ...string) string {
	path := strings.Trim(resource, "/")
	if len(id) > 0 {
		path += "/" + url.PathEscape(id[0])
	}
	return path
}

// List calls GET /api/{resource}.
func (c *Client) List(ctx context.Context, resource string, query map[string]string) ([]records.Record, error) {
	recs := make([]records.Record, 0)
	if err := c.send(ctx, rest.Get, resourcePath(resource), query, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Get calls GET /api/{resource}/{id}.
func (c *Client) Get(ctx context.Context, resource, id string) (records.Record, error) {
	var rec records.Record
	if err := c.send(ctx, rest.Get, resourcePath(resource, id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create calls POST /api/{resource}.
func (c *Client) Create(ctx context.Context, resource string, rec records.Record) (records.Record, error) {
	var created records.Record
	if err := c.send(ctx, rest.Post, resourcePath(resource), nil, rec, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update calls PUT /api/{resource}/{id}.
func (c *Client) Update(ctx context.Context, resource, id string, rec records.Record) (records.Record, error) {
	var updated records.Record
	if err := c.send(ctx, rest.Put, resourcePath(resource, id), nil, rec, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete calls DELETE /api/{resource}/{id}.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	return c.send(ctx, rest.Delete, resourcePath(resource, id), nil, nil, nil)
}

// GradebookStudents calls GET /api/gradebook/students.
func (c *Client) GradebookStudents(ctx context.Context, filter gradebook.StudentFilter) ([]gradebook.Student, error) {
	students := make([]gradebook.Student, 0)
	if err := c.send(ctx, rest.Get, "gradebook/students", filter.Fields(), nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// GradebookMarks calls GET /api/gradebook/marks.
func (c *Client) GradebookMarks(ctx context.Context, key gradebook.SheetKey) (gradebook.Sheet, error) {
	query := map[string]string{
		"classId":      key.ClassID,
		"sectionId":    key.SectionID,
		"subjectId":    key.SubjectID,
		"academicYear": key.AcademicYear,
		"term":         key.Term,
	}
	var sheet gradebook.Sheet
	if err := c.send(ctx, rest.Get, "gradebook/marks", query, nil, &sheet); err != nil {
		return gradebook.Sheet{}, err
	}
	if sheet.SheetKey == (gradebook.SheetKey{}) {
		sheet.SheetKey = key
	}
	return sheet, nil
}

// GradebookSave calls POST /api/gradebook/save.
func (c *Client) GradebookSave(ctx context.Context, sheet gradebook.Sheet) (gradebook.Sheet, error) {
	if sheet.StudentMarks == nil {
		sheet.StudentMarks = []gradebook.StudentMarks{}
	}
	var saved gradebook.Sheet
	if err := c.send(ctx, rest.Post, "gradebook/save", nil, sheet, &saved); err != nil {
		return gradebook.Sheet{}, err
	}
	return saved, nil
}
