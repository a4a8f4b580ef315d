package apiclient

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

type capture struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   map[string]interface{}
}

// stubServer answers every request with the given status & body, recording the last request.
func stubServer(t *testing.T, status int, body string) (*Client, *capture) {
	got := new(capture)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = make(map[string]string)
		for k := range r.URL.Query() {
			got.query[k] = r.URL.Query().Get(k)
		}
		got.auth = r.Header.Get("Authorization")
		got.body = nil
		if data, _ := ioutil.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/api/", "tok3n", ts.Client()), got
}

func TestClient_calls(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `[{"id":"v1","name":"Zoe"}]`)
		recs, err := c.List(ctx, "/transport/routes/", map[string]string{"status": "active"})
		require.NoError(t, err)
		assert.Equal(t, []records.Record{{"id": "v1", "name": "Zoe"}}, recs)
		assert.Equal(t, http.MethodGet, got.method)
		assert.Equal(t, "/api/transport/routes", got.path)
		assert.Equal(t, map[string]string{"status": "active"}, got.query)
		assert.Equal(t, "Bearer tok3n", got.auth)
	})

	t.Run("create", func(t *testing.T) {
		c, got := stubServer(t, http.StatusCreated, `{"id":"v2","name":"Adam"}`)
		rec, err := c.Create(ctx, "visitors", records.Record{"name": "Adam"})
		require.NoError(t, err)
		assert.Equal(t, "v2", rec.ID())
		assert.Equal(t, http.MethodPost, got.method)
		assert.Equal(t, map[string]interface{}{"name": "Adam"}, got.body)
	})

	t.Run("update", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `{"id":"a b","name":"Adam"}`)
		_, err := c.Update(ctx, "visitors", "a b", records.Record{"name": "Adam"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, got.method)
		assert.Equal(t, "/api/visitors/a b", got.path)
	})

	t.Run("delete", func(t *testing.T) {
		c, got := stubServer(t, http.StatusNoContent, "")
		require.NoError(t, c.Delete(ctx, "visitors", "v1"))
		assert.Equal(t, http.MethodDelete, got.method)
		assert.Equal(t, "/api/visitors/v1", got.path)
	})

	t.Run("marks", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `{"studentMarks":[],"isLocked":false}`)
		key := gradebook.SheetKey{ClassID: "c1", SectionID: "a", SubjectID: "math", AcademicYear: "2024-25", Term: "Mid Term"}
		sheet, err := c.GradebookMarks(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, sheet.SheetKey)
		assert.Equal(t, "/api/gradebook/marks", got.path)
		assert.Equal(t, "Mid Term", got.query["term"])
		assert.Equal(t, "2024-25", got.query["academicYear"])
	})

	t.Run("students", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `[{"id":"s1","name":"Asha"}]`)
		students, err := c.GradebookStudents(ctx, gradebook.StudentFilter{ClassID: "c1", SectionID: " "})
		require.NoError(t, err)
		assert.Equal(t, []gradebook.Student{{ID: "s1", Name: "Asha"}}, students)
		assert.Equal(t, map[string]string{"classId": "c1"}, got.query)
	})

	t.Run("no token", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `[]`)
		c.token = ""
		recs, err := c.List(ctx, "visitors", nil)
		require.NoError(t, err)
		assert.Empty(t, recs)
		assert.Empty(t, got.auth)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `[]`)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.List(cctx, "visitors", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
		assert.Empty(t, got.method)
	})
}

func TestClient_errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *APIError
	}{
		{
			name:   "error message",
			status: http.StatusUnauthorized,
			body:   `{"error":"missing or malformed jwt"}`,
			want:   &APIError{StatusCode: 401, Message: "missing or malformed jwt"},
		},
		{
			name:   "echo message",
			status: http.StatusMethodNotAllowed,
			body:   `{"message":"Method Not Allowed"}`,
			want:   &APIError{StatusCode: 405, Message: "Method Not Allowed"},
		},
		{
			name:   "field map",
			status: http.StatusBadRequest,
			body:   `{"term":"unknown term","classId":"this field is required"}`,
			want: &APIError{
				StatusCode: 400,
				Message:    "classId: this field is required; term: unknown term",
				Fields:     map[string]string{"term": "unknown term", "classId": "this field is required"},
			},
		},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down\n", want: &APIError{StatusCode: 502, Message: "upstream down"}},
		{name: "empty body", status: http.StatusNotFound, want: &APIError{StatusCode: 404, Message: "Not Found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := stubServer(t, tt.status, tt.body)
			_, err := c.Get(context.Background(), "visitors", "v1")
			require.Error(t, err)
			assert.Equal(t, tt.want, err)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("record not found", func(t *testing.T) {
		c, _ := stubServer(t, http.StatusNotFound, `{"error":"record not found"}`)
		_, err := c.Records().GetRecord(ctx, "visitors", "v9")
		assert.Equal(t, records.ErrNotFound, err)
		assert.Equal(t, records.ErrNotFound, c.Records().DeleteRecord(ctx, "visitors", "v9"))
	})

	t.Run("locked sheet", func(t *testing.T) {
		c, _ := stubServer(t, http.StatusConflict, `{"error":"marks are locked"}`)
		_, err := c.Gradebook().SaveSheet(ctx, gradebook.Sheet{})
		assert.Equal(t, gradebook.ErrLocked, err)
	})

	t.Run("subjects", func(t *testing.T) {
		c, got := stubServer(t, http.StatusOK, `[{"id":"math","name":"Maths","classId":"c1","teacher":"t1"}]`)
		subjects, err := c.Gradebook().QuerySubjects(ctx, gradebook.SubjectFilter{ClassID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, []gradebook.Subject{{ID: "math", Name: "Maths", ClassID: "c1"}}, subjects)
		assert.Equal(t, "/api/subjects", got.path)
		assert.Equal(t, map[string]string{"classId": "c1"}, got.query)
	})
}
