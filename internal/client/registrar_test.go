package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

func TestListCoursesMapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"courseId":    101,
				"courseCode":  "CS101",
				"title":       "Intro to Computing",
				"description": "Foundations",
				"credits":     3,
				"schedule":    "MWF 08:00-09:30",
				"instructor":  "Dr. Reyes",
				"semester":    "1st semester",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	courses, err := c.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)

	got := courses[0]
	assert.Equal(t, "101", got.ID)
	assert.Equal(t, "CS101", got.Code)
	assert.Equal(t, "Foundations", got.Subtitle)
	assert.Equal(t, 3, got.Units)
	assert.Equal(t, "Dr. Reyes", got.Instructor)
}

func TestNotFoundIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	_, err := c.GetStudent(context.Background(), "99")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpstreamErrorCarriesStatusAndSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	_, err := c.ListStudents(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Contains(t, appErr.Error(), "boom")
}

func TestCanceledContextPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := New(srv.URL, time.Second, zap.NewNop())
	_, err := c.ListCourses(ctx)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestCreateEnrollmentSendsNumericIDs(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/enrollments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"enrollmentId": 55, "studentId": 7, "courseId": 101, "status": "enrolled",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	enrollment, err := c.CreateEnrollment(context.Background(), EnrollmentInput{
		StudentID: 7, CourseID: 101, Status: "enrolled",
	})
	require.NoError(t, err)
	assert.Equal(t, "55", enrollment.ID)
	assert.Equal(t, float64(7), received["studentId"], "wire ids stay numeric")
}

func TestStudentLoginAndSubjectID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"studentId": 7, "name": "Ada Lovelace", "role": "student",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	result, err := c.StudentLogin(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "7", result.SubjectID())
	assert.Equal(t, "Ada Lovelace", result.Name)
}

func TestSplitFullName(t *testing.T) {
	cases := []struct {
		full, first, last string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Jose Protacio Rizal", "Jose Protacio", "Rizal"},
		{"Prince", "Prince", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitFullName(tc.full)
		assert.Equal(t, tc.first, first)
		assert.Equal(t, tc.last, last)
	}
}
