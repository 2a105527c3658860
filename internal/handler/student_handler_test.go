package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/handler"
	"roster/internal/model"
	"roster/internal/service"
	"roster/internal/store"
)

type testEnv struct {
	router  *mux.Router
	store   *store.Store
	uploads *handler.UploadHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.New(filepath.Join(t.TempDir(), "students.txt"))
	students := []model.Student{
		{RollNumber: "R1", Name: "John Doe", Course: "Bachelor of Arts", Grade: "B"},
		{RollNumber: "R2", Name: "Jane Doe", Course: "Psychology", Grade: "A"},
		{RollNumber: "R3", Name: "Alice", Course: "Bachelor of Arts", Grade: "C"},
	}
	for _, student := range students {
		require.NoError(t, s.Add(student))
	}

	studentService := service.NewStudentService(s)
	uploadService := service.NewUploadService(s)
	uploads := handler.NewUploadHandler(uploadService, filepath.Join(t.TempDir(), "uploads"))
	router := handler.NewRouter(
		handler.NewStudentHandler(studentService),
		uploads,
		handler.NewProgressHandler(uploadService),
	)
	return &testEnv{router: router, store: s, uploads: uploads}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestListStudents(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedRolls  []string
	}{
		{"All students", "", http.StatusOK, []string{"R1", "R2", "R3"}},
		{"Search", "?q=DOE", http.StatusOK, []string{"R1", "R2"}},
		{"Filter by course", "?course=bachelor%20of%20arts", http.StatusOK, []string{"R1", "R3"}},
		{"Sort by name", "?sort_by=name&sort_order=asc", http.StatusOK, []string{"R3", "R2", "R1"}},
		{"Pagination", "?page=2&limit=2", http.StatusOK, []string{"R3"}},
		{"No match", "?q=zzz", http.StatusOK, []string{}},
		{"Huge limit", "?page=2&limit=9223372036854775807", http.StatusOK, []string{}},
		{"Huge page", "?page=9223372036854775807&limit=2", http.StatusOK, []string{}},
		{"Bad sort field", "?sort_by=password", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "GET", "/students"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response struct {
				Data       []model.Student `json:"data"`
				Total      int             `json:"total"`
				TotalPages int             `json:"totalPages"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
			require.NotNil(t, response.Data)
			got := []string{}
			for _, s := range response.Data {
				got = append(got, s.RollNumber)
			}
			assert.Equal(t, tt.expectedRolls, got)
		})
	}
}

func TestListStudentsCapsLimit(t *testing.T) {
	env := setupTestEnv(t)

	rr := env.do(t, "GET", "/students?limit=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var response struct {
		Data  []model.Student `json:"data"`
		Limit int             `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, service.MaxLimit, response.Limit)
	assert.Len(t, response.Data, 3)
}

func TestGetStudent(t *testing.T) {
	env := setupTestEnv(t)

	rr := env.do(t, "GET", "/students/r2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var student model.Student
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&student))
	assert.Equal(t, "Jane Doe", student.Name)

	rr = env.do(t, "GET", "/students/R404", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateStudent(t *testing.T) {
	env := setupTestEnv(t)

	newStudent := model.Student{RollNumber: "R4", Name: "Bob", Course: "Master of Arts", Email: "bob@x.com"}
	rr := env.do(t, "POST", "/students", newStudent)
	require.Equal(t, http.StatusCreated, rr.Code)
	_, ok := env.store.FindByKey("R4")
	assert.True(t, ok)

	rr = env.do(t, "POST", "/students", model.Student{RollNumber: "r4", Name: "Bobby"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, "POST", "/students", model.Student{RollNumber: "R5"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/students", model.Student{RollNumber: "R7", Name: "Eve", Course: "BA\nMallory,R1,x,y,z,w"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, ok = env.store.FindByKey("R7")
	assert.False(t, ok)

	req := httptest.NewRequest("POST", "/students", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	data, err := os.ReadFile(env.store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Bob,R4,Master of Arts,,bob@x.com,\n")
}

func TestUpdateStudent(t *testing.T) {
	env := setupTestEnv(t)

	body := map[string]string{"name": "Jane Smith", "course": "Psychology", "grade": "A+", "email": "jane@x.com", "contact": "42"}
	rr := env.do(t, "PUT", "/students/R2", body)
	require.Equal(t, http.StatusOK, rr.Code)
	got, _ := env.store.FindByKey("R2")
	assert.Equal(t, model.Student{RollNumber: "R2", Name: "Jane Smith", Course: "Psychology", Grade: "A+", Email: "jane@x.com", Contact: "42"}, got)

	body["rollNumber"] = "r2"
	rr = env.do(t, "PUT", "/students/R2", body)
	assert.Equal(t, http.StatusOK, rr.Code, "same key in another case is allowed")

	body["rollNumber"] = "R9"
	rr = env.do(t, "PUT", "/students/R2", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	delete(body, "rollNumber")
	rr = env.do(t, "PUT", "/students/R404", body)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body["course"] = "BA\r\nMallory,R1,x,y,z,w"
	rr = env.do(t, "PUT", "/students/R2", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteStudent(t *testing.T) {
	env := setupTestEnv(t)

	rr := env.do(t, "DELETE", "/students/r1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 2, env.store.Len())

	rr = env.do(t, "DELETE", "/students/r1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSaveAndReload(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, os.WriteFile(env.store.Path(), []byte("Zed,R9,BA,A,z@x.com,1\nshort,line\n"), 0o644))
	rr := env.do(t, "POST", "/students/reload", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.store.Len())

	rr = env.do(t, "POST", "/students/save", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	data, err := os.ReadFile(env.store.Path())
	require.NoError(t, err)
	assert.Equal(t, "Zed,R9,BA,A,z@x.com,1\n", string(data))
}

func TestSaveFailureReturns500(t *testing.T) {
	s := store.New(filepath.Join(t.TempDir(), "missing", "students.txt"))
	studentService := service.NewStudentService(s)
	uploadService := service.NewUploadService(s)
	router := handler.NewRouter(
		handler.NewStudentHandler(studentService),
		handler.NewUploadHandler(uploadService, t.TempDir()),
		handler.NewProgressHandler(uploadService),
	)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/students/save", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCoursesAndStats(t *testing.T) {
	env := setupTestEnv(t)

	rr := env.do(t, "GET", "/courses", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var courses []string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&courses))
	assert.Contains(t, courses, "Bachelor of Computer Applications")

	rr = env.do(t, "GET", "/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats map[string]int
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 3, stats["total"])
}
