package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"roster/internal/model"
	"roster/internal/service"
	"roster/internal/store"
)

type StudentHandler struct {
	studentService *service.StudentService
}

func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	limit = min(limit, service.MaxLimit)

	students, totalCount, totalPages, err := h.studentService.ListStudents(service.ListOptions{
		Query:     query.Get("q"),
		Course:    query.Get("course"),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       students,
		"page":       page,
		"limit":      limit,
		"total":      totalCount,
		"totalPages": totalPages,
	})
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.Get(mux.Vars(r)["roll"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var student model.Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.studentService.Create(student)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type updateRequest struct {
	RollNumber string `json:"rollNumber"`
	model.Details
}

// UpdateStudent replaces every field but the roll number. A roll number in
// the body must name the same student as the path.
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	rollNumber := mux.Vars(r)["roll"]

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RollNumber != "" && !strings.EqualFold(strings.TrimSpace(req.RollNumber), strings.TrimSpace(rollNumber)) {
		http.Error(w, "Roll number cannot be changed", http.StatusBadRequest)
		return
	}

	updated, err := h.studentService.Update(rollNumber, req.Details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Delete(mux.Vars(r)["roll"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) SaveStudents(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Save(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Data saved",
		"total":   h.studentService.Count(),
	})
}

func (h *StudentHandler) ReloadStudents(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Reload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Data reloaded",
		"total":   h.studentService.Count(),
	})
}

func (h *StudentHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.studentService.Courses())
}

func (h *StudentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"total": h.studentService.Count()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, service.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Printf("Error handling request: %+v", err)
	}
	http.Error(w, err.Error(), status)
}
