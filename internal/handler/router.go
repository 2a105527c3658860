package handler

import (
	"github.com/gorilla/mux"
)

// NewRouter registers every route. The fixed /students/save and
// /students/reload paths are registered ahead of /students/{roll}.
func NewRouter(students *StudentHandler, uploads *UploadHandler, progress *ProgressHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/students", students.ListStudents).Methods("GET")
	r.HandleFunc("/students", students.CreateStudent).Methods("POST")
	r.HandleFunc("/students/save", students.SaveStudents).Methods("POST")
	r.HandleFunc("/students/reload", students.ReloadStudents).Methods("POST")
	r.HandleFunc("/students/{roll}", students.GetStudent).Methods("GET")
	r.HandleFunc("/students/{roll}", students.UpdateStudent).Methods("PUT")
	r.HandleFunc("/students/{roll}", students.DeleteStudent).Methods("DELETE")
	r.HandleFunc("/courses", students.ListCourses).Methods("GET")
	r.HandleFunc("/stats", students.Stats).Methods("GET")

	r.HandleFunc("/upload", uploads.UploadCSV).Methods("POST")

	r.HandleFunc("/progress", progress.GetAllProgress).Methods("GET")
	r.HandleFunc("/progress/file", progress.GetFileProgress).Methods("GET")
	r.HandleFunc("/progress/stream", progress.SSEProgress).Methods("GET")

	return r
}
