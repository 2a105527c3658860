package service

import (
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"roster/internal/model"
	"roster/internal/store"
)

var ErrInvalidQuery = errors.New("invalid query")

// MaxLimit caps the page size of ListStudents.
const MaxLimit = 100

// Courses are offered as suggestions; any other course text is accepted.
var Courses = []string{
	"Bachelor of Computer Applications",
	"Bachelor of Arts",
	"Bachelor of Technology",
	"Master of Computer Applications",
	"Master of Arts",
	"Master of Technology",
	"Psychology",
}

var sortKeys = map[string]func(model.Student) string{
	"roll_number": func(s model.Student) string { return s.RollNumber },
	"name":        func(s model.Student) string { return s.Name },
	"course":      func(s model.Student) string { return s.Course },
	"grade":       func(s model.Student) string { return s.Grade },
	"email":       func(s model.Student) string { return s.Email },
	"contact":     func(s model.Student) string { return s.Contact },
}

type ListOptions struct {
	Query     string
	Course    string
	SortBy    string // empty keeps store order
	SortOrder string // "asc" or "desc"
	Page      int
	Limit     int
}

type StudentService struct {
	store *store.Store
}

func NewStudentService(s *store.Store) *StudentService {
	return &StudentService{store: s}
}

// ListStudents returns one page of matching students plus the total match
// count and page count. Sorting and paging never reorder the roster itself.
func (s *StudentService) ListStudents(opts ListOptions) ([]model.Student, int, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}
	opts.Limit = min(opts.Limit, MaxLimit)

	// Apply filters
	var students []model.Student
	for student := range s.store.Search(strings.TrimSpace(opts.Query)) {
		if opts.Course != "" && !strings.EqualFold(student.Course, opts.Course) {
			continue
		}
		students = append(students, student)
	}

	// Apply sorting
	if opts.SortBy != "" {
		key, ok := sortKeys[opts.SortBy]
		if !ok {
			return nil, 0, 0, errors.Wrapf(ErrInvalidQuery, "unknown sort field '%s'", opts.SortBy)
		}
		desc := false
		switch strings.ToLower(opts.SortOrder) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			return nil, 0, 0, errors.Wrapf(ErrInvalidQuery, "unknown sort order '%s'", opts.SortOrder)
		}
		slices.SortStableFunc(students, func(a, b model.Student) int {
			c := strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
			if desc {
				return -c
			}
			return c
		})
	}

	// Pagination
	totalCount := len(students)
	totalPages := int(math.Ceil(float64(totalCount) / float64(opts.Limit)))
	if opts.Page > totalPages {
		return []model.Student{}, totalCount, totalPages, nil
	}
	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, totalCount)

	return students[start:end], totalCount, totalPages, nil
}

func (s *StudentService) Get(rollNumber string) (model.Student, error) {
	student, ok := s.store.FindByKey(strings.TrimSpace(rollNumber))
	if !ok {
		return model.Student{}, errors.Wrapf(store.ErrNotFound, "roll number '%s'", rollNumber)
	}
	return student, nil
}

func (s *StudentService) Create(student model.Student) (model.Student, error) {
	student = student.Trimmed()
	if err := s.store.Add(student); err != nil {
		return model.Student{}, err
	}
	return student, nil
}

// Update replaces every mutable field of the student and returns the result.
func (s *StudentService) Update(rollNumber string, details model.Details) (model.Student, error) {
	return s.store.Update(strings.TrimSpace(rollNumber), details.Trimmed())
}

func (s *StudentService) Delete(rollNumber string) error {
	return s.store.Delete(strings.TrimSpace(rollNumber))
}

func (s *StudentService) Save() error {
	return s.store.SaveAll()
}

func (s *StudentService) Reload() error {
	return s.store.LoadAll()
}

func (s *StudentService) Count() int {
	return s.store.Len()
}

func (s *StudentService) Courses() []string {
	return slices.Clone(Courses)
}
