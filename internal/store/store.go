// Package store keeps the student roster in memory and mirrors it to a flat
// comma-delimited text file. Every successful mutation rewrites the whole file.
package store

import (
	"bufio"
	"iter"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"roster/internal/model"
)

const maxLineSize = 1 << 20

// ChangeHook is called with a snapshot of the roster after each successful
// save or load. Hooks run while the store lock is held, in mutation order.
type ChangeHook func(students []model.Student)

type Option func(*Store)

// WithChangeHook registers fn to run after every successful save or load.
func WithChangeHook(fn ChangeHook) Option {
	return func(s *Store) {
		s.hooks = append(s.hooks, fn)
	}
}

// Store owns the roster. Lookups are linear scans; the roster is expected to
// be classroom sized. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	path     string
	students []model.Student
	hooks    []ChangeHook
}

func New(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Add appends student and persists the roster.
func (s *Store) Add(student model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNew(student); err != nil {
		return err
	}
	s.students = append(s.students, student)
	return s.save()
}

// Import adds every acceptable student and persists once. Students failing
// the Add checks are skipped and their errors returned in rejected. err is
// only set when the final save fails.
func (s *Store) Import(students []model.Student) (added int, rejected []error, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, student := range students {
		if err := s.checkNew(student); err != nil {
			rejected = append(rejected, err)
			continue
		}
		s.students = append(s.students, student)
		added++
	}
	if added == 0 {
		return 0, rejected, nil
	}
	return added, rejected, s.save()
}

// Update overwrites every field except the roll number of the matching
// student, persists the roster and returns the updated student.
func (s *Store) Update(rollNumber string, details model.Details) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(rollNumber)
	if i < 0 {
		return model.Student{}, errors.Wrapf(ErrNotFound, "roll number '%s'", rollNumber)
	}
	if !fitsLine(details.Name, details.Course, details.Grade, details.Email, details.Contact) {
		return model.Student{}, errors.Wrap(ErrValidation, "fields cannot contain line breaks")
	}
	s.students[i].Apply(details)
	return s.students[i], s.save()
}

// Delete removes every student whose roll number matches and persists the
// roster.
func (s *Store) Delete(rollNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.students[:0]
	for _, student := range s.students {
		if !student.HasKey(rollNumber) {
			kept = append(kept, student)
		}
	}
	if len(kept) == len(s.students) {
		return errors.Wrapf(ErrNotFound, "roll number '%s'", rollNumber)
	}
	clear(s.students[len(kept):])
	s.students = kept
	return s.save()
}

func (s *Store) FindByKey(rollNumber string) (model.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(rollNumber)
	if i < 0 {
		return model.Student{}, false
	}
	return s.students[i], true
}

// Search yields, in store order, every student with a field containing query
// regardless of case. Each iteration works on a fresh snapshot, so the
// sequence can be ranged over again and callers may mutate the store from
// inside the loop.
func (s *Store) Search(query string) iter.Seq[model.Student] {
	return func(yield func(model.Student) bool) {
		for _, student := range s.All() {
			if student.Matches(query) && !yield(student) {
				return
			}
		}
	}
}

// All returns a copy of the roster in store order.
func (s *Store) All() []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, len(s.students))
	copy(out, s.students)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// LoadAll replaces the roster with the contents of the backing file.
// A missing file leaves the roster as it is. Short lines are skipped.
// Change hooks see the resulting roster either way.
func (s *Store) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.notify()
		return nil
	}
	if err != nil {
		return ioError("open", s.path, err)
	}
	defer file.Close()

	var loaded []model.Student
	skipped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		student, ok := decodeLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		loaded = append(loaded, student)
	}
	if err := scanner.Err(); err != nil {
		return ioError("read", s.path, err)
	}

	if skipped > 0 {
		log.Printf("Skipped %d malformed lines in %s", skipped, s.path)
	}
	s.students = loaded
	s.notify()
	return nil
}

// SaveAll rewrites the backing file from the in-memory roster.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	if err := s.writeFile(); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) writeFile() (err error) {
	file, err := os.Create(s.path)
	if err != nil {
		return ioError("create", s.path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = ioError("close", s.path, cerr)
		}
	}()

	w := bufio.NewWriter(file)
	for _, student := range s.students {
		if _, err := w.WriteString(encodeLine(student) + "\n"); err != nil {
			return ioError("write", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return ioError("write", s.path, err)
	}
	return nil
}

func (s *Store) notify() {
	if len(s.hooks) == 0 {
		return
	}
	snapshot := make([]model.Student, len(s.students))
	copy(snapshot, s.students)
	for _, hook := range s.hooks {
		hook(snapshot)
	}
}

func (s *Store) checkNew(student model.Student) error {
	if strings.TrimSpace(student.RollNumber) == "" || strings.TrimSpace(student.Name) == "" {
		return errors.Wrap(ErrValidation, "roll number and name are required")
	}
	if !fitsLine(student.Columns()...) {
		return errors.Wrap(ErrValidation, "fields cannot contain line breaks")
	}
	if s.indexOf(student.RollNumber) >= 0 {
		return errors.Wrapf(ErrDuplicateKey, "roll number '%s'", student.RollNumber)
	}
	return nil
}

func (s *Store) indexOf(rollNumber string) int {
	for i, student := range s.students {
		if student.HasKey(rollNumber) {
			return i
		}
	}
	return -1
}
