package model

import "strings"

// Student is one roster entry. RollNumber identifies the record and never
// changes once the record exists.
type Student struct {
	RollNumber string `json:"rollNumber" gorm:"column:roll_number"`
	Name       string `json:"name"`
	Course     string `json:"course"`
	Grade      string `json:"grade"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
}

// Details holds the fields of a Student that an update may overwrite.
type Details struct {
	Name    string `json:"name"`
	Course  string `json:"course"`
	Grade   string `json:"grade"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

func (s Student) Details() Details {
	return Details{
		Name:    s.Name,
		Course:  s.Course,
		Grade:   s.Grade,
		Email:   s.Email,
		Contact: s.Contact,
	}
}

// Apply overwrites every mutable field with d. RollNumber is left alone.
func (s *Student) Apply(d Details) {
	s.Name = d.Name
	s.Course = d.Course
	s.Grade = d.Grade
	s.Email = d.Email
	s.Contact = d.Contact
}

// Columns returns the values in table display order.
func (s Student) Columns() []string {
	return []string{s.RollNumber, s.Name, s.Course, s.Grade, s.Email, s.Contact}
}

// HasKey reports whether rollNumber identifies s, ignoring case.
func (s Student) HasKey(rollNumber string) bool {
	return strings.EqualFold(s.RollNumber, rollNumber)
}

// Matches reports whether any column contains query, ignoring case.
// An empty query matches every student.
func (s Student) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, col := range s.Columns() {
		if strings.Contains(strings.ToLower(col), q) {
			return true
		}
	}
	return false
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Student) Trimmed() Student {
	return Student{
		RollNumber: strings.TrimSpace(s.RollNumber),
		Name:       strings.TrimSpace(s.Name),
		Course:     strings.TrimSpace(s.Course),
		Grade:      strings.TrimSpace(s.Grade),
		Email:      strings.TrimSpace(s.Email),
		Contact:    strings.TrimSpace(s.Contact),
	}
}

func (d Details) Trimmed() Details {
	return Details{
		Name:    strings.TrimSpace(d.Name),
		Course:  strings.TrimSpace(d.Course),
		Grade:   strings.TrimSpace(d.Grade),
		Email:   strings.TrimSpace(d.Email),
		Contact: strings.TrimSpace(d.Contact),
	}
}
