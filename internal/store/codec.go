package store

import (
	"strings"

	"roster/internal/model"
)

// Backing file layout: one student per line, fields in this order, joined by
// a bare comma. There is no quoting, so a comma inside a value shifts every
// following field on the next load.
const (
	separator  = ","
	fieldCount = 6
)

func encodeLine(s model.Student) string {
	return strings.Join([]string{s.Name, s.RollNumber, s.Course, s.Grade, s.Email, s.Contact}, separator)
}

// decodeLine parses one line. Lines with fewer than six fields are rejected;
// fields past the sixth are ignored.
func decodeLine(line string) (model.Student, bool) {
	parts := strings.Split(line, separator)
	if len(parts) < fieldCount {
		return model.Student{}, false
	}
	return model.Student{
		Name:       parts[0],
		RollNumber: parts[1],
		Course:     parts[2],
		Grade:      parts[3],
		Email:      parts[4],
		Contact:    parts[5],
	}, true
}

// fitsLine reports whether the values can be written without splitting the
// record across lines.
func fitsLine(values ...string) bool {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return false
		}
	}
	return true
}
