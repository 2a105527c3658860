package database

import (
	"log"

	"gorm.io/gorm"

	"roster/internal/model"
)

// StudentRow is a roster entry as stored in the mirror. Position keeps the
// roster's insertion order, starting at 1.
type StudentRow struct {
	Position      int `gorm:"primaryKey;autoIncrement:false"`
	model.Student `gorm:"embedded"`
}

func (StudentRow) TableName() string {
	return "students"
}

// Mirror copies the roster into a SQL table after every save so it can be
// queried by reporting tools. The text file stays the source of truth.
type Mirror struct {
	db *gorm.DB
}

func NewMirror(db *gorm.DB) *Mirror {
	return &Mirror{db: db}
}

// Sync replaces the table contents with students in one transaction.
func (m *Mirror) Sync(students []model.Student) error {
	rows := make([]StudentRow, len(students))
	for i, s := range students {
		rows[i] = StudentRow{Position: i + 1, Student: s}
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&StudentRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

// OnChange is meant to be registered as a store change hook. Failures are
// logged only; the mirror never fails a roster mutation.
func (m *Mirror) OnChange(students []model.Student) {
	if err := m.Sync(students); err != nil {
		log.Printf("Error syncing %d students to mirror: %v", len(students), err)
	}
}

// list returns the mirrored roster in insertion order.
func (m *Mirror) list() ([]model.Student, error) {
	var rows []StudentRow
	if err := m.db.Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	students := make([]model.Student, len(rows))
	for i, row := range rows {
		students[i] = row.Student
	}
	return students, nil
}
