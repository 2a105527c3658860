package service

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"roster/internal/model"
	"roster/internal/store"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

type ProgressInfo struct {
	FileName     string    `json:"fileName"`
	TotalRecords int       `json:"totalRecords"`
	Processed    int       `json:"processed"`
	Skipped      int       `json:"skipped"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

// UploadService imports uploaded roster files into the store and tracks the
// progress of each file.
type UploadService struct {
	store             *store.Store
	fileProgressMap   map[string]*ProgressInfo
	fileProgressLock  sync.RWMutex
	progressListeners map[chan *ProgressInfo]bool
	listenerLock      sync.RWMutex
}

func NewUploadService(s *store.Store) *UploadService {
	return &UploadService{
		store:             s,
		fileProgressMap:   make(map[string]*ProgressInfo),
		progressListeners: make(map[chan *ProgressInfo]bool),
	}
}

func (s *UploadService) RegisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.progressListeners[ch] = true
}

// UnregisterProgressListener removes a client from receiving progress updates
func (s *UploadService) UnregisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	delete(s.progressListeners, ch)
}

// BroadcastProgress sends a copy of progress to every listener that is ready.
func (s *UploadService) BroadcastProgress(progress *ProgressInfo) {
	s.listenerLock.RLock()
	defer s.listenerLock.RUnlock()

	for listener := range s.progressListeners {
		copyProgress := *progress
		select {
		case listener <- &copyProgress:
		default:
			// Skip if the listener is not ready
		}
	}
}

func (s *UploadService) updateProgress(fileName string, fn func(*ProgressInfo)) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		fn(progress)
		s.BroadcastProgress(progress)
	}
}

func (s *UploadService) updateProgressError(fileName string, err error) {
	s.updateProgress(fileName, func(p *ProgressInfo) {
		p.Status = StatusError
		p.Error = err.Error()
		p.EndTime = time.Now()
	})
}

func (s *UploadService) GetFileProgress(fileName string) *ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		copyProgress := *progress
		return &copyProgress
	}

	return nil
}

// GetAllFileProgress returns copies of every tracked file, ordered by name.
func (s *UploadService) GetAllFileProgress() []*ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	result := make([]*ProgressInfo, 0, len(s.fileProgressMap))
	for _, progress := range s.fileProgressMap {
		copyProgress := *progress
		result = append(result, &copyProgress)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileName < result[j].FileName })

	return result
}

// ProcessCSV imports a roster file laid out like the backing file
// (name, roll number, course, grade, email, contact). A header row is
// skipped. Rows that are short, contain a comma inside a field, or fail the
// store's add checks are counted as skipped.
func (s *UploadService) ProcessCSV(filePath string) error {
	fileName := filepath.Base(filePath)
	startTime := time.Now()

	// Initialize progress tracking
	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName] = &ProgressInfo{
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: startTime,
	}
	s.fileProgressLock.Unlock()

	rows, err := readRows(filePath)
	if err != nil {
		s.updateProgressError(fileName, err)
		return err
	}
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}

	students := make([]model.Student, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		student, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		students = append(students, student)
	}

	s.updateProgress(fileName, func(p *ProgressInfo) {
		p.TotalRecords = len(rows)
		p.Skipped = skipped
	})

	added, rejected, err := s.store.Import(students)
	for _, r := range rejected {
		log.Printf("Skipping row in %s: %v", fileName, r)
	}
	if err != nil {
		s.updateProgressError(fileName, err)
		return err
	}

	s.updateProgress(fileName, func(p *ProgressInfo) {
		p.Processed = added
		p.Skipped += len(rejected)
		p.Status = StatusCompleted
		p.EndTime = time.Now()
	})

	log.Printf("Imported %d of %d rows from %s in %v", added, len(rows), fileName, time.Since(startTime))
	return nil
}

func readRows(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV record")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(row[1])) {
	case "rollnumber", "roll_number", "roll number", "roll no":
		return true
	}
	return false
}

func parseRow(row []string) (model.Student, bool) {
	if len(row) < 6 {
		return model.Student{}, false
	}
	for _, field := range row[:6] {
		if strings.ContainsAny(field, ",\r\n") {
			return model.Student{}, false
		}
	}
	return model.Student{
		Name:       row[0],
		RollNumber: row[1],
		Course:     row[2],
		Grade:      row[3],
		Email:      row[4],
		Contact:    row[5],
	}.Trimmed(), true
}
