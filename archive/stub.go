package archive

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// StubArchive records PutLog calls for testing.
type StubArchive struct {
	mu   sync.Mutex
	Logs []StubLogRecord
	// Err, if set, is returned from every PutLog.
	Err error
}

// StubLogRecord is a recorded log upload.
type StubLogRecord struct {
	Key    string
	Sample string
	Data   []byte
}

// NewStubArchive creates a new stub archive.
func NewStubArchive() *StubArchive {
	return &StubArchive{}
}

// PutLog implements Archiver by reading the log and recording it.
func (s *StubArchive) PutLog(_ context.Context, runID, sample, logPath string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", WrapReadError(err, logPath)
	}
	key := Key(runID, sample, filepath.Base(logPath))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Logs = append(s.Logs, StubLogRecord{Key: key, Sample: sample, Data: data})
	return key, nil
}

// Backend implements Archiver.
func (s *StubArchive) Backend() string {
	return "stub"
}

// Verify StubArchive implements Archiver.
var _ Archiver = (*StubArchive)(nil)
