package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pashagolub/tourneysim/pkg/sim"
)

// Error types for run log operations
var (
	ErrRunLogCorrupted = errors.New("run log corrupted or tampered")
	ErrRunLogClosed    = errors.New("run log is closed")
)

// RunEntry is one line of the run log. Entries are hash chained so an edited
// or truncated log is detected by Verify.
type RunEntry struct {
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	BatchID      string     `json:"batch_id"`
	Run          int        `json:"run"`
	Result       sim.Result `json:"result"`
	Error        string     `json:"error,omitempty"`
	PreviousHash string     `json:"previous_hash"`
	EntryHash    string     `json:"entry_hash"`
	Sequence     uint64     `json:"sequence"`
}

// RunLog streams finished runs to an append-only JSON Lines file while a batch
// is still running. It is safe for concurrent use by the workers.
type RunLog struct {
	batchID  string
	path     string
	file     *os.File
	mutex    sync.Mutex
	lastHash string
	sequence uint64
}

// OpenRunLog opens or creates the log at path. An existing log is verified and
// new entries continue its chain.
func OpenRunLog(path string, batchID uuid.UUID) (*RunLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	l := &RunLog{batchID: batchID.String(), path: path}
	if _, err := os.Stat(path); err == nil {
		entries, err := ReadRunLog(path)
		if err != nil {
			return nil, err
		}
		if n := len(entries); n > 0 {
			l.lastHash = entries[n-1].EntryHash
			l.sequence = entries[n-1].Sequence + 1
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	l.file = file
	return l, nil
}

// Append writes the result of a finished run
func (l *RunLog) Append(result sim.Result) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return ErrRunLogClosed
	}
	entry := RunEntry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		BatchID:      l.batchID,
		Run:          result.Run,
		Result:       result,
		PreviousHash: l.lastHash,
		Sequence:     l.sequence,
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	entry.EntryHash = entryHash(&entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run entry: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write run entry: %w", err)
	}

	l.lastHash = entry.EntryHash
	l.sequence++
	return nil
}

// Sequence returns the sequence number of the next entry
func (l *RunLog) Sequence() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.sequence
}

// Path returns the location of the log file
func (l *RunLog) Path() string {
	return l.path
}

// Close syncs and closes the log file
func (l *RunLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}
	syncErr := l.file.Sync()
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(syncErr, closeErr)
}

// ReadRunLog reads every entry of the log at path and verifies the hash chain
func ReadRunLog(path string) ([]RunEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer file.Close()

	var entries []RunEntry
	previous := ""
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry RunEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrRunLogCorrupted, line, err)
		}
		if entry.Sequence != uint64(len(entries)) {
			return nil, fmt.Errorf("%w: line %d has sequence %d, want %d",
				ErrRunLogCorrupted, line, entry.Sequence, len(entries))
		}
		if entry.PreviousHash != previous || entry.EntryHash != entryHash(&entry) {
			return nil, fmt.Errorf("%w: hash mismatch on line %d", ErrRunLogCorrupted, line)
		}
		previous = entry.EntryHash
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	return entries, nil
}

// entryHash computes the SHA-256 hash of an entry without its own hash
func entryHash(entry *RunEntry) string {
	result, _ := json.Marshal(entry.Result)
	resultHash := sha256.Sum256(result)
	content := fmt.Sprintf("%s|%s|%s|%d|%s|%s|%d|%s",
		entry.ID,
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.BatchID,
		entry.Run,
		entry.Error,
		entry.PreviousHash,
		entry.Sequence,
		hex.EncodeToString(resultHash[:]))

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
