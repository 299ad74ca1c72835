package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	corejournal "github.com/kilianp07/carbontrip/core/journal"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/infra/logger"
)

// JSONLStore appends journeys to a JSON Lines file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
	log  logger.Logger
}

// NewJSONLStore creates the file when missing.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path, log: logger.New("journal-jsonl")}, nil
}

// Append writes j as one line.
func (s *JSONLStore) Append(_ context.Context, j model.JourneyPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(j)
}

// Load reads every matching line. Malformed lines are skipped with a warning.
func (s *JSONLStore) Load(ctx context.Context, q corejournal.Query) ([]model.JourneyPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var res []model.JourneyPattern
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var j model.JourneyPattern
		if err := json.Unmarshal(scanner.Bytes(), &j); err != nil {
			s.log.Warnf("%s:%d: skipping malformed journey: %v", s.path, line, err)
			continue
		}
		if q.Match(j) {
			res = append(res, j)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(res, func(a, b model.JourneyPattern) int { return a.Timestamp.Compare(b.Timestamp) })
	return res, nil
}

func (s *JSONLStore) Close() error { return nil }
