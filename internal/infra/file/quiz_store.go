// Package file stores quiz definitions in a single JSON document keyed by
// quiz id.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"quiz-room-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizStore reads the whole document on every call and rewrites it on every
// change. A missing or unreadable document is treated as empty.
type QuizStore struct {
	path string
	sf   singleflight.Group

	// serializes read-modify-write cycles within this process
	writeMu sync.Mutex
}

func NewQuizStore(path string) *QuizStore {
	return &QuizStore{path: path}
}

func (s *QuizStore) GetAll(_ context.Context) (map[string]domain.Quiz, error) {
	// Concurrent readers share one in-flight read; nothing is kept after it.
	result, err, _ := s.sf.Do("all", func() (interface{}, error) {
		return s.load()
	})
	if err != nil {
		return nil, err
	}
	shared := result.(map[string]domain.Quiz)
	out := make(map[string]domain.Quiz, len(shared))
	for id, q := range shared {
		q.Questions = q.CloneQuestions()
		out[id] = q
	}
	return out, nil
}

func (s *QuizStore) Get(ctx context.Context, id string) (domain.Quiz, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	q, ok := all[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

func (s *QuizStore) Put(_ context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return domain.ErrInvalidQuiz
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, err := s.loadForWrite()
	if err != nil {
		return err
	}
	all[quiz.ID] = quiz
	return s.save(all)
}

func (s *QuizStore) Delete(_ context.Context, id string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, err := s.loadForWrite()
	if err != nil {
		return false, err
	}
	if _, ok := all[id]; !ok {
		return false, nil
	}
	delete(all, id)
	return true, s.save(all)
}

var errCorrupt = errors.New("corrupt quiz document")

// read returns the document, an fs error when it cannot be read, or
// errCorrupt when it cannot be decoded. A missing document is empty.
func (s *QuizStore) read() (map[string]domain.Quiz, error) {
	all := make(map[string]domain.Quiz)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	for id, q := range all {
		// documents written by older versions carry the id only as the key
		if q.ID == "" {
			q.ID = id
			all[id] = q
		}
	}
	return all, nil
}

// load is the read path: anything unreadable is treated as empty.
func (s *QuizStore) load() (map[string]domain.Quiz, error) {
	all, err := s.read()
	if err != nil {
		log.Printf("quiz store %s unusable, treating as empty: %v", s.path, err)
		return make(map[string]domain.Quiz), nil
	}
	return all, nil
}

// loadForWrite is the write path. A corrupt document is moved aside before
// it gets replaced; a document that cannot be read at all fails the write.
func (s *QuizStore) loadForWrite() (map[string]domain.Quiz, error) {
	all, err := s.read()
	switch {
	case err == nil:
		return all, nil
	case errors.Is(err, errCorrupt):
		aside := s.path + ".corrupt"
		if err := os.Rename(s.path, aside); err != nil {
			return nil, fmt.Errorf("move corrupt quiz store aside: %w", err)
		}
		log.Printf("quiz store %s corrupt, moved to %s", s.path, aside)
		return make(map[string]domain.Quiz), nil
	default:
		return nil, fmt.Errorf("read quiz store: %w", err)
	}
}

// save writes to a temp file and renames it over the document so readers
// never see a half-written file.
func (s *QuizStore) save(all map[string]domain.Quiz) error {
	data, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal quizzes: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write quizzes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace quiz store: %w", err)
	}
	return nil
}
