package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
)

const (
	opCreate   = "create"
	opRename   = "rename"
	opRetarget = "retarget"
	opDelete   = "delete"
)

// Storage implements LinkStorage backed by an append-only JSONL journal.
// The journal is replayed into memory on start-up.
type Storage struct {
	filePath string
	links    map[string]model.Link
	mu       sync.RWMutex
}

// NewStorage creates a file-backed storage at the provided path.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		filePath: filePath,
		links:    make(map[string]model.Link),
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Get(_ context.Context, link string) (model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, found := s.links[link]
	if !found {
		return model.Link{}, storage.ErrLinkNotFound
	}
	return l, nil
}

func (s *Storage) Exists(_ context.Context, link string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.links[link]
	return found, nil
}

func (s *Storage) Create(_ context.Context, l model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[l.Link]; found {
		return storage.ErrLinkExists
	}

	record := model.LinkRecord{
		Op:       opCreate,
		Link:     l.Link,
		Target:   l.Target,
		Password: l.Password,
	}
	if err := s.saveRecordToFile(record); err != nil {
		return err
	}

	s.links[l.Link] = l
	return nil
}

func (s *Storage) Rename(_ context.Context, link, newLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[link]; !found {
		return storage.ErrLinkNotFound
	}
	if _, taken := s.links[newLink]; taken {
		return storage.ErrLinkExists
	}

	if err := s.saveRecordToFile(model.LinkRecord{Op: opRename, Link: link, NewLink: newLink}); err != nil {
		return err
	}

	s.apply(model.LinkRecord{Op: opRename, Link: link, NewLink: newLink})
	return nil
}

func (s *Storage) UpdateTarget(_ context.Context, link, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[link]; !found {
		return storage.ErrLinkNotFound
	}

	record := model.LinkRecord{Op: opRetarget, Link: link, Target: target}
	if err := s.saveRecordToFile(record); err != nil {
		return err
	}

	s.apply(record)
	return nil
}

func (s *Storage) Delete(_ context.Context, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[link]; !found {
		return storage.ErrLinkNotFound
	}

	record := model.LinkRecord{Op: opDelete, Link: link}
	if err := s.saveRecordToFile(record); err != nil {
		return err
	}

	s.apply(record)
	return nil
}

// Ping checks that the journal is still reachable.
func (s *Storage) Ping(context.Context) error {
	_, err := os.Stat(s.filePath)
	return err
}

func (s *Storage) Close() error {
	return nil
}

// apply mutates the in-memory view; callers hold mu.
func (s *Storage) apply(record model.LinkRecord) {
	switch record.Op {
	case opCreate:
		s.links[record.Link] = model.Link{
			Link:     record.Link,
			Target:   record.Target,
			Password: record.Password,
		}
	case opRename:
		l, found := s.links[record.Link]
		if !found {
			return
		}
		delete(s.links, record.Link)
		l.Link = record.NewLink
		s.links[record.NewLink] = l
	case opRetarget:
		if l, found := s.links[record.Link]; found {
			l.Target = record.Target
			s.links[record.Link] = l
		}
	case opDelete:
		delete(s.links, record.Link)
	}
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record model.LinkRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		s.apply(record)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (s *Storage) saveRecordToFile(record model.LinkRecord) error {
	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
