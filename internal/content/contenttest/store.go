// Package contenttest provides an in-memory document store for tests.
package contenttest

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/mo-amir99/training-portal/internal/onelake"
)

// Store keeps documents in memory and enforces etag preconditions the way OneLake does.
type Store struct {
	mu      sync.Mutex
	docs    map[string]onelake.Document
	version int

	GetErr    error
	PutErr    error
	Gets      int
	Puts      int
	BeforePut func(name string)
	AfterGet  func(name string)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]onelake.Document)}
}

// Seed stores v as the JSON document name.
func (s *Store) Seed(name string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.SeedRaw(name, body)
}

// SeedRaw stores body verbatim.
func (s *Store) SeedRaw(name string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = onelake.Document{Body: body, ETag: s.nextTag()}
}

// Body returns the stored bytes of a document.
func (s *Store) Body(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[name]
	return doc.Body, ok
}

// Decode unmarshals a stored document into v.
func (s *Store) Decode(name string, v any) error {
	body, ok := s.Body(name)
	if !ok {
		return onelake.ErrNotFound
	}
	return json.Unmarshal(body, v)
}

func (s *Store) Get(_ context.Context, name string) (onelake.Document, error) {
	doc, err := s.get(name)
	if s.AfterGet != nil {
		s.AfterGet(name)
	}
	return doc, err
}

func (s *Store) get(name string) (onelake.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++

	if s.GetErr != nil {
		return onelake.Document{}, s.GetErr
	}
	doc, ok := s.docs[name]
	if !ok {
		return onelake.Document{}, onelake.ErrNotFound
	}
	return onelake.Document{Body: append([]byte(nil), doc.Body...), ETag: doc.ETag}, nil
}

func (s *Store) Put(_ context.Context, name string, body []byte, etag string) (string, error) {
	if s.BeforePut != nil {
		s.BeforePut(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++

	if s.PutErr != nil {
		return "", s.PutErr
	}
	current, exists := s.docs[name]
	switch {
	case etag == "" && exists:
		return "", onelake.ErrPreconditionFailed
	case etag != "" && (!exists || current.ETag != etag):
		return "", onelake.ErrPreconditionFailed
	}

	tag := s.nextTag()
	s.docs[name] = onelake.Document{Body: append([]byte(nil), body...), ETag: tag}
	return tag, nil
}

func (s *Store) nextTag() string {
	s.version++
	return `"v` + strconv.Itoa(s.version) + `"`
}
