// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

const (
	annKeyPrefix  = "ann/"
	annProjPrefix = "annproj/"
	annTgtPrefix  = "anntgt/"
	annCodePrefix = "anncode/"
)

func annKey(annotationID string) []byte {
	return []byte(annKeyPrefix + annotationID)
}

func annProjKey(projectID, annotationID string) []byte {
	return []byte(annProjPrefix + projectID + "/" + annotationID)
}

func annTgtKey(target datatypes.Target, annotationID string) []byte {
	return []byte(annTgtPrefix + string(target.Kind) + "/" + target.ID + "/" + annotationID)
}

func annCodeKey(codeID, annotationID string) []byte {
	return []byte(annCodePrefix + codeID + "/" + annotationID)
}

// AnnotationStore persists text-span annotations with secondary
// indexes by project, target, and code. Annotations are immutable
// rows: there is no update path, only create and delete.
type AnnotationStore struct {
	db *badger.DB
}

// NewAnnotationStore creates an AnnotationStore over an open database.
func NewAnnotationStore(db *badger.DB) *AnnotationStore {
	return &AnnotationStore{db: db}
}

// Create persists a new annotation and its index entries.
func (s *AnnotationStore) Create(ctx context.Context, ann *datatypes.Annotation) error {
	payload, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("marshal annotation: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(annKey(ann.ID), payload); err != nil {
			return err
		}
		if err := txn.Set(annProjKey(ann.ProjectID, ann.ID), []byte(ann.ID)); err != nil {
			return err
		}
		if err := txn.Set(annTgtKey(ann.Target, ann.ID), []byte(ann.ID)); err != nil {
			return err
		}
		return txn.Set(annCodeKey(ann.CodeID, ann.ID), []byte(ann.ID))
	})
	if err != nil {
		return fmt.Errorf("create annotation %s: %w", ann.ID, err)
	}
	return nil
}

// Get returns the annotation by id, or datatypes.ErrNotFound.
func (s *AnnotationStore) Get(ctx context.Context, annotationID string) (*datatypes.Annotation, error) {
	var ann datatypes.Annotation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(annKey(annotationID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ann)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("annotation %s: %w", annotationID, datatypes.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get annotation %s: %w", annotationID, err)
	}
	return &ann, nil
}

// Delete removes the annotation and its index entries.
func (s *AnnotationStore) Delete(ctx context.Context, annotationID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(annKey(annotationID))
		if err != nil {
			return err
		}
		var stored datatypes.Annotation
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}
		if err := txn.Delete(annProjKey(stored.ProjectID, annotationID)); err != nil {
			return err
		}
		if err := txn.Delete(annTgtKey(stored.Target, annotationID)); err != nil {
			return err
		}
		if err := txn.Delete(annCodeKey(stored.CodeID, annotationID)); err != nil {
			return err
		}
		return txn.Delete(annKey(annotationID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("annotation %s: %w", annotationID, datatypes.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete annotation %s: %w", annotationID, err)
	}
	return nil
}

// ListByTarget returns every annotation on the target, unordered.
// The annotations package sorts by span for rendering.
func (s *AnnotationStore) ListByTarget(ctx context.Context, target datatypes.Target) ([]*datatypes.Annotation, error) {
	prefix := []byte(annTgtPrefix + string(target.Kind) + "/" + target.ID + "/")
	return s.listByIndex(ctx, prefix)
}

// ListByCode returns every annotation tagged with the code, unordered.
func (s *AnnotationStore) ListByCode(ctx context.Context, codeID string) ([]*datatypes.Annotation, error) {
	prefix := []byte(annCodePrefix + codeID + "/")
	return s.listByIndex(ctx, prefix)
}

// ListByProject returns every annotation in the project, unordered.
// Analytics reads go through this and filter in memory.
func (s *AnnotationStore) ListByProject(ctx context.Context, projectID string) ([]*datatypes.Annotation, error) {
	prefix := []byte(annProjPrefix + projectID + "/")
	return s.listByIndex(ctx, prefix)
}

func (s *AnnotationStore) listByIndex(ctx context.Context, prefix []byte) ([]*datatypes.Annotation, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan annotation index %s: %w", prefix, err)
	}

	anns := make([]*datatypes.Annotation, 0, len(ids))
	for _, id := range ids {
		ann, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				continue
			}
			return nil, err
		}
		anns = append(anns, ann)
	}
	return anns, nil
}
