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
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

const (
	codeKeyPrefix  = "code/"
	codeProjPrefix = "codeproj/"
	codeNamePrefix = "codename/"
)

// FoldName normalizes a code name for uniqueness comparison.
// "Foo" and "foo" fold to the same key.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func codeKey(codeID string) []byte {
	return []byte(codeKeyPrefix + codeID)
}

func codeProjKey(projectID, codeID string) []byte {
	return []byte(codeProjPrefix + projectID + "/" + codeID)
}

func codeNameKey(projectID, name string) []byte {
	return []byte(codeNamePrefix + projectID + "/" + FoldName(name))
}

// CodeStore persists taxonomy codes. It owns the unique-name index:
// name checks and writes happen inside one Badger transaction.
type CodeStore struct {
	db *badger.DB
}

// NewCodeStore creates a CodeStore over an open database.
func NewCodeStore(db *badger.DB) *CodeStore {
	return &CodeStore{db: db}
}

// Create persists a new code. Returns datatypes.ConflictError if the
// folded name is already taken in the project.
func (s *CodeStore) Create(ctx context.Context, code *datatypes.Code) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal code: %w", err)
	}
	nameKey := codeNameKey(code.ProjectID, code.Name)

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nameKey); err == nil {
			return &datatypes.ConflictError{ProjectID: code.ProjectID, Name: code.Name}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(codeKey(code.ID), payload); err != nil {
			return err
		}
		if err := txn.Set(codeProjKey(code.ProjectID, code.ID), []byte(code.ID)); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(code.ID))
	})
	if err != nil {
		return fmt.Errorf("create code %s: %w", code.ID, err)
	}
	return nil
}

// Get returns the code by id, or datatypes.ErrNotFound.
func (s *CodeStore) Get(ctx context.Context, codeID string) (*datatypes.Code, error) {
	var code datatypes.Code
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(codeKey(codeID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &code)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("code %s: %w", codeID, datatypes.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get code %s: %w", codeID, err)
	}
	return &code, nil
}

// Update rewrites an existing code. Renames move the unique-name index
// entry inside the same transaction and return datatypes.ConflictError
// when the new name is taken by another code.
func (s *CodeStore) Update(ctx context.Context, code *datatypes.Code) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal code: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(codeKey(code.ID))
		if err != nil {
			return err
		}
		var stored datatypes.Code
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		if FoldName(stored.Name) != FoldName(code.Name) {
			newNameKey := codeNameKey(code.ProjectID, code.Name)
			if existing, err := txn.Get(newNameKey); err == nil {
				var ownerID string
				_ = existing.Value(func(val []byte) error {
					ownerID = string(val)
					return nil
				})
				if ownerID != code.ID {
					return &datatypes.ConflictError{ProjectID: code.ProjectID, Name: code.Name}
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(codeNameKey(stored.ProjectID, stored.Name)); err != nil {
				return err
			}
			if err := txn.Set(newNameKey, []byte(code.ID)); err != nil {
				return err
			}
		}

		return txn.Set(codeKey(code.ID), payload)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("code %s: %w", code.ID, datatypes.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update code %s: %w", code.ID, err)
	}
	return nil
}

// Delete removes the code and its index entries. Annotations that
// reference the code are not touched here.
func (s *CodeStore) Delete(ctx context.Context, codeID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(codeKey(codeID))
		if err != nil {
			return err
		}
		var stored datatypes.Code
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}
		if err := txn.Delete(codeNameKey(stored.ProjectID, stored.Name)); err != nil {
			return err
		}
		if err := txn.Delete(codeProjKey(stored.ProjectID, codeID)); err != nil {
			return err
		}
		return txn.Delete(codeKey(codeID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("code %s: %w", codeID, datatypes.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete code %s: %w", codeID, err)
	}
	return nil
}

// ListByProject returns every code in the project, name-sorted.
func (s *CodeStore) ListByProject(ctx context.Context, projectID string) ([]*datatypes.Code, error) {
	var ids []string
	prefix := []byte(codeProjPrefix + projectID + "/")

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
		return nil, fmt.Errorf("list codes for project %s: %w", projectID, err)
	}

	codes := make([]*datatypes.Code, 0, len(ids))
	for _, id := range ids {
		code, err := s.Get(ctx, id)
		if err != nil {
			// Index entry without a row means a concurrent delete
			// landed between iterations; skip it.
			if errors.Is(err, datatypes.ErrNotFound) {
				continue
			}
			return nil, err
		}
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return FoldName(codes[i].Name) < FoldName(codes[j].Name)
	})
	return codes, nil
}
