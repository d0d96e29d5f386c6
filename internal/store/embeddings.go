// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
)

// GetEmbedding returns a cached vector. found is false on a miss.
func (s *Store) GetEmbedding(key string) (vector []float32, found bool, err error) {
	if err := s.checkOpen(context.Background()); err != nil {
		return nil, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixEmbedding + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val)%4 != 0 {
				return fmt.Errorf("embedding %s has %d bytes", key, len(val))
			}
			vector = make([]float32, len(val)/4)
			for i := range vector {
				vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(val[i*4:]))
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}
	return vector, found, nil
}

// PutEmbedding stores a vector under key.
func (s *Store) PutEmbedding(key string, vector []float32) error {
	if err := s.checkOpen(context.Background()); err != nil {
		return err
	}

	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixEmbedding+key), buf)
	})
}
