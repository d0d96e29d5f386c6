// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscout/internal/models"
)

type weightsMeta struct {
	Version    string    `json:"version"`
	Sequence   int64     `json:"sequence"`
	ComputedAt time.Time `json:"computed_at"`
}

// LoadWeights returns the persisted weights as a snapshot. An empty store
// yields an empty snapshot with sequence 0.
func (s *Store) LoadWeights(ctx context.Context) (*models.WeightSnapshot, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	snap := &models.WeightSnapshot{Weights: make(map[string]models.PatternWeight)}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyWeightsMeta))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get weights meta: %w", err)
		default:
			var meta weightsMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode weights meta: %w", err)
			}
			snap.Version = meta.Version
			snap.Sequence = meta.Sequence
			snap.ComputedAt = meta.ComputedAt
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixWeight)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var w models.PatternWeight
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &w)
			}); err != nil {
				return fmt.Errorf("decode weight %s: %w", it.Item().Key(), err)
			}
			snap.Weights[w.TopicID] = w
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	return snap, nil
}

// SaveWeights persists the snapshot's updated topics, one transaction per
// topic, then records the snapshot version. A cancelled save leaves every
// topic either fully old or fully new.
func (s *Store) SaveWeights(ctx context.Context, snap *models.WeightSnapshot) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	topics := snap.Updated
	if topics == nil {
		for id := range snap.Weights {
			topics = append(topics, id)
		}
	}
	sort.Strings(topics)

	for _, id := range topics {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("save weights: %w", err)
		}
		w, ok := snap.Weights[id]
		if !ok {
			continue
		}
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("marshal weight %s: %w", id, err)
		}
		if err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(prefixWeight+id), data)
		}); err != nil {
			return fmt.Errorf("save weight %s: %w", id, err)
		}
	}

	meta, err := json.Marshal(weightsMeta{
		Version:    snap.Version,
		Sequence:   snap.Sequence,
		ComputedAt: snap.ComputedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal weights meta: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyWeightsMeta), meta)
	})
}
