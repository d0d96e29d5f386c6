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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/trendscout/internal/models"
)

const appendAttempts = 3

func feedbackKey(e *models.FeedbackEvent) []byte {
	return []byte(prefixFeedback + e.Timestamp.UTC().Format(timestampLayout) + ":" + e.ID)
}

func eventIDKey(id string) []byte {
	return []byte(prefixEventID + id)
}

func servedKey(week, personaID string) []byte {
	return []byte(prefixServed + week + ":" + personaID)
}

// AppendFeedback appends an event to the feedback log, filling in a
// missing id and timestamp. A produced event with a persona also counts
// toward that persona's served total for the event's ISO week, in the
// same transaction.
//
// Logged events are never rewritten: an id that is already in the log,
// whatever its timestamp, returns ErrDuplicateEvent and changes nothing.
func (s *Store) AppendFeedback(ctx context.Context, event *models.FeedbackEvent) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	// Conflicts come from a concurrent append touching the same served
	// counter or id. Retrying re-runs the duplicate check.
	for attempt := 1; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			return appendFeedback(txn, event, data)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt == appendAttempts {
			return err
		}
	}
}

func appendFeedback(txn *badger.Txn, event *models.FeedbackEvent, data []byte) error {
	idKey := eventIDKey(event.ID)
	_, err := txn.Get(idKey)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, event.ID)
	case !errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("check feedback id: %w", err)
	}

	key := feedbackKey(event)
	if err := txn.Set(idKey, key); err != nil {
		return fmt.Errorf("set feedback id: %w", err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if event.Action == models.ActionProduced && event.PersonaID != "" {
		return incrementServed(txn, models.ISOWeek(event.Timestamp), event.PersonaID, 1)
	}
	return nil
}

// ListFeedback returns events with a timestamp at or after since, oldest
// first. A zero since lists the whole log.
func (s *Store) ListFeedback(ctx context.Context, since time.Time) ([]models.FeedbackEvent, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	var events []models.FeedbackEvent
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixFeedback)
		start := prefix
		if !since.IsZero() {
			start = []byte(prefixFeedback + since.UTC().Format(timestampLayout))
		}
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e models.FeedbackEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode feedback %s: %w", it.Item().Key(), err)
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return events, nil
}

// IncrementServed adds n to a persona's served count for week.
func (s *Store) IncrementServed(ctx context.Context, week, personaID string, n int) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return incrementServed(txn, week, personaID, n)
	})
}

func incrementServed(txn *badger.Txn, week, personaID string, n int) error {
	key := servedKey(week, personaID)
	var current uint64

	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("get served count: %w", err)
	default:
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("served count has %d bytes", len(val))
			}
			current = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}
	}

	next := int64(current) + int64(n)
	if next < 0 {
		next = 0
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(next))
	return txn.Set(key, buf)
}

// ServedCounts returns each persona's served count for week.
func (s *Store) ServedCounts(ctx context.Context, week string) (map[string]int, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixServed + week + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			persona := string(it.Item().Key()[len(prefix):])
			if err := it.Item().Value(func(val []byte) error {
				if len(val) == 8 {
					counts[persona] = int(binary.BigEndian.Uint64(val))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("served counts: %w", err)
	}
	return counts, nil
}
