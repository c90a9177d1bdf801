//go:generate go run go.uber.org/mock/mockgen -source=progress.go -destination=../mocks/mock_progress_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gabriel-vasile/mimetype"

	apperrors "sus-lab/errors"
)

type IProgressRepository interface {
	Save(playerName string, payload []byte) error
	Load(playerName string) ([]byte, error)
}

// ProgressRepository persists opaque task-progress payloads in BadgerDB so
// a player can restore their tasks after a reconnect or a lobby reset.
// Progress is keyed by display name rather than connection identity: a
// reconnecting player arrives with a fresh uuid but the same name.
type ProgressRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProgressRepository(db *badger.DB, log *slog.Logger) ProgressRepository {
	return ProgressRepository{db: db, log: log}
}

// ProgressRecord is the stored envelope. ContentType is detected at save
// time so the inspector tool can tell JSON payloads from anything odd a
// client ships.
type ProgressRecord struct {
	Player      string          `json:"player"`
	Payload     json.RawMessage `json:"payload"`
	ContentType string          `json:"contentType"`
	SavedAt     time.Time       `json:"savedAt"`
}

func progressKey(playerName string) []byte {
	return []byte(fmt.Sprintf("progress:%s", playerName))
}

// Save overwrites the player's previous payload; only the latest save is
// ever restored.
func (r ProgressRepository) Save(playerName string, payload []byte) error {
	record := ProgressRecord{
		Player:      playerName,
		Payload:     payload,
		ContentType: mimetype.Detect(payload).String(),
		SavedAt:     time.Now().UTC(),
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(progressKey(playerName), bytes)
	})
}

// Load returns ErrNoProgress when the player never saved anything.
func (r ProgressRepository) Load(playerName string) ([]byte, error) {
	var payload []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(progressKey(playerName))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var record ProgressRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			payload = record.Payload
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, apperrors.ErrNoProgress
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}
