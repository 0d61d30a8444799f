package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a lookup, update or delete matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a participant name is already taken.
	ErrConflict = errors.New("record already exists")
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateParticipant inserts a participant together with its "entered"
	// status message. Returns ErrConflict, writing nothing, if the name exists.
	CreateParticipant(ctx context.Context, participant *Participant, status *Message) error

	// GetParticipant retrieves a participant by exact name.
	GetParticipant(ctx context.Context, name string) (*Participant, error)

	// ListParticipants retrieves every participant ordered by name.
	ListParticipants(ctx context.Context) ([]Participant, error)

	// TouchParticipant refreshes a participant's last seen timestamp.
	TouchParticipant(ctx context.Context, name string, lastSeen int64) error

	// ListExpiredParticipants retrieves participants with last_seen < cutoff.
	ListExpiredParticipants(ctx context.Context, cutoff int64) ([]Participant, error)

	// ExpireParticipant removes a participant still older than cutoff and
	// records its "left" status message in one transaction. Returns
	// ErrNotFound, writing nothing, if the participant is gone or was refreshed.
	ExpireParticipant(ctx context.Context, name string, cutoff int64, status *Message) error

	// SaveMessage inserts a new message record and sets its ID.
	SaveMessage(ctx context.Context, message *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// ListMessages retrieves the whole log in insertion order.
	ListMessages(ctx context.Context) ([]Message, error)

	// UpdateMessage rewrites the recipient, text and type of a message.
	UpdateMessage(ctx context.Context, message *Message) error

	// DeleteMessage removes a message by ID.
	DeleteMessage(ctx context.Context, id int64) error

	// Stats counts participants and messages.
	Stats(ctx context.Context) (RoomStats, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

const (
	insertMessageQuery = `
        INSERT INTO messages ("from", "to", text, type, time, created_at)
        VALUES (:from, :to, :text, :type, :time, :created_at);
    `
	selectMessageColumns = `SELECT id, "from", "to", text, type, time, created_at FROM messages`
)

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateParticipant inserts the participant and its status message atomically.
func (s *sqlxStore) CreateParticipant(ctx context.Context, participant *Participant, status *Message) error {
	if participant == nil || participant.Name == "" {
		return fmt.Errorf("participant must have a non-empty name")
	}
	if err := checkMessage(status); err != nil {
		return err
	}

	return s.withTx(ctx, "create participant", func(tx *sqlx.Tx) error {
		var exists bool
		err := tx.GetContext(ctx, &exists, `SELECT 1 FROM participants WHERE name = ? LIMIT 1`, participant.Name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check participant %q: %w", participant.Name, err)
		}
		if exists {
			return ErrConflict
		}

		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO participants (name, last_seen) VALUES (:name, :last_seen)`, participant)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to insert participant %q: %w", participant.Name, err)
		}

		return insertMessage(ctx, tx, status)
	})
}

// GetParticipant retrieves a participant by exact name.
func (s *sqlxStore) GetParticipant(ctx context.Context, name string) (*Participant, error) {
	var p Participant
	err := s.db.GetContext(ctx, &p, `SELECT name, last_seen FROM participants WHERE name = ?`, name)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No participant found", "name", name)
		return nil, ErrNotFound

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching participant",
			"name", name, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting participant", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get participant %q: %w", name, err)
	}

	return &p, nil
}

// ListParticipants retrieves every participant ordered by name.
func (s *sqlxStore) ListParticipants(ctx context.Context) ([]Participant, error) {
	participants := []Participant{}
	if err := s.db.SelectContext(ctx, &participants,
		`SELECT name, last_seen FROM participants ORDER BY name`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing participants", "error", err)
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return participants, nil
}

// TouchParticipant refreshes a participant's last seen timestamp.
func (s *sqlxStore) TouchParticipant(ctx context.Context, name string, lastSeen int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE participants SET last_seen = ? WHERE name = ?`, lastSeen, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error touching participant", "name", name, "error", err)
		return fmt.Errorf("failed to update participant %q: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for participant %q: %w", name, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.DebugContext(ctx, "Participant refreshed", "name", name, "last_seen", lastSeen)
	return nil
}

// ListExpiredParticipants retrieves participants with last_seen < cutoff.
func (s *sqlxStore) ListExpiredParticipants(ctx context.Context, cutoff int64) ([]Participant, error) {
	participants := []Participant{}
	err := s.db.SelectContext(ctx, &participants,
		`SELECT name, last_seen FROM participants WHERE last_seen < ? ORDER BY last_seen`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing expired participants", "cutoff", cutoff, "error", err)
		return nil, fmt.Errorf("failed to list expired participants: %w", err)
	}

	return participants, nil
}

// ExpireParticipant deletes the participant, guarded by the cutoff, and
// records its status message in the same transaction.
func (s *sqlxStore) ExpireParticipant(ctx context.Context, name string, cutoff int64, status *Message) error {
	if err := checkMessage(status); err != nil {
		return err
	}

	return s.withTx(ctx, "expire participant", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM participants WHERE name = ? AND last_seen < ?`, name, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete participant %q: %w", name, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows for participant %q: %w", name, err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		return insertMessage(ctx, tx, status)
	})
}

// SaveMessage inserts a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if err := checkMessage(message); err != nil {
		return err
	}

	if err := insertMessage(ctx, s.db, message); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "from", message.From, "to", message.To, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"from", message.From, "to", message.To, "type", message.Type, "message_id", message.ID)
	return nil
}

// GetMessage retrieves a message by ID.
func (s *sqlxStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := s.db.GetContext(ctx, &m, selectMessageColumns+` WHERE id = ?`, id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting message", "message_id", id, "error", err)
		return nil, fmt.Errorf("failed to get message %d: %w", id, err)
	}

	return &m, nil
}

// ListMessages retrieves the whole log in insertion order.
func (s *sqlxStore) ListMessages(ctx context.Context) ([]Message, error) {
	messages := []Message{}
	err := s.db.SelectContext(ctx, &messages, selectMessageColumns+` ORDER BY id ASC`)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages", "error", err)
		return nil, err
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing messages", "error", err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched messages successfully", "count", len(messages))
	return messages, nil
}

// UpdateMessage rewrites the recipient, text and type of a message.
func (s *sqlxStore) UpdateMessage(ctx context.Context, message *Message) error {
	if err := checkMessage(message); err != nil {
		return err
	}

	result, err := s.db.NamedExecContext(ctx,
		`UPDATE messages SET "to" = :to, text = :text, type = :type WHERE id = :id`, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating message", "message_id", message.ID, "error", err)
		return fmt.Errorf("failed to update message %d: %w", message.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for message %d: %w", message.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteMessage removes a message by ID.
func (s *sqlxStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting message", "message_id", id, "error", err)
		return fmt.Errorf("failed to delete message %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for message %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.InfoContext(ctx, "Deleted message", "message_id", id)
	return nil
}

// Stats counts participants and messages in one read.
func (s *sqlxStore) Stats(ctx context.Context) (RoomStats, error) {
	var stats RoomStats
	err := s.db.GetContext(ctx, &stats, `
        SELECT (SELECT COUNT(*) FROM participants) AS participants,
               (SELECT COUNT(*) FROM messages)     AS messages`)
	if err != nil {
		return RoomStats{}, fmt.Errorf("failed to count room rows: %w", err)
	}

	return stats, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *sqlxStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "operation", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "operation", op, "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) {
			s.logger.ErrorContext(ctx, "Transaction failed", "operation", op, "error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "operation", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil

	return nil
}

func insertMessage(ctx context.Context, db sqlx.ExtContext, message *Message) error {
	result, err := sqlx.NamedExecContext(ctx, db, insertMessageQuery, message)
	if err != nil {
		return fmt.Errorf("failed to save message from %q: %w", message.From, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read id of message from %q: %w", message.From, err)
	}
	message.ID = id

	return nil
}

func checkMessage(message *Message) error {
	switch {
	case message == nil:
		return fmt.Errorf("cannot save nil message")
	case message.From == "":
		return fmt.Errorf("message must have a non-empty sender")
	case message.To == "":
		return fmt.Errorf("message must have a non-empty recipient")
	case message.Text == "":
		return fmt.Errorf("message must have non-empty text")
	case message.Type == "":
		return fmt.Errorf("message must have a type")
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
