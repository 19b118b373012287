package repository

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/jackc/pgx/v5"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = newID()
	message.CreatedAt = now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, message.ID, message.SenderID, message.RecipientID, message.Content, message.Read, message.CreatedAt)
	return translatePgError(err)
}

func (r *MessageRepository) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) ListThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC, id ASC
	`, userID, partnerID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) MarkThreadRead(ctx context.Context, readerID, partnerID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE sender_id = $1
		  AND recipient_id = $2
		  AND is_read = FALSE
	`, partnerID, readerID)
	return err
}

// PostgresMessageStore runs thread reads inside a single transaction.
type PostgresMessageStore struct {
	*MessageRepository
	db TxBeginner
}

func NewPostgresMessageStore(db TxBeginner) *PostgresMessageStore {
	return &PostgresMessageStore{MessageRepository: NewMessageRepository(db), db: db}
}

func (s *PostgresMessageStore) ReadThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := NewMessageRepository(tx)

	if err := txMessageRepo.MarkThreadRead(ctx, userID, partnerID); err != nil {
		return nil, err
	}

	messages, err := txMessageRepo.ListThread(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return messages, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Content,
			&message.Read,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// NewPostgresStore wires the pgx-backed stores around a pool.
func NewPostgresStore(db TxBeginner) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Items:    NewListingRepository(db, models.ItemKind),
		Needs:    NewListingRepository(db, models.NeedKind),
		Messages: NewPostgresMessageStore(db),
	}
}
