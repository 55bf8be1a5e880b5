package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/listing-service/internal/domain"
)

// MessageRepository manages buyer inquiries.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByHome(ctx context.Context, homeID int64) ([]domain.MessageWithBuyer, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (message, home_id, realtor_id, buyer_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		msg.Message,
		msg.HomeID,
		msg.RealtorID,
		msg.BuyerID,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByHome(ctx context.Context, homeID int64) ([]domain.MessageWithBuyer, error) {
	const query = `
        SELECT m.message, u.name, u.phone, u.email
        FROM messages m JOIN users u ON u.id = m.buyer_id
        WHERE m.home_id=$1 ORDER BY m.created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MessageWithBuyer
	for rows.Next() {
		var msg domain.MessageWithBuyer
		if err := rows.Scan(
			&msg.Message,
			&msg.Buyer.Name,
			&msg.Buyer.Phone,
			&msg.Buyer.Email,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
