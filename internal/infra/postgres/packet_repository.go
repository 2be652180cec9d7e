package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"playtesting-bot/internal/domain"
)

// PacketRepository keeps the server's current packet and its tracked questions.
type PacketRepository struct {
	pool *pgxpool.Pool
}

func NewPacketRepository(pool *pgxpool.Pool) *PacketRepository {
	return &PacketRepository{pool: pool}
}

func (r *PacketRepository) CurrentPacket(ctx context.Context, serverID string) (string, error) {
	var packet string
	err := r.pool.QueryRow(ctx, `SELECT packet_name FROM server_setting WHERE server_id = $1`, serverID).Scan(&packet)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load current packet: %w", err)
	}
	return packet, nil
}

func (r *PacketRepository) SetCurrentPacket(ctx context.Context, serverID, packet string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO server_setting (server_id, packet_name) VALUES ($1, $2)
		ON CONFLICT (server_id) DO UPDATE SET packet_name = EXCLUDED.packet_name`,
		serverID, packet)
	if err != nil {
		return fmt.Errorf("set current packet: %w", err)
	}
	return nil
}

func (r *PacketRepository) AddPacketQuestion(ctx context.Context, q domain.PacketQuestion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO packet_question (server_id, packet_name, question_id, channel_id, echo_channel_id, echo_message_id,
			question_type, question_number, category, answers, question_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (server_id, packet_name, question_id) DO UPDATE SET
			echo_channel_id = EXCLUDED.echo_channel_id,
			echo_message_id = EXCLUDED.echo_message_id`,
		q.ServerID, q.PacketName, q.QuestionID, q.ChannelID, q.EchoChannelID, q.EchoMessageID,
		q.Kind.Code(), q.Number, q.Category, q.Answers, q.QuestionURL)
	if err != nil {
		return fmt.Errorf("insert packet question: %w", err)
	}
	return nil
}

func (r *PacketRepository) PacketQuestions(ctx context.Context, serverID, packet string) ([]domain.PacketQuestion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT question_id, channel_id, echo_channel_id, echo_message_id, question_type,
			question_number, category, answers, question_url
		FROM packet_question
		WHERE server_id = $1 AND packet_name = $2
		ORDER BY created_at`, serverID, packet)
	if err != nil {
		return nil, fmt.Errorf("query packet questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PacketQuestion, 0)
	for rows.Next() {
		q := domain.PacketQuestion{ServerID: serverID, PacketName: packet}
		var code string
		if err := rows.Scan(&q.QuestionID, &q.ChannelID, &q.EchoChannelID, &q.EchoMessageID, &code,
			&q.Number, &q.Category, &q.Answers, &q.QuestionURL); err != nil {
			return nil, fmt.Errorf("scan packet question: %w", err)
		}
		q.Kind = domain.KindFromCode(code)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *PacketRepository) Packets(ctx context.Context, serverID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT packet_name FROM packet_question
		WHERE server_id = $1
		GROUP BY packet_name
		ORDER BY MIN(created_at)`, serverID)
	if err != nil {
		return nil, fmt.Errorf("query packets: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan packet: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
