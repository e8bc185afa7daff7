package database

import (
	"context"
	"database/sql"
	"time"
)

const messageRepoTimeout = 2 * time.Second

// MessageRepository remembers where each guild's player status message
// lives, so it can be reclaimed after a restart instead of reposted.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Upsert(guildID, channelID, messageID string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" || channelID == "" || messageID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageRepoTimeout)
	defer cancel()

	const query = `
		INSERT INTO player_messages (guild_id, channel_id, message_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_id = EXCLUDED.message_id,
			updated_at = NOW();
	`

	_, err := r.db.ExecContext(ctx, query, guildID, channelID, messageID)
	return err
}

func (r *MessageRepository) Get(guildID string) (string, string, bool, error) {
	if r == nil || r.db == nil {
		return "", "", false, nil
	}
	if guildID == "" {
		return "", "", false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageRepoTimeout)
	defer cancel()

	const query = `
		SELECT channel_id, message_id
		FROM player_messages
		WHERE guild_id = $1
	`

	var channelID, messageID string
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(&channelID, &messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", false, nil
		}
		return "", "", false, err
	}

	return channelID, messageID, true, nil
}

func (r *MessageRepository) Delete(guildID string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageRepoTimeout)
	defer cancel()

	const query = `
		DELETE FROM player_messages
		WHERE guild_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, guildID)
	return err
}
