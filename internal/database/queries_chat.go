package database

import (
	"time"

	"github.com/lib/pq"
)

// FindOrCreateGeneralRoom returns the job-less room for the pair, creating
// it if absent. A partial unique index backs the room, so concurrent
// creators race safely: the loser's insert is a no-op and the re-read wins.
func (db *PgRepository) FindOrCreateGeneralRoom(employerId, employeeId int) (ChatRoom, error) {
	room, err := db.getGeneralRoom(employerId, employeeId)
	if err == nil {
		return room, nil
	}

	_, err = db.conn.Exec(
		"INSERT INTO chat_rooms (employer_id, employee_id, created_at) "+
			"VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		employerId,
		employeeId,
		time.Now().UTC(),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); !ok || pqErr.Code != "23505" {
			return ChatRoom{}, err
		}
	}

	return db.getGeneralRoom(employerId, employeeId)
}

func (db *PgRepository) getGeneralRoom(employerId, employeeId int) (ChatRoom, error) {
	row := db.conn.QueryRow(
		"SELECT id, employer_id, employee_id, job_id, created_at FROM chat_rooms "+
			"WHERE employer_id = $1 AND employee_id = $2 AND job_id IS NULL LIMIT 1",
		employerId,
		employeeId,
	)

	var room ChatRoom
	err := row.Scan(
		&room.Id,
		&room.EmployerId,
		&room.EmployeeId,
		&room.JobId,
		&room.CreatedAt,
	)

	return room, err
}

func (db *PgRepository) GetRoomById(id int) (ChatRoom, error) {
	row := db.conn.QueryRow(
		"SELECT id, employer_id, employee_id, job_id, created_at FROM chat_rooms "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var room ChatRoom
	err := row.Scan(
		&room.Id,
		&room.EmployerId,
		&room.EmployeeId,
		&room.JobId,
		&room.CreatedAt,
	)

	return room, err
}

// DeleteRoom removes the room and everything hanging off it.
func (db *PgRepository) DeleteRoom(roomId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM chat_read_status WHERE room_id = $1", roomId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM chat_messages WHERE room_id = $1", roomId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM chat_rooms WHERE id = $1", roomId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgRepository) ListEmployerRooms(employerId int) ([]RoomListing, error) {
	query := `
		SELECT
				r.id AS room_id,
				r.employer_id,
				r.employee_id,
				e.user_id AS employee_user_id,
				e.name AS employee_name,
				r.job_id,
				j.episode_number,
				c.title AS comic_title,
				m.message_type,
				m.content,
				m.sent_at
		FROM chat_rooms r
		JOIN employees e ON e.id = r.employee_id
		LEFT JOIN jobs j ON j.id = r.job_id
		LEFT JOIN comics c ON c.id = j.comic_id
		LEFT JOIN LATERAL (
				SELECT message_type, content, sent_at
				FROM chat_messages
				WHERE room_id = r.id
				ORDER BY id DESC
				LIMIT 1
		) m ON TRUE
		WHERE r.employer_id = $1
		ORDER BY m.sent_at DESC NULLS LAST, r.id;
`

	rows, err := db.conn.Query(query, employerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []RoomListing
	for rows.Next() {
		var l RoomListing
		if err = rows.Scan(
			&l.RoomId,
			&l.EmployerId,
			&l.EmployeeId,
			&l.EmployeeUserId,
			&l.EmployeeName,
			&l.JobId,
			&l.JobEpisode,
			&l.ComicTitle,
			&l.LastMessageType,
			&l.LastMessage,
			&l.LastMessageAt,
		); err != nil {
			break
		}

		listings = append(listings, l)
	}
	return listings, err
}

func (db *PgRepository) ListEmployeeRooms(employeeId int) ([]RoomListing, error) {
	query := `
		SELECT
				r.id AS room_id,
				r.employer_id,
				r.employee_id,
				e.user_id AS employee_user_id,
				e.name AS employee_name,
				r.job_id,
				j.episode_number,
				c.title AS comic_title,
				m.message_type,
				m.content,
				m.sent_at
		FROM chat_rooms r
		JOIN employees e ON e.id = r.employee_id
		LEFT JOIN jobs j ON j.id = r.job_id
		LEFT JOIN comics c ON c.id = j.comic_id
		LEFT JOIN LATERAL (
				SELECT message_type, content, sent_at
				FROM chat_messages
				WHERE room_id = r.id
				ORDER BY id DESC
				LIMIT 1
		) m ON TRUE
		WHERE r.employee_id = $1
		ORDER BY m.sent_at DESC NULLS LAST, r.id;
`

	rows, err := db.conn.Query(query, employeeId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []RoomListing
	for rows.Next() {
		var l RoomListing
		if err = rows.Scan(
			&l.RoomId,
			&l.EmployerId,
			&l.EmployeeId,
			&l.EmployeeUserId,
			&l.EmployeeName,
			&l.JobId,
			&l.JobEpisode,
			&l.ComicTitle,
			&l.LastMessageType,
			&l.LastMessage,
			&l.LastMessageAt,
		); err != nil {
			break
		}

		listings = append(listings, l)
	}
	return listings, err
}

func (db *PgRepository) CreateMessage(params CreateMessageParams) (ChatMessage, error) {
	res := db.conn.QueryRow(
		"INSERT INTO chat_messages (room_id, sender_id, message_type, content, sent_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, room_id, sender_id, message_type, content, sent_at",
		params.RoomId,
		params.SenderId,
		params.Type,
		params.Content,
		params.SentAt,
	)

	var msg ChatMessage
	err := res.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Type,
		&msg.Content,
		&msg.SentAt,
	)

	return msg, err
}

func (db *PgRepository) GetMessageById(id int) (ChatMessage, error) {
	row := db.conn.QueryRow(
		"SELECT m.id, m.room_id, m.sender_id, m.message_type, m.content, m.sent_at, u.email, u.role "+
			"FROM chat_messages m JOIN users u ON u.id = m.sender_id WHERE m.id = $1 LIMIT 1",
		id,
	)

	var msg ChatMessage
	err := row.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Type,
		&msg.Content,
		&msg.SentAt,
		&msg.SenderEmail,
		&msg.SenderRole,
	)

	return msg, err
}

func (db *PgRepository) DeleteMessage(id int) error {
	_, err := db.conn.Exec(
		"DELETE FROM chat_messages WHERE id = $1",
		id,
	)

	return err
}

func (db *PgRepository) ListMessages(roomId int) ([]ChatMessage, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.room_id, m.sender_id, m.message_type, m.content, m.sent_at, u.email, u.role "+
			"FROM chat_messages m JOIN users u ON u.id = m.sender_id "+
			"WHERE m.room_id = $1 ORDER BY m.sent_at, m.id",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]ChatMessage, 0)
	for rows.Next() {
		var msg ChatMessage
		if err = rows.Scan(
			&msg.Id, &msg.RoomId, &msg.SenderId, &msg.Type, &msg.Content, &msg.SentAt,
			&msg.SenderEmail, &msg.SenderRole,
		); err != nil {
			break
		}

		messages = append(messages, msg)
	}
	return messages, err
}

func (db *PgRepository) ListRoomAttachmentKeys(roomId int) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT content FROM chat_messages WHERE room_id = $1 AND message_type IN ($2, $3)",
		roomId,
		MessageTypeImage,
		MessageTypeFile,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			break
		}

		keys = append(keys, key)
	}
	return keys, err
}

func (db *PgRepository) MaxMessageId(roomId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COALESCE(MAX(id), 0) FROM chat_messages WHERE room_id = $1",
		roomId,
	)

	var max int
	err := row.Scan(&max)

	return max, err
}

// MarkRead advances the watermark, never rewinds it.
func (db *PgRepository) MarkRead(roomId, userId, messageId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO chat_read_status (room_id, user_id, last_read_message_id) "+
			"VALUES ($1, $2, $3) "+
			"ON CONFLICT (room_id, user_id) "+
			"DO UPDATE SET last_read_message_id = GREATEST(chat_read_status.last_read_message_id, EXCLUDED.last_read_message_id)",
		roomId,
		userId,
		messageId,
	)

	return err
}

func (db *PgRepository) GetWatermark(roomId, userId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COALESCE(MAX(last_read_message_id), 0) FROM chat_read_status "+
			"WHERE room_id = $1 AND user_id = $2",
		roomId,
		userId,
	)

	var watermark int
	err := row.Scan(&watermark)

	return watermark, err
}

func (db *PgRepository) CountMessagesFrom(roomId, senderId, afterId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM chat_messages "+
			"WHERE room_id = $1 AND sender_id = $2 AND id > $3",
		roomId,
		senderId,
		afterId,
	)

	var count int
	err := row.Scan(&count)

	return count, err
}

func (db *PgRepository) UpsertDevice(userId int, token string) error {
	_, err := db.conn.Exec(
		"INSERT INTO fcm_devices (user_id, device_token, is_active, created_at, updated_at) "+
			"VALUES ($1, $2, TRUE, $3, $3) "+
			"ON CONFLICT (device_token) "+
			"DO UPDATE SET user_id = EXCLUDED.user_id, is_active = TRUE, updated_at = EXCLUDED.updated_at",
		userId,
		token,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) DeactivateDevice(userId int, token string) error {
	_, err := db.conn.Exec(
		"UPDATE fcm_devices SET is_active = FALSE, updated_at = $3 "+
			"WHERE user_id = $1 AND device_token = $2",
		userId,
		token,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) ListActiveDeviceTokens(userId int) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT device_token FROM fcm_devices WHERE user_id = $1 AND is_active = TRUE",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err = rows.Scan(&token); err != nil {
			break
		}

		tokens = append(tokens, token)
	}
	return tokens, err
}
