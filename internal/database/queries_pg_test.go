package database

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a real Postgres since they pin down behavior that lives
// in the SQL itself. Set TEST_DATABASE_DSN to run them.
func newTestRepository(t *testing.T) *PgRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	repo, err := NewPgRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.Migrate())

	_, err = repo.conn.Exec(
		"TRUNCATE users, employees, comics, payrolls, jobs, job_supplemental_files, " +
			"chat_rooms, chat_messages, chat_read_status, fcm_devices RESTART IDENTITY CASCADE",
	)
	require.NoError(t, err)

	return repo
}

func seedGeneralRoom(t *testing.T, repo *PgRepository) (User, Employee, ChatRoom) {
	t.Helper()

	employer, err := repo.CreateUser(CreateUserParams{
		Email:        "boss@studio.test",
		PasswordHash: "hash",
		Role:         "employer",
	})
	require.NoError(t, err)

	employee, err := repo.CreateEmployeeAccount(CreateEmployeeParams{
		Name:         "Mina",
		Email:        "mina@studio.test",
		PasswordHash: "hash",
		EmployerId:   employer.Id,
	})
	require.NoError(t, err)

	room, err := repo.FindOrCreateGeneralRoom(employer.Id, employee.Id)
	require.NoError(t, err)

	return employer, employee, room
}

func TestPg_MarkReadNeverRewinds(t *testing.T) {
	repo := newTestRepository(t)
	employer, _, room := seedGeneralRoom(t, repo)

	var last ChatMessage
	for i := 0; i < 5; i++ {
		var err error
		last, err = repo.CreateMessage(CreateMessageParams{
			RoomId:   room.Id,
			SenderId: employer.Id,
			Type:     MessageTypeText,
			Content:  fmt.Sprintf("message %d", i),
			SentAt:   time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	require.NoError(t, repo.MarkRead(room.Id, employer.Id, last.Id))

	watermark, err := repo.GetWatermark(room.Id, employer.Id)
	require.NoError(t, err)
	assert.Equal(t, last.Id, watermark)

	// A stale client reporting an older message must not move it back.
	require.NoError(t, repo.MarkRead(room.Id, employer.Id, last.Id-2))

	watermark, err = repo.GetWatermark(room.Id, employer.Id)
	require.NoError(t, err)
	assert.Equal(t, last.Id, watermark)
}

func TestPg_FindOrCreateGeneralRoomIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	employer, employee, room := seedGeneralRoom(t, repo)

	again, err := repo.FindOrCreateGeneralRoom(employer.Id, employee.Id)
	require.NoError(t, err)
	assert.Equal(t, room.Id, again.Id)

	var count int
	err = repo.conn.QueryRow(
		"SELECT COUNT(*) FROM chat_rooms WHERE employer_id = $1 AND employee_id = $2 AND job_id IS NULL",
		employer.Id, employee.Id,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPg_FindOrCreateGeneralRoomConcurrent(t *testing.T) {
	repo := newTestRepository(t)

	employer, err := repo.CreateUser(CreateUserParams{
		Email:        "boss@studio.test",
		PasswordHash: "hash",
		Role:         "employer",
	})
	require.NoError(t, err)

	employee, err := repo.CreateEmployeeAccount(CreateEmployeeParams{
		Name:         "Mina",
		Email:        "mina@studio.test",
		PasswordHash: "hash",
		EmployerId:   employer.Id,
	})
	require.NoError(t, err)

	const workers = 8
	rooms := make([]ChatRoom, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i], errs[i] = repo.FindOrCreateGeneralRoom(employer.Id, employee.Id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, rooms[0].Id, rooms[i].Id)
	}

	var count int
	err = repo.conn.QueryRow(
		"SELECT COUNT(*) FROM chat_rooms WHERE employer_id = $1 AND employee_id = $2 AND job_id IS NULL",
		employer.Id, employee.Id,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
