package database

import (
	"database/sql"
	"time"
)

const (
	JobStatusAssigned  = "ASSIGNED"
	JobStatusCompleted = "COMPLETED"
	JobStatusArchived  = "ARCHIVED"
)

const (
	MessageTypeText    = "text"
	MessageTypeImage   = "image"
	MessageTypeFile    = "file"
	MessageTypeContext = "context"
)

type User struct {
	Id                   int
	Email                string
	PasswordHash         string
	Role                 string
	TelegramReportChatId sql.NullString
	CreatedAt            time.Time
}

type Employee struct {
	Id             int
	Name           string
	UserId         int
	EmployerId     int
	TelegramChatId sql.NullString
	CreatedAt      time.Time
}

type Comic struct {
	Id               int
	EmployerId       int
	Title            string
	Synopsis         sql.NullString
	ImageFile        sql.NullString
	LastUpdatedEp    int
	OriginalLatestEp int
	UpdateWeekday    sql.NullString
	Status           string
	CreatedAt        time.Time
}

type Job struct {
	Id                   int
	ComicId              int
	EmployeeId           int
	EpisodeNumber        int
	TaskType             string
	Rate                 float64
	Status               string
	AssignedAt           time.Time
	CompletedAt          sql.NullTime
	EmployerWorkFile     sql.NullString
	EmployeeFinishedFile sql.NullString
	SupplementalFile     sql.NullString
	SupplementalComment  sql.NullString
	IsRevision           bool
	ActivityTag          sql.NullString
	PayrollId            sql.NullInt64

	// Populated by joined queries only.
	EmployeeName string
	ComicTitle   string
}

type SupplementalFile struct {
	Id         int
	JobId      int
	FileName   string
	Comment    sql.NullString
	UploadedAt time.Time
}

type ChatRoom struct {
	Id         int
	EmployerId int
	EmployeeId int
	JobId      sql.NullInt64
	CreatedAt  time.Time
}

type ChatMessage struct {
	Id       int
	RoomId   int
	SenderId int
	Type     string
	Content  string
	SentAt   time.Time

	// Populated by joined queries only.
	SenderEmail string
	SenderRole  string
}

// RoomListing is one employer room with its latest message, unread count excluded.
type RoomListing struct {
	RoomId          int
	EmployerId      int
	EmployeeId      int
	EmployeeUserId  int
	EmployeeName    string
	JobId           sql.NullInt64
	JobEpisode      sql.NullInt64
	ComicTitle      sql.NullString
	LastMessageType sql.NullString
	LastMessage     sql.NullString
	LastMessageAt   sql.NullTime
}

type Payroll struct {
	Id          int
	EmployeeId  int
	PaymentDate time.Time
	AmountPaid  float64
	JobIds      string
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
}

type CreateEmployeeParams struct {
	Name         string
	Email        string
	PasswordHash string
	EmployerId   int
}

type CreateComicParams struct {
	EmployerId       int
	Title            string
	Synopsis         string
	ImageFile        string
	OriginalLatestEp int
	UpdateWeekday    string
}

type CreateJobParams struct {
	ComicId             int
	EmployeeId          int
	EpisodeNumber       int
	TaskType            string
	Rate                float64
	EmployerWorkFile    string
	SupplementalFile    string
	SupplementalComment string
	ActivityTag         string
}

type CreateMessageParams struct {
	RoomId   int
	SenderId int
	Type     string
	Content  string
	SentAt   time.Time
}
