package types

import (
	"time"
)

const (
	RoleEmployer = "employer"
	RoleEmployee = "employee"
)

type User struct {
	Id                   int       `json:"id"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"`
	TelegramReportChatId string    `json:"telegram_report_chat_id,omitempty"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

type Employee struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	UserId         int    `json:"user_id"`
	EmployerId     int    `json:"employer_id"`
	TelegramChatId string `json:"telegram_chat_id,omitempty"`
}

type Comic struct {
	Id               int    `json:"id"`
	Title            string `json:"title"`
	Synopsis         string `json:"synopsis,omitempty"`
	ImageFile        string `json:"image_file,omitempty"`
	LastUpdatedEp    int    `json:"last_updated_ep"`
	OriginalLatestEp int    `json:"original_latest_ep"`
	UpdateWeekday    string `json:"update_weekday,omitempty"`
	Status           string `json:"status"`
}

type Job struct {
	Id                   int        `json:"id"`
	ComicId              int        `json:"comic_id"`
	EmployeeId           int        `json:"employee_id"`
	EpisodeNumber        int        `json:"episode_number"`
	TaskType             string     `json:"task_type"`
	Rate                 float64    `json:"rate"`
	Status               string     `json:"status"`
	AssignedAt           time.Time  `json:"assigned_date"`
	CompletedAt          *time.Time `json:"completed_date,omitempty"`
	EmployerWorkFile     string     `json:"employer_work_file,omitempty"`
	EmployeeFinishedFile string     `json:"employee_finished_file,omitempty"`
	SupplementalFile     string     `json:"supplemental_file,omitempty"`
	SupplementalComment  string     `json:"supplemental_file_comment,omitempty"`
	IsRevision           bool       `json:"is_revision"`
	PayrollId            int        `json:"payroll_id,omitempty"`
	EmployeeName         string     `json:"employee_name,omitempty"`
	ComicTitle           string     `json:"comic_title,omitempty"`
}

type SupplementalFile struct {
	Id         int       `json:"id"`
	JobId      int       `json:"job_id"`
	FileName   string    `json:"file_name"`
	Comment    string    `json:"comment,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ChatMessage struct {
	Id          int       `json:"id"`
	RoomId      int       `json:"room_id"`
	SenderId    int       `json:"sender_id"`
	Type        string    `json:"message_type"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
	SenderEmail string    `json:"sender_email,omitempty"`
	SenderRole  string    `json:"sender_role,omitempty"`
}

// RoomSummary is one row of the employer's room-list view.
type RoomSummary struct {
	Id              int        `json:"id"`
	ParticipantName string     `json:"participant_name"`
	ParticipantRole string     `json:"participant_role"`
	JobId           int        `json:"job_id,omitempty"`
	JobContext      string     `json:"job_context,omitempty"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	UnreadCount     int        `json:"unread_count"`
}

type RoomList struct {
	TotalUnreadCount int           `json:"total_unread_count"`
	Rooms            []RoomSummary `json:"rooms"`
}

type Payroll struct {
	Id          int       `json:"id"`
	EmployeeId  int       `json:"employee_id"`
	PaymentDate time.Time `json:"payment_date"`
	AmountPaid  float64   `json:"amount_paid"`
	JobIds      []int     `json:"job_ids"`
}

type UnpaidSummary struct {
	TotalOwed float64 `json:"total_owed"`
	Jobs      []Job   `json:"jobs"`
}
