package database

import "time"

type Repository interface {
	Ping() error

	// Accounts.
	CreateUser(params CreateUserParams) (User, error)
	GetUserById(id int) (User, error)
	GetUserByEmail(email string) (User, error)
	ListEmployers() ([]User, error)

	// Employees.
	CreateEmployeeAccount(params CreateEmployeeParams) (Employee, error)
	GetEmployeeById(id int) (Employee, error)
	GetEmployeeByUserId(userId int) (Employee, error)
	ListEmployees(employerId int) ([]Employee, error)
	UpdateEmployeeTelegramChatId(employeeId int, chatId string) error

	// Comics.
	CreateComic(params CreateComicParams) (Comic, error)
	GetComicById(id int) (Comic, error)
	ListComics(employerId int) ([]Comic, error)
	BumpComicEpisode(comicId, episode int) error
	ListComicsUpdatingOn(employerId int, weekday string) ([]Comic, error)

	// Jobs.
	CreateJob(params CreateJobParams) (Job, error)
	GetJobById(id int) (Job, error)
	ListJobsForEmployer(employerId int) ([]Job, error)
	ListJobsForEmployee(employeeId int) ([]Job, error)
	CompleteJob(jobId int, finishedFile string, completedAt time.Time, tag string) error
	RevertJobForRevision(jobId int, tag string) error
	ArchiveJob(jobId int) error
	SetJobActivityTag(jobId int, tag string) error
	AddSupplementalFile(jobId int, fileName, comment string, uploadedAt time.Time) (SupplementalFile, error)
	ListSupplementalFiles(jobId int) ([]SupplementalFile, error)
	DeleteSupplementalFiles(jobId int) error

	// Payroll.
	ListUnpaidJobs(employeeId int) ([]Job, error)
	CreatePayroll(employeeId int, amount float64, jobIds []int) (Payroll, error)
	GetLatestPayroll(employeeId int) (Payroll, error)

	// Chat rooms and messages.
	FindOrCreateGeneralRoom(employerId, employeeId int) (ChatRoom, error)
	GetRoomById(id int) (ChatRoom, error)
	DeleteRoom(roomId int) error
	ListEmployerRooms(employerId int) ([]RoomListing, error)
	ListEmployeeRooms(employeeId int) ([]RoomListing, error)
	CreateMessage(params CreateMessageParams) (ChatMessage, error)
	GetMessageById(id int) (ChatMessage, error)
	DeleteMessage(id int) error
	ListMessages(roomId int) ([]ChatMessage, error)
	ListRoomAttachmentKeys(roomId int) ([]string, error)
	MaxMessageId(roomId int) (int, error)

	// Read watermarks.
	MarkRead(roomId, userId, messageId int) error
	GetWatermark(roomId, userId int) (int, error)
	CountMessagesFrom(roomId, senderId, afterId int) (int, error)

	// Device registrations.
	UpsertDevice(userId int, token string) error
	DeactivateDevice(userId int, token string) error
	ListActiveDeviceTokens(userId int) ([]string, error)
}
