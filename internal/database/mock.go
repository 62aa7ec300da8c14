package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) ListEmployers() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) CreateEmployeeAccount(params CreateEmployeeParams) (Employee, error) {
	args := m.Called(params)
	return args.Get(0).(Employee), args.Error(1)
}
func (m *MockRepository) GetEmployeeById(id int) (Employee, error) {
	args := m.Called(id)
	return args.Get(0).(Employee), args.Error(1)
}
func (m *MockRepository) GetEmployeeByUserId(userId int) (Employee, error) {
	args := m.Called(userId)
	return args.Get(0).(Employee), args.Error(1)
}
func (m *MockRepository) ListEmployees(employerId int) ([]Employee, error) {
	args := m.Called(employerId)
	return args.Get(0).([]Employee), args.Error(1)
}
func (m *MockRepository) UpdateEmployeeTelegramChatId(employeeId int, chatId string) error {
	args := m.Called(employeeId, chatId)
	return args.Error(0)
}
func (m *MockRepository) CreateComic(params CreateComicParams) (Comic, error) {
	args := m.Called(params)
	return args.Get(0).(Comic), args.Error(1)
}
func (m *MockRepository) GetComicById(id int) (Comic, error) {
	args := m.Called(id)
	return args.Get(0).(Comic), args.Error(1)
}
func (m *MockRepository) ListComics(employerId int) ([]Comic, error) {
	args := m.Called(employerId)
	return args.Get(0).([]Comic), args.Error(1)
}
func (m *MockRepository) BumpComicEpisode(comicId, episode int) error {
	args := m.Called(comicId, episode)
	return args.Error(0)
}
func (m *MockRepository) ListComicsUpdatingOn(employerId int, weekday string) ([]Comic, error) {
	args := m.Called(employerId, weekday)
	return args.Get(0).([]Comic), args.Error(1)
}
func (m *MockRepository) CreateJob(params CreateJobParams) (Job, error) {
	args := m.Called(params)
	return args.Get(0).(Job), args.Error(1)
}
func (m *MockRepository) GetJobById(id int) (Job, error) {
	args := m.Called(id)
	return args.Get(0).(Job), args.Error(1)
}
func (m *MockRepository) ListJobsForEmployer(employerId int) ([]Job, error) {
	args := m.Called(employerId)
	return args.Get(0).([]Job), args.Error(1)
}
func (m *MockRepository) ListJobsForEmployee(employeeId int) ([]Job, error) {
	args := m.Called(employeeId)
	return args.Get(0).([]Job), args.Error(1)
}
func (m *MockRepository) CompleteJob(jobId int, finishedFile string, completedAt time.Time, tag string) error {
	args := m.Called(jobId, finishedFile, completedAt, tag)
	return args.Error(0)
}
func (m *MockRepository) RevertJobForRevision(jobId int, tag string) error {
	args := m.Called(jobId, tag)
	return args.Error(0)
}
func (m *MockRepository) ArchiveJob(jobId int) error {
	args := m.Called(jobId)
	return args.Error(0)
}
func (m *MockRepository) SetJobActivityTag(jobId int, tag string) error {
	args := m.Called(jobId, tag)
	return args.Error(0)
}
func (m *MockRepository) AddSupplementalFile(jobId int, fileName, comment string, uploadedAt time.Time) (SupplementalFile, error) {
	args := m.Called(jobId, fileName, comment, uploadedAt)
	return args.Get(0).(SupplementalFile), args.Error(1)
}
func (m *MockRepository) ListSupplementalFiles(jobId int) ([]SupplementalFile, error) {
	args := m.Called(jobId)
	return args.Get(0).([]SupplementalFile), args.Error(1)
}
func (m *MockRepository) DeleteSupplementalFiles(jobId int) error {
	args := m.Called(jobId)
	return args.Error(0)
}
func (m *MockRepository) ListUnpaidJobs(employeeId int) ([]Job, error) {
	args := m.Called(employeeId)
	return args.Get(0).([]Job), args.Error(1)
}
func (m *MockRepository) CreatePayroll(employeeId int, amount float64, jobIds []int) (Payroll, error) {
	args := m.Called(employeeId, amount, jobIds)
	return args.Get(0).(Payroll), args.Error(1)
}
func (m *MockRepository) GetLatestPayroll(employeeId int) (Payroll, error) {
	args := m.Called(employeeId)
	return args.Get(0).(Payroll), args.Error(1)
}
func (m *MockRepository) FindOrCreateGeneralRoom(employerId, employeeId int) (ChatRoom, error) {
	args := m.Called(employerId, employeeId)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockRepository) GetRoomById(id int) (ChatRoom, error) {
	args := m.Called(id)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockRepository) DeleteRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockRepository) ListEmployerRooms(employerId int) ([]RoomListing, error) {
	args := m.Called(employerId)
	return args.Get(0).([]RoomListing), args.Error(1)
}
func (m *MockRepository) ListEmployeeRooms(employeeId int) ([]RoomListing, error) {
	args := m.Called(employeeId)
	return args.Get(0).([]RoomListing), args.Error(1)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (ChatMessage, error) {
	args := m.Called(params)
	return args.Get(0).(ChatMessage), args.Error(1)
}
func (m *MockRepository) GetMessageById(id int) (ChatMessage, error) {
	args := m.Called(id)
	return args.Get(0).(ChatMessage), args.Error(1)
}
func (m *MockRepository) DeleteMessage(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockRepository) ListMessages(roomId int) ([]ChatMessage, error) {
	args := m.Called(roomId)
	return args.Get(0).([]ChatMessage), args.Error(1)
}
func (m *MockRepository) ListRoomAttachmentKeys(roomId int) ([]string, error) {
	args := m.Called(roomId)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockRepository) MaxMessageId(roomId int) (int, error) {
	args := m.Called(roomId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) MarkRead(roomId, userId, messageId int) error {
	args := m.Called(roomId, userId, messageId)
	return args.Error(0)
}
func (m *MockRepository) GetWatermark(roomId, userId int) (int, error) {
	args := m.Called(roomId, userId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) CountMessagesFrom(roomId, senderId, afterId int) (int, error) {
	args := m.Called(roomId, senderId, afterId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) UpsertDevice(userId int, token string) error {
	args := m.Called(userId, token)
	return args.Error(0)
}
func (m *MockRepository) DeactivateDevice(userId int, token string) error {
	args := m.Called(userId, token)
	return args.Error(0)
}
func (m *MockRepository) ListActiveDeviceTokens(userId int) ([]string, error) {
	args := m.Called(userId)
	return args.Get(0).([]string), args.Error(1)
}
