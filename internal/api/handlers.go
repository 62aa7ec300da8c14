package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/jobs"
	"github.com/pongsakornd/comic-secretary/internal/stats"
	"github.com/pongsakornd/comic-secretary/internal/types"
	"github.com/teris-io/shortid"
)

const maxUploadSize = 64 << 20

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateComicRequest struct {
	Title            string `json:"title"`
	Synopsis         string `json:"synopsis"`
	OriginalLatestEp int    `json:"original_latest_ep"`
	UpdateWeekday    string `json:"update_weekday"`
}

type TelegramChatRequest struct {
	ChatId string `json:"chat_id"`
}

type GeneralRoomRequest struct {
	EmployeeId int `json:"employee_id"`
}

type PostMessageRequest struct {
	Type    string `json:"message_type"`
	Content string `json:"content"`
}

type AttachContextRequest struct {
	JobId int `json:"job_id"`
}

type MarkReadRequest struct {
	MessageId int `json:"message_id"`
}

type DeviceRequest struct {
	Token string `json:"token"`
}

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *App) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.Err != nil {
		s.log.Printf("api: %v", errResp)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func pathId(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

func toApiUser(u database.User) types.User {
	user := types.User{
		Id:        u.Id,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.TelegramReportChatId.Valid {
		user.TelegramReportChatId = u.TelegramReportChatId.String
	}
	return user
}

func toApiEmployee(e database.Employee) types.Employee {
	employee := types.Employee{
		Id:         e.Id,
		Name:       e.Name,
		UserId:     e.UserId,
		EmployerId: e.EmployerId,
	}
	if e.TelegramChatId.Valid {
		employee.TelegramChatId = e.TelegramChatId.String
	}
	return employee
}

func toApiComic(c database.Comic) types.Comic {
	comic := types.Comic{
		Id:               c.Id,
		Title:            c.Title,
		LastUpdatedEp:    c.LastUpdatedEp,
		OriginalLatestEp: c.OriginalLatestEp,
		Status:           c.Status,
	}
	if c.Synopsis.Valid {
		comic.Synopsis = c.Synopsis.String
	}
	if c.ImageFile.Valid {
		comic.ImageFile = c.ImageFile.String
	}
	if c.UpdateWeekday.Valid {
		comic.UpdateWeekday = c.UpdateWeekday.String
	}
	return comic
}

func toApiJob(j database.Job) types.Job {
	job := types.Job{
		Id:            j.Id,
		ComicId:       j.ComicId,
		EmployeeId:    j.EmployeeId,
		EpisodeNumber: j.EpisodeNumber,
		TaskType:      j.TaskType,
		Rate:          j.Rate,
		Status:        j.Status,
		AssignedAt:    j.AssignedAt,
		IsRevision:    j.IsRevision,
		EmployeeName:  j.EmployeeName,
		ComicTitle:    j.ComicTitle,
	}
	if j.CompletedAt.Valid {
		at := j.CompletedAt.Time
		job.CompletedAt = &at
	}
	if j.EmployerWorkFile.Valid {
		job.EmployerWorkFile = j.EmployerWorkFile.String
	}
	if j.EmployeeFinishedFile.Valid {
		job.EmployeeFinishedFile = j.EmployeeFinishedFile.String
	}
	if j.SupplementalFile.Valid {
		job.SupplementalFile = j.SupplementalFile.String
	}
	if j.SupplementalComment.Valid {
		job.SupplementalComment = j.SupplementalComment.String
	}
	if j.PayrollId.Valid {
		job.PayrollId = int(j.PayrollId.Int64)
	}
	return job
}

func toApiJobs(dbJobs []database.Job) []types.Job {
	out := make([]types.Job, 0, len(dbJobs))
	for _, j := range dbJobs {
		out = append(out, toApiJob(j))
	}
	return out
}

func toApiMessage(m database.ChatMessage) types.ChatMessage {
	return types.ChatMessage{
		Id:          m.Id,
		RoomId:      m.RoomId,
		SenderId:    m.SenderId,
		Type:        m.Type,
		Content:     m.Content,
		SentAt:      m.SentAt,
		SenderEmail: m.SenderEmail,
		SenderRole:  m.SenderRole,
	}
}

func (s *App) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *App) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	dbUser, err := s.db.GetUserByEmail(lr.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewUnauthorizedError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultExp)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, LoginResponse{Token: token, User: toApiUser(dbUser)})
}

func (s *App) session(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiUser(user))
}

func (s *App) createEmployee(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	employee, err := s.db.CreateEmployeeAccount(database.CreateEmployeeParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwdHash,
		EmployerId:   employerId,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toApiEmployee(employee))
}

func (s *App) listEmployees(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	employees, err := s.db.ListEmployees(employerId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	out := make([]types.Employee, 0, len(employees))
	for _, e := range employees {
		out = append(out, toApiEmployee(e))
	}
	s.writeJson(w, http.StatusOK, out)
}

func (s *App) setEmployeeTelegram(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	employeeId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	var req TelegramChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatId == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	employee, err := s.db.GetEmployeeById(employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	if employee.EmployerId != employerId {
		s.writeError(w, NewForbiddenError())
		return
	}

	if err := s.db.UpdateEmployeeTelegramChatId(employeeId, req.ChatId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) unpaidSummary(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	employeeId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	employee, err := s.db.GetEmployeeById(employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	if employee.EmployerId != employerId {
		s.writeError(w, NewForbiddenError())
		return
	}

	unpaid, total, err := s.jobSvc.UnpaidSummary(employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.UnpaidSummary{
		TotalOwed: total,
		Jobs:      toApiJobs(unpaid),
	})
}

func (s *App) processPayroll(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	employeeId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	payroll, err := s.jobSvc.ProcessPayroll(employerId, employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, types.Payroll{
		Id:          payroll.Id,
		EmployeeId:  payroll.EmployeeId,
		PaymentDate: payroll.PaymentDate,
		AmountPaid:  payroll.AmountPaid,
		JobIds:      parseJobIds(payroll.JobIds),
	})
}

func (s *App) latestPayroll(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	employeeId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	employee, err := s.db.GetEmployeeById(employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	if employee.EmployerId != employerId {
		s.writeError(w, NewForbiddenError())
		return
	}

	payroll, err := s.db.GetLatestPayroll(employeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.Payroll{
		Id:          payroll.Id,
		EmployeeId:  payroll.EmployeeId,
		PaymentDate: payroll.PaymentDate,
		AmountPaid:  payroll.AmountPaid,
		JobIds:      parseJobIds(payroll.JobIds),
	})
}

func parseJobIds(csv string) []int {
	if csv == "" {
		return nil
	}

	var ids []int
	for _, s := range strings.Split(csv, ",") {
		if id, err := strconv.Atoi(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *App) createComic(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	var req CreateComicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	comic, err := s.db.CreateComic(database.CreateComicParams{
		EmployerId:       employerId,
		Title:            req.Title,
		Synopsis:         req.Synopsis,
		OriginalLatestEp: req.OriginalLatestEp,
		UpdateWeekday:    req.UpdateWeekday,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toApiComic(comic))
}

func (s *App) listComics(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	comics, err := s.db.ListComics(employerId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	out := make([]types.Comic, 0, len(comics))
	for _, c := range comics {
		out = append(out, toApiComic(c))
	}
	s.writeJson(w, http.StatusOK, out)
}

// formUpload pulls one optional file out of a multipart form.
func formUpload(r *http.Request, field string) (*jobs.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	return &jobs.Upload{Name: header.Filename, Data: file}, func() { file.Close() }, nil
}

func (s *App) createJob(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	comicId, err1 := strconv.Atoi(r.FormValue("comic_id"))
	employeeId, err2 := strconv.Atoi(r.FormValue("employee_id"))
	episode, err3 := strconv.Atoi(r.FormValue("episode_number"))
	rate, err4 := strconv.ParseFloat(r.FormValue("rate"), 64)
	taskType := r.FormValue("task_type")
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || taskType == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	workFile, closeWork, err := formUpload(r, "work_file")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	defer closeWork()

	suppFile, closeSupp, err := formUpload(r, "supplemental_file")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	defer closeSupp()

	job, err := s.jobSvc.Create(r.Context(), employerId, jobs.CreateParams{
		ComicId:             comicId,
		EmployeeId:          employeeId,
		EpisodeNumber:       episode,
		TaskType:            taskType,
		Rate:                rate,
		WorkFile:            workFile,
		SupplementalFile:    suppFile,
		SupplementalComment: r.FormValue("supplemental_comment"),
	})
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.stats.Incr(stats.MetricJobsCreated)
	s.writeJson(w, http.StatusCreated, toApiJob(job))
}

func (s *App) listJobs(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	var dbJobs []database.Job
	if user.Role == types.RoleEmployer {
		dbJobs, err = s.db.ListJobsForEmployer(userId)
	} else {
		var employee database.Employee
		employee, err = s.db.GetEmployeeByUserId(userId)
		if err == nil {
			dbJobs, err = s.db.ListJobsForEmployee(employee.Id)
		}
	}
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiJobs(dbJobs))
}

func (s *App) getJob(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	job, err := s.db.GetJobById(jobId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	comic, err := s.db.GetComicById(job.ComicId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	employee, err := s.db.GetEmployeeById(job.EmployeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	if comic.EmployerId != userId && employee.UserId != userId {
		s.writeError(w, NewForbiddenError())
		return
	}

	s.writeJson(w, http.StatusOK, toApiJob(job))
}

func (s *App) completeJob(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	submission, closeFile, err := formUpload(r, "finished_file")
	if err != nil || submission == nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	defer closeFile()

	job, err := s.jobSvc.Complete(r.Context(), userId, jobId, submission)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiJob(job))
}

func (s *App) requestRevision(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	job, err := s.jobSvc.RequestRevision(r.Context(), employerId, jobId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiJob(job))
}

func (s *App) approveAndArchive(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	job, err := s.jobSvc.ApproveAndArchive(r.Context(), employerId, jobId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiJob(job))
}

func (s *App) addSupplementalFile(w http.ResponseWriter, r *http.Request) {
	employerId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	upload, closeFile, err := formUpload(r, "file")
	if err != nil || upload == nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	defer closeFile()

	file, err := s.jobSvc.AddSupplementalFile(r.Context(), employerId, jobId, upload, r.FormValue("comment"))
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	resp := types.SupplementalFile{
		Id:         file.Id,
		JobId:      file.JobId,
		FileName:   file.FileName,
		UploadedAt: file.UploadedAt,
	}
	if file.Comment.Valid {
		resp.Comment = file.Comment.String
	}
	s.writeJson(w, http.StatusCreated, resp)
}

func (s *App) listSupplementalFiles(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	jobId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	files, err := s.jobSvc.SupplementalFiles(userId, jobId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	out := make([]types.SupplementalFile, 0, len(files))
	for _, f := range files {
		sf := types.SupplementalFile{
			Id:         f.Id,
			JobId:      f.JobId,
			FileName:   f.FileName,
			UploadedAt: f.UploadedAt,
		}
		if f.Comment.Valid {
			sf.Comment = f.Comment.String
		}
		out = append(out, sf)
	}
	s.writeJson(w, http.StatusOK, out)
}

func (s *App) listRooms(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	var list types.RoomList
	if user.Role == types.RoleEmployer {
		list, err = s.chatSvc.RoomsForEmployer(userId)
	} else {
		list, err = s.chatSvc.RoomsForEmployee(userId)
	}
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, list)
}

func (s *App) generalRoom(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	var room database.ChatRoom
	if user.Role == types.RoleEmployer {
		var req GeneralRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmployeeId == 0 {
			s.writeError(w, NewBadRequestError())
			return
		}
		room, err = s.chatSvc.GeneralRoomForEmployer(userId, req.EmployeeId)
	} else {
		room, err = s.chatSvc.GeneralRoomForEmployee(userId)
	}
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"room_id": room.Id})
}

func (s *App) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.chatSvc.DeleteRoom(roomId, userId); err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) roomHistory(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	history, err := s.chatSvc.History(roomId, userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	out := make([]types.ChatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, toApiMessage(m))
	}
	s.writeJson(w, http.StatusOK, out)
}

func (s *App) postMessage(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		s.writeError(w, NewBadRequestError())
		return
	}
	if req.Type == "" {
		req.Type = database.MessageTypeText
	}

	msg, err := s.chatSvc.PostMessage(r.Context(), roomId, userId, req.Type, req.Content)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.stats.Incr(stats.MetricMessagesPosted)
	s.writeJson(w, http.StatusCreated, toApiMessage(msg))
}

func (s *App) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	messageId, err := pathId(r, "messageId")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.chatSvc.DeleteMessage(roomId, messageId, userId); err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) attachJobContext(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	var req AttachContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobId == 0 {
		s.writeError(w, NewBadRequestError())
		return
	}

	msg, err := s.chatSvc.AttachJobContext(r.Context(), roomId, req.JobId, userId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toApiMessage(msg))
}

func (s *App) markRead(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.chatSvc.MarkRead(roomId, userId, req.MessageId); err != nil {
		s.writeError(w, serviceError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}
	defer file.Close()

	sid, err := shortid.Generate()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	key := fmt.Sprintf("chat_files/%s_%s", sid, path.Base(header.Filename))
	if err := s.blobs.Put(key, file); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *App) downloadFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	rc, err := s.blobs.Get(key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Printf("api: stream file %s: %v", key, err)
	}
}

func (s *App) registerDevice(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	var req DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.db.UpsertDevice(userId, req.Token); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) unregisterDevice(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	var req DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.db.DeactivateDevice(userId, req.Token); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
