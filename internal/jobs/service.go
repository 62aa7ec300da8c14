// Package jobs runs the production workflow: assignment, submission,
// revision and archival of per-episode work.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/notify"
	"github.com/teris-io/shortid"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid job state for this operation")
)

type Service struct {
	repo     database.Repository
	blobs    blob.Store
	notifier notify.Notifier
	logger   *log.Logger
}

func NewService(repo database.Repository, blobs blob.Store, notifier notify.Notifier, logger *log.Logger) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		notifier: notifier,
		logger:   logger,
	}
}

// Upload is one incoming file.
type Upload struct {
	Name string
	Data io.Reader
}

type CreateParams struct {
	ComicId             int
	EmployeeId          int
	EpisodeNumber       int
	TaskType            string
	Rate                float64
	WorkFile            *Upload
	SupplementalFile    *Upload
	SupplementalComment string
}

func (s *Service) storeUpload(prefix string, episode int, up *Upload) (string, error) {
	sid, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate blob key: %w", err)
	}

	key := fmt.Sprintf("job_files/%s_%s_ep%d_%s", prefix, sid, episode, filepath.Base(up.Name))
	if err := s.blobs.Put(key, up.Data); err != nil {
		return "", fmt.Errorf("store %s file: %w", prefix, err)
	}

	return key, nil
}

// deleteBlob is best-effort. A missing object is not worth failing the
// workflow transition over.
func (s *Service) deleteBlob(key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(key); err != nil {
		s.logger.Printf("jobs: delete blob %s: %v", key, err)
	}
}

// Create assigns a new job. The comic and the employee must both belong to
// the acting employer.
func (s *Service) Create(ctx context.Context, employerId int, params CreateParams) (database.Job, error) {
	comic, err := s.repo.GetComicById(params.ComicId)
	if err != nil {
		return database.Job{}, fmt.Errorf("%w: comic %d", ErrNotFound, params.ComicId)
	}
	if comic.EmployerId != employerId {
		return database.Job{}, ErrNotAuthorized
	}

	employee, err := s.repo.GetEmployeeById(params.EmployeeId)
	if err != nil {
		return database.Job{}, fmt.Errorf("%w: employee %d", ErrNotFound, params.EmployeeId)
	}
	if employee.EmployerId != employerId {
		return database.Job{}, ErrNotAuthorized
	}

	var workKey, suppKey string
	if params.WorkFile != nil {
		if workKey, err = s.storeUpload("work", params.EpisodeNumber, params.WorkFile); err != nil {
			return database.Job{}, err
		}
	}
	if params.SupplementalFile != nil {
		if suppKey, err = s.storeUpload("supp", params.EpisodeNumber, params.SupplementalFile); err != nil {
			return database.Job{}, err
		}
	}

	job, err := s.repo.CreateJob(database.CreateJobParams{
		ComicId:             params.ComicId,
		EmployeeId:          params.EmployeeId,
		EpisodeNumber:       params.EpisodeNumber,
		TaskType:            params.TaskType,
		Rate:                params.Rate,
		EmployerWorkFile:    workKey,
		SupplementalFile:    suppKey,
		SupplementalComment: params.SupplementalComment,
		ActivityTag:         notify.KindNewJob,
	})
	if err != nil {
		return database.Job{}, fmt.Errorf("create job: %w", err)
	}

	s.notifier.Dispatch(ctx, notify.Event{
		Kind:      notify.KindNewJob,
		TargetId:  employee.UserId,
		Title:     "New Job Assigned",
		Body:      fmt.Sprintf("%s Ep %d (%s)", comic.Title, params.EpisodeNumber, params.TaskType),
		JobId:     job.Id,
		Direction: notify.EmployerToEmployee,
	})

	return job, nil
}

// Complete records the employee's submission. Only the assigned employee
// may complete, and only from ASSIGNED.
func (s *Service) Complete(ctx context.Context, actingUserId, jobId int, submission *Upload) (database.Job, error) {
	job, err := s.repo.GetJobById(jobId)
	if err != nil {
		return database.Job{}, ErrNotFound
	}

	employee, err := s.repo.GetEmployeeById(job.EmployeeId)
	if err != nil {
		return database.Job{}, fmt.Errorf("load employee: %w", err)
	}
	if employee.UserId != actingUserId {
		return database.Job{}, ErrNotAuthorized
	}

	if job.Status != database.JobStatusAssigned {
		return database.Job{}, ErrInvalidTransition
	}

	key, err := s.storeUpload("finished", job.EpisodeNumber, submission)
	if err != nil {
		return database.Job{}, err
	}

	if job.EmployeeFinishedFile.Valid {
		s.deleteBlob(job.EmployeeFinishedFile.String)
	}

	completedAt := time.Now().UTC()
	if err := s.repo.CompleteJob(jobId, key, completedAt, notify.KindJobComplete); err != nil {
		return database.Job{}, fmt.Errorf("complete job: %w", err)
	}

	comic, err := s.repo.GetComicById(job.ComicId)
	if err != nil {
		s.logger.Printf("jobs: resolve employer for job %d: %v", jobId, err)
	} else {
		s.notifier.Dispatch(ctx, notify.Event{
			Kind:      notify.KindJobComplete,
			TargetId:  comic.EmployerId,
			Title:     "Job Completed",
			Body:      fmt.Sprintf("%s finished %s Ep %d", employee.Name, comic.Title, job.EpisodeNumber),
			JobId:     jobId,
			Direction: notify.EmployeeToEmployer,
		})
	}

	return s.repo.GetJobById(jobId)
}

// RequestRevision sends a completed job back to the employee.
func (s *Service) RequestRevision(ctx context.Context, employerId, jobId int) (database.Job, error) {
	job, comic, err := s.ownedJob(employerId, jobId)
	if err != nil {
		return database.Job{}, err
	}

	if job.Status != database.JobStatusCompleted {
		return database.Job{}, ErrInvalidTransition
	}

	if job.EmployeeFinishedFile.Valid {
		s.deleteBlob(job.EmployeeFinishedFile.String)
	}

	if err := s.repo.RevertJobForRevision(jobId, notify.KindRevisionRequest); err != nil {
		return database.Job{}, fmt.Errorf("revert job: %w", err)
	}

	employee, err := s.repo.GetEmployeeById(job.EmployeeId)
	if err != nil {
		s.logger.Printf("jobs: resolve employee for job %d: %v", jobId, err)
	} else {
		s.notifier.Dispatch(ctx, notify.Event{
			Kind:      notify.KindRevisionRequest,
			TargetId:  employee.UserId,
			Title:     "Revision Requested",
			Body:      fmt.Sprintf("%s Ep %d needs another pass", comic.Title, job.EpisodeNumber),
			JobId:     jobId,
			Direction: notify.EmployerToEmployee,
		})
	}

	return s.repo.GetJobById(jobId)
}

// AddSupplementalFile attaches a reference file to a job that has not been
// archived yet.
func (s *Service) AddSupplementalFile(ctx context.Context, employerId, jobId int, up *Upload, comment string) (database.SupplementalFile, error) {
	job, comic, err := s.ownedJob(employerId, jobId)
	if err != nil {
		return database.SupplementalFile{}, err
	}

	if job.Status == database.JobStatusArchived {
		return database.SupplementalFile{}, ErrInvalidTransition
	}

	key, err := s.storeUpload("supp", job.EpisodeNumber, up)
	if err != nil {
		return database.SupplementalFile{}, err
	}

	file, err := s.repo.AddSupplementalFile(jobId, key, comment, time.Now().UTC())
	if err != nil {
		return database.SupplementalFile{}, fmt.Errorf("record supplemental file: %w", err)
	}

	if err := s.repo.SetJobActivityTag(jobId, notify.KindFileAdded); err != nil {
		s.logger.Printf("jobs: tag job %d: %v", jobId, err)
	}

	employee, err := s.repo.GetEmployeeById(job.EmployeeId)
	if err != nil {
		s.logger.Printf("jobs: resolve employee for job %d: %v", jobId, err)
	} else {
		s.notifier.Dispatch(ctx, notify.Event{
			Kind:      notify.KindFileAdded,
			TargetId:  employee.UserId,
			Title:     "Files Added",
			Body:      fmt.Sprintf("New reference for %s Ep %d", comic.Title, job.EpisodeNumber),
			JobId:     jobId,
			Direction: notify.EmployerToEmployee,
		})
	}

	return file, nil
}

// ApproveAndArchive accepts the submission and closes the job out. The
// comic's published episode counter only ever moves forward, and every
// blob the job referenced is released. No notification goes out.
func (s *Service) ApproveAndArchive(_ context.Context, employerId, jobId int) (database.Job, error) {
	job, _, err := s.ownedJob(employerId, jobId)
	if err != nil {
		return database.Job{}, err
	}

	if job.Status != database.JobStatusCompleted {
		return database.Job{}, ErrInvalidTransition
	}

	if err := s.repo.BumpComicEpisode(job.ComicId, job.EpisodeNumber); err != nil {
		return database.Job{}, fmt.Errorf("bump comic episode: %w", err)
	}

	for _, key := range []sql.NullString{job.EmployerWorkFile, job.EmployeeFinishedFile, job.SupplementalFile} {
		if key.Valid {
			s.deleteBlob(key.String)
		}
	}

	files, err := s.repo.ListSupplementalFiles(jobId)
	if err != nil {
		s.logger.Printf("jobs: list supplemental files for job %d: %v", jobId, err)
	}
	for _, f := range files {
		s.deleteBlob(f.FileName)
	}
	if err := s.repo.DeleteSupplementalFiles(jobId); err != nil {
		s.logger.Printf("jobs: delete supplemental records for job %d: %v", jobId, err)
	}

	if err := s.repo.ArchiveJob(jobId); err != nil {
		return database.Job{}, fmt.Errorf("archive job: %w", err)
	}

	return s.repo.GetJobById(jobId)
}

// ownedJob loads the job and checks that the acting employer owns the
// comic the job belongs to. Ownership rides on the comic, not the job row.
func (s *Service) ownedJob(employerId, jobId int) (database.Job, database.Comic, error) {
	job, err := s.repo.GetJobById(jobId)
	if err != nil {
		return database.Job{}, database.Comic{}, ErrNotFound
	}

	comic, err := s.repo.GetComicById(job.ComicId)
	if err != nil {
		return database.Job{}, database.Comic{}, fmt.Errorf("load comic: %w", err)
	}
	if comic.EmployerId != employerId {
		return database.Job{}, database.Comic{}, ErrNotAuthorized
	}

	return job, comic, nil
}

// UnpaidSummary lists finished-but-unpaid work and the total owed.
func (s *Service) UnpaidSummary(employeeId int) ([]database.Job, float64, error) {
	unpaid, err := s.repo.ListUnpaidJobs(employeeId)
	if err != nil {
		return nil, 0, fmt.Errorf("list unpaid jobs: %w", err)
	}

	var total float64
	for _, j := range unpaid {
		total += j.Rate
	}

	return unpaid, total, nil
}

// ProcessPayroll pays out every unpaid job for the employee.
func (s *Service) ProcessPayroll(employerId, employeeId int) (database.Payroll, error) {
	employee, err := s.repo.GetEmployeeById(employeeId)
	if err != nil {
		return database.Payroll{}, ErrNotFound
	}
	if employee.EmployerId != employerId {
		return database.Payroll{}, ErrNotAuthorized
	}

	unpaid, total, err := s.UnpaidSummary(employeeId)
	if err != nil {
		return database.Payroll{}, err
	}
	if len(unpaid) == 0 {
		return database.Payroll{}, ErrInvalidTransition
	}

	jobIds := make([]int, len(unpaid))
	for i, j := range unpaid {
		jobIds[i] = j.Id
	}

	payroll, err := s.repo.CreatePayroll(employeeId, total, jobIds)
	if err != nil {
		return database.Payroll{}, fmt.Errorf("create payroll: %w", err)
	}

	s.logger.Printf("jobs: paid employee %d %.2f for %d jobs", employeeId, total, len(jobIds))
	return payroll, nil
}

// SupplementalFiles lists a job's extra reference files for either party.
func (s *Service) SupplementalFiles(actingUserId, jobId int) ([]database.SupplementalFile, error) {
	job, err := s.repo.GetJobById(jobId)
	if err != nil {
		return nil, ErrNotFound
	}

	comic, err := s.repo.GetComicById(job.ComicId)
	if err != nil {
		return nil, fmt.Errorf("load comic: %w", err)
	}

	employee, err := s.repo.GetEmployeeById(job.EmployeeId)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}

	if comic.EmployerId != actingUserId && employee.UserId != actingUserId {
		return nil, ErrNotAuthorized
	}

	return s.repo.ListSupplementalFiles(jobId)
}
