package jobs

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/notify"
	"github.com/pongsakornd/comic-secretary/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	employerId     = 1
	employeeUserId = 2
	employeeId     = 3
	comicId        = 4
	jobId          = 5
)

func testComic() database.Comic {
	return database.Comic{Id: comicId, EmployerId: employerId, Title: "Moonlight Garden", LastUpdatedEp: 3}
}

func testEmployee() database.Employee {
	return database.Employee{Id: employeeId, Name: "A", UserId: employeeUserId, EmployerId: employerId}
}

func newTestService(repo database.Repository, blobs blob.Store, notifier notify.Notifier, t *testing.T) *Service {
	return NewService(repo, blobs, notifier, testutil.TestLogger(t))
}

func TestService_Create(t *testing.T) {
	repo := &database.MockRepository{}
	blobs := &blob.MockStore{}
	notifier := &notify.MockNotifier{}
	svc := newTestService(repo, blobs, notifier, t)

	repo.On("GetComicById", comicId).Return(testComic(), nil)
	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)
	blobs.On("Put", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "job_files/work_") && strings.HasSuffix(key, "_ep5_pages.psd")
	}), mock.Anything).Return(nil)
	repo.On("CreateJob", mock.MatchedBy(func(p database.CreateJobParams) bool {
		return p.ComicId == comicId && p.EmployeeId == employeeId &&
			p.EpisodeNumber == 5 && p.ActivityTag == notify.KindNewJob
	})).Return(database.Job{Id: jobId, Status: database.JobStatusAssigned}, nil)
	notifier.On("Dispatch", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.Kind == notify.KindNewJob && e.TargetId == employeeUserId &&
			e.JobId == jobId && e.Direction == notify.EmployerToEmployee
	})).Return()

	job, err := svc.Create(context.Background(), employerId, CreateParams{
		ComicId:       comicId,
		EmployeeId:    employeeId,
		EpisodeNumber: 5,
		TaskType:      "coloring",
		Rate:          100,
		WorkFile:      &Upload{Name: "pages.psd", Data: strings.NewReader("psd")},
	})

	require.NoError(t, err)
	assert.Equal(t, database.JobStatusAssigned, job.Status)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestService_CreateForeignComic(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	comic := testComic()
	comic.EmployerId = 99
	repo.On("GetComicById", comicId).Return(comic, nil)

	_, err := svc.Create(context.Background(), employerId, CreateParams{ComicId: comicId, EmployeeId: employeeId})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestService_CreateForeignEmployee(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	employee := testEmployee()
	employee.EmployerId = 99
	repo.On("GetComicById", comicId).Return(testComic(), nil)
	repo.On("GetEmployeeById", employeeId).Return(employee, nil)

	_, err := svc.Create(context.Background(), employerId, CreateParams{ComicId: comicId, EmployeeId: employeeId})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestService_CompleteWrongUser(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetJobById", jobId).Return(database.Job{Id: jobId, EmployeeId: employeeId, Status: database.JobStatusAssigned}, nil)
	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)

	_, err := svc.Complete(context.Background(), 999, jobId, &Upload{Name: "done.png", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestService_CompleteFromCompletedRejected(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetJobById", jobId).Return(database.Job{Id: jobId, EmployeeId: employeeId, Status: database.JobStatusCompleted}, nil)
	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)

	_, err := svc.Complete(context.Background(), employeeUserId, jobId, &Upload{Name: "done.png", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_RequestRevisionFromAssignedRejected(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetJobById", jobId).Return(database.Job{Id: jobId, ComicId: comicId, Status: database.JobStatusAssigned}, nil)
	repo.On("GetComicById", comicId).Return(testComic(), nil)

	_, err := svc.RequestRevision(context.Background(), employerId, jobId)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_ArchiveFromAssignedRejected(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetJobById", jobId).Return(database.Job{Id: jobId, ComicId: comicId, Status: database.JobStatusAssigned}, nil)
	repo.On("GetComicById", comicId).Return(testComic(), nil)

	_, err := svc.ApproveAndArchive(context.Background(), employerId, jobId)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_ArchivedJobRejectsEverything(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	archived := database.Job{Id: jobId, ComicId: comicId, EmployeeId: employeeId, Status: database.JobStatusArchived}
	repo.On("GetJobById", jobId).Return(archived, nil)
	repo.On("GetComicById", comicId).Return(testComic(), nil)
	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)

	_, err := svc.Complete(context.Background(), employeeUserId, jobId, &Upload{Name: "x", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.RequestRevision(context.Background(), employerId, jobId)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.ApproveAndArchive(context.Background(), employerId, jobId)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.AddSupplementalFile(context.Background(), employerId, jobId, &Upload{Name: "x", Data: strings.NewReader("x")}, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_ApproveAndArchiveClearsFilesAndBumpsEpisode(t *testing.T) {
	repo := &database.MockRepository{}
	blobs := &blob.MockStore{}
	svc := newTestService(repo, blobs, &notify.MockNotifier{}, t)

	completed := database.Job{
		Id:                   jobId,
		ComicId:              comicId,
		EmployeeId:           employeeId,
		EpisodeNumber:        5,
		Status:               database.JobStatusCompleted,
		EmployerWorkFile:     sql.NullString{String: "job_files/work_a", Valid: true},
		EmployeeFinishedFile: sql.NullString{String: "job_files/finished_b", Valid: true},
		SupplementalFile:     sql.NullString{String: "job_files/supp_c", Valid: true},
	}
	archived := database.Job{Id: jobId, ComicId: comicId, EpisodeNumber: 5, Status: database.JobStatusArchived}

	repo.On("GetJobById", jobId).Return(completed, nil).Once()
	repo.On("GetComicById", comicId).Return(testComic(), nil)
	repo.On("BumpComicEpisode", comicId, 5).Return(nil)
	repo.On("ListSupplementalFiles", jobId).Return([]database.SupplementalFile{
		{Id: 1, JobId: jobId, FileName: "job_files/supp_d"},
	}, nil)
	repo.On("DeleteSupplementalFiles", jobId).Return(nil)
	repo.On("ArchiveJob", jobId).Return(nil)
	repo.On("GetJobById", jobId).Return(archived, nil)
	for _, key := range []string{"job_files/work_a", "job_files/finished_b", "job_files/supp_c", "job_files/supp_d"} {
		blobs.On("Delete", key).Return(nil).Once()
	}

	job, err := svc.ApproveAndArchive(context.Background(), employerId, jobId)

	require.NoError(t, err)
	assert.Equal(t, database.JobStatusArchived, job.Status)
	repo.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

// Full lifecycle: assign, complete, revise, complete again, archive.
func TestService_FullLifecycle(t *testing.T) {
	repo := &database.MockRepository{}
	blobs := &blob.MockStore{}
	notifier := &notify.MockNotifier{}
	svc := newTestService(repo, blobs, notifier, t)
	ctx := context.Background()

	blobs.On("Put", mock.Anything, mock.Anything).Return(nil)
	blobs.On("Delete", mock.Anything).Return(nil)
	notifier.On("Dispatch", mock.Anything, mock.Anything).Return()
	repo.On("GetComicById", comicId).Return(testComic(), nil)
	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)

	// Assign episode 5 at rate 100.
	repo.On("CreateJob", mock.Anything).Return(database.Job{
		Id: jobId, ComicId: comicId, EmployeeId: employeeId, EpisodeNumber: 5,
		Rate: 100, Status: database.JobStatusAssigned,
	}, nil)
	job, err := svc.Create(ctx, employerId, CreateParams{
		ComicId: comicId, EmployeeId: employeeId, EpisodeNumber: 5, TaskType: "coloring", Rate: 100,
		WorkFile: &Upload{Name: "work.psd", Data: strings.NewReader("w")},
	})
	require.NoError(t, err)
	require.Equal(t, database.JobStatusAssigned, job.Status)

	// First submission.
	assigned := database.Job{Id: jobId, ComicId: comicId, EmployeeId: employeeId, EpisodeNumber: 5, Status: database.JobStatusAssigned}
	completed := assigned
	completed.Status = database.JobStatusCompleted
	completed.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	completed.EmployeeFinishedFile = sql.NullString{String: "job_files/finished_x", Valid: true}

	repo.On("GetJobById", jobId).Return(assigned, nil).Once()
	repo.On("CompleteJob", jobId, mock.Anything, mock.Anything, notify.KindJobComplete).Return(nil).Once()
	repo.On("GetJobById", jobId).Return(completed, nil).Once()
	job, err = svc.Complete(ctx, employeeUserId, jobId, &Upload{Name: "done.png", Data: strings.NewReader("d")})
	require.NoError(t, err)
	require.Equal(t, database.JobStatusCompleted, job.Status)
	require.True(t, job.CompletedAt.Valid)
	require.True(t, job.EmployeeFinishedFile.Valid)

	// Revision clears the submission and reopens the job.
	revised := assigned
	revised.IsRevision = true
	repo.On("GetJobById", jobId).Return(completed, nil).Once()
	repo.On("RevertJobForRevision", jobId, notify.KindRevisionRequest).Return(nil).Once()
	repo.On("GetJobById", jobId).Return(revised, nil).Once()
	job, err = svc.RequestRevision(ctx, employerId, jobId)
	require.NoError(t, err)
	require.Equal(t, database.JobStatusAssigned, job.Status)
	require.True(t, job.IsRevision)
	require.False(t, job.EmployeeFinishedFile.Valid)

	// Second submission.
	repo.On("GetJobById", jobId).Return(revised, nil).Once()
	repo.On("CompleteJob", jobId, mock.Anything, mock.Anything, notify.KindJobComplete).Return(nil).Once()
	repo.On("GetJobById", jobId).Return(completed, nil).Once()
	job, err = svc.Complete(ctx, employeeUserId, jobId, &Upload{Name: "done-v2.png", Data: strings.NewReader("d2")})
	require.NoError(t, err)
	require.Equal(t, database.JobStatusCompleted, job.Status)

	// Archive bumps the comic to episode 5 and nulls the file fields.
	archived := database.Job{Id: jobId, ComicId: comicId, EpisodeNumber: 5, Status: database.JobStatusArchived}
	repo.On("GetJobById", jobId).Return(completed, nil).Once()
	repo.On("BumpComicEpisode", comicId, 5).Return(nil).Once()
	repo.On("ListSupplementalFiles", jobId).Return([]database.SupplementalFile{}, nil)
	repo.On("DeleteSupplementalFiles", jobId).Return(nil)
	repo.On("ArchiveJob", jobId).Return(nil).Once()
	repo.On("GetJobById", jobId).Return(archived, nil).Once()
	job, err = svc.ApproveAndArchive(ctx, employerId, jobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobStatusArchived, job.Status)
	assert.False(t, job.EmployerWorkFile.Valid)
	assert.False(t, job.EmployeeFinishedFile.Valid)
	assert.False(t, job.SupplementalFile.Valid)
}

func TestService_UnpaidSummary(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("ListUnpaidJobs", employeeId).Return([]database.Job{
		{Id: 1, Rate: 100},
		{Id: 2, Rate: 250.5},
	}, nil)

	unpaid, total, err := svc.UnpaidSummary(employeeId)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)
	assert.Equal(t, 350.5, total)
}

func TestService_ProcessPayroll(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)
	repo.On("ListUnpaidJobs", employeeId).Return([]database.Job{
		{Id: 7, Rate: 100},
		{Id: 8, Rate: 200},
	}, nil)
	repo.On("CreatePayroll", employeeId, 300.0, []int{7, 8}).Return(database.Payroll{
		Id: 1, EmployeeId: employeeId, AmountPaid: 300, JobIds: "7,8",
	}, nil)

	payroll, err := svc.ProcessPayroll(employerId, employeeId)
	require.NoError(t, err)
	assert.Equal(t, 300.0, payroll.AmountPaid)
	repo.AssertExpectations(t)
}

func TestService_ProcessPayrollNothingOwed(t *testing.T) {
	repo := &database.MockRepository{}
	svc := newTestService(repo, &blob.MockStore{}, &notify.MockNotifier{}, t)

	repo.On("GetEmployeeById", employeeId).Return(testEmployee(), nil)
	repo.On("ListUnpaidJobs", employeeId).Return([]database.Job{}, nil)

	_, err := svc.ProcessPayroll(employerId, employeeId)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
