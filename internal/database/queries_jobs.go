package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const jobColumns = "j.id, j.comic_id, j.employee_id, j.episode_number, j.task_type, j.rate, " +
	"j.status, j.assigned_date, j.completed_date, j.employer_work_file, j.employee_finished_file, " +
	"j.supplemental_file, j.supplemental_file_comment, j.is_revision, j.last_activity_tag, j.payroll_id, " +
	"e.name, c.title"

const jobJoins = "FROM jobs j " +
	"JOIN employees e ON e.id = j.employee_id " +
	"JOIN comics c ON c.id = j.comic_id"

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var j Job
	err := row.Scan(
		&j.Id,
		&j.ComicId,
		&j.EmployeeId,
		&j.EpisodeNumber,
		&j.TaskType,
		&j.Rate,
		&j.Status,
		&j.AssignedAt,
		&j.CompletedAt,
		&j.EmployerWorkFile,
		&j.EmployeeFinishedFile,
		&j.SupplementalFile,
		&j.SupplementalComment,
		&j.IsRevision,
		&j.ActivityTag,
		&j.PayrollId,
		&j.EmployeeName,
		&j.ComicTitle,
	)

	return j, err
}

func (db *PgRepository) CreateJob(params CreateJobParams) (Job, error) {
	var id int
	err := db.conn.QueryRow(
		"INSERT INTO jobs (comic_id, employee_id, episode_number, task_type, rate, status, assigned_date, "+
			"employer_work_file, supplemental_file, supplemental_file_comment, last_activity_tag) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11) "+
			"RETURNING id",
		params.ComicId,
		params.EmployeeId,
		params.EpisodeNumber,
		params.TaskType,
		params.Rate,
		JobStatusAssigned,
		time.Now().UTC(),
		params.EmployerWorkFile,
		params.SupplementalFile,
		params.SupplementalComment,
		params.ActivityTag,
	).Scan(&id)
	if err != nil {
		return Job{}, err
	}

	return db.GetJobById(id)
}

func (db *PgRepository) GetJobById(id int) (Job, error) {
	row := db.conn.QueryRow(
		"SELECT "+jobColumns+" "+jobJoins+" WHERE j.id = $1 LIMIT 1",
		id,
	)

	return scanJob(row)
}

func (db *PgRepository) ListJobsForEmployer(employerId int) ([]Job, error) {
	rows, err := db.conn.Query(
		"SELECT "+jobColumns+" "+jobJoins+" WHERE c.employer_id = $1 ORDER BY j.assigned_date DESC, j.id DESC",
		employerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if j, err = scanJob(rows); err != nil {
			break
		}

		jobs = append(jobs, j)
	}
	return jobs, err
}

func (db *PgRepository) ListJobsForEmployee(employeeId int) ([]Job, error) {
	rows, err := db.conn.Query(
		"SELECT "+jobColumns+" "+jobJoins+" WHERE j.employee_id = $1 ORDER BY j.assigned_date DESC, j.id DESC",
		employeeId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if j, err = scanJob(rows); err != nil {
			break
		}

		jobs = append(jobs, j)
	}
	return jobs, err
}

func (db *PgRepository) CompleteJob(jobId int, finishedFile string, completedAt time.Time, tag string) error {
	_, err := db.conn.Exec(
		"UPDATE jobs SET status = $2, employee_finished_file = $3, completed_date = $4, last_activity_tag = $5 "+
			"WHERE id = $1",
		jobId,
		JobStatusCompleted,
		finishedFile,
		completedAt,
		tag,
	)

	return err
}

// RevertJobForRevision sends a completed job back to the employee. The
// finished file and completion date are cleared so the job looks freshly
// assigned, apart from the revision marker.
func (db *PgRepository) RevertJobForRevision(jobId int, tag string) error {
	_, err := db.conn.Exec(
		"UPDATE jobs SET status = $2, is_revision = TRUE, employee_finished_file = NULL, "+
			"completed_date = NULL, last_activity_tag = $3 WHERE id = $1",
		jobId,
		JobStatusAssigned,
		tag,
	)

	return err
}

// ArchiveJob marks the job archived and clears its file references, which
// point at blobs the caller has already removed.
func (db *PgRepository) ArchiveJob(jobId int) error {
	_, err := db.conn.Exec(
		"UPDATE jobs SET status = $2, employer_work_file = NULL, employee_finished_file = NULL, "+
			"supplemental_file = NULL, supplemental_file_comment = NULL WHERE id = $1",
		jobId,
		JobStatusArchived,
	)

	return err
}

func (db *PgRepository) SetJobActivityTag(jobId int, tag string) error {
	_, err := db.conn.Exec(
		"UPDATE jobs SET last_activity_tag = $2 WHERE id = $1",
		jobId,
		tag,
	)

	return err
}

func (db *PgRepository) AddSupplementalFile(jobId int, fileName, comment string, uploadedAt time.Time) (SupplementalFile, error) {
	res := db.conn.QueryRow(
		"INSERT INTO job_supplemental_files (job_id, file_name, comment, uploaded_at) "+
			"VALUES ($1, $2, NULLIF($3, ''), $4) RETURNING id, job_id, file_name, comment, uploaded_at",
		jobId,
		fileName,
		comment,
		uploadedAt,
	)

	var f SupplementalFile
	err := res.Scan(
		&f.Id,
		&f.JobId,
		&f.FileName,
		&f.Comment,
		&f.UploadedAt,
	)

	return f, err
}

func (db *PgRepository) ListSupplementalFiles(jobId int) ([]SupplementalFile, error) {
	rows, err := db.conn.Query(
		"SELECT id, job_id, file_name, comment, uploaded_at FROM job_supplemental_files "+
			"WHERE job_id = $1 ORDER BY uploaded_at, id",
		jobId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []SupplementalFile
	for rows.Next() {
		var f SupplementalFile
		if err = rows.Scan(&f.Id, &f.JobId, &f.FileName, &f.Comment, &f.UploadedAt); err != nil {
			break
		}

		files = append(files, f)
	}
	return files, err
}

func (db *PgRepository) DeleteSupplementalFiles(jobId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM job_supplemental_files WHERE job_id = $1",
		jobId,
	)

	return err
}

func (db *PgRepository) ListUnpaidJobs(employeeId int) ([]Job, error) {
	rows, err := db.conn.Query(
		"SELECT "+jobColumns+" "+jobJoins+
			" WHERE j.employee_id = $1 AND j.status IN ($2, $3) AND j.payroll_id IS NULL "+
			"ORDER BY j.completed_date, j.id",
		employeeId,
		JobStatusCompleted,
		JobStatusArchived,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if j, err = scanJob(rows); err != nil {
			break
		}

		jobs = append(jobs, j)
	}
	return jobs, err
}

// CreatePayroll records the payment and stamps the covered jobs with the
// payroll id in one transaction.
func (db *PgRepository) CreatePayroll(employeeId int, amount float64, jobIds []int) (Payroll, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Payroll{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	ids := make([]int64, len(jobIds))
	idStrs := make([]string, len(jobIds))
	for i, id := range jobIds {
		ids[i] = int64(id)
		idStrs[i] = strconv.Itoa(id)
	}

	res := tx.QueryRow(
		"INSERT INTO payrolls (employee_id, payment_date, amount_paid, job_ids) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, employee_id, payment_date, amount_paid, job_ids",
		employeeId,
		time.Now().UTC(),
		amount,
		strings.Join(idStrs, ","),
	)

	var p Payroll
	err = res.Scan(
		&p.Id,
		&p.EmployeeId,
		&p.PaymentDate,
		&p.AmountPaid,
		&p.JobIds,
	)
	if err != nil {
		return Payroll{}, err
	}

	_, err = tx.Exec(
		"UPDATE jobs SET payroll_id = $1 WHERE id = ANY($2)",
		p.Id,
		pq.Int64Array(ids),
	)
	if err != nil {
		return Payroll{}, err
	}

	if err = tx.Commit(); err != nil {
		return Payroll{}, err
	}

	return p, nil
}

func (db *PgRepository) GetLatestPayroll(employeeId int) (Payroll, error) {
	row := db.conn.QueryRow(
		"SELECT id, employee_id, payment_date, amount_paid, job_ids FROM payrolls "+
			"WHERE employee_id = $1 ORDER BY payment_date DESC, id DESC LIMIT 1",
		employeeId,
	)

	var p Payroll
	err := row.Scan(
		&p.Id,
		&p.EmployeeId,
		&p.PaymentDate,
		&p.AmountPaid,
		&p.JobIds,
	)

	return p, err
}
