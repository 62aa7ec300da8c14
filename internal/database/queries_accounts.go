package database

import (
	"time"
)

func (db *PgRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (email, password_hash, role, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, email, role, created_at",
		params.Email,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgRepository) GetUserById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, role, telegram_report_chat_id, created_at FROM users "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.TelegramReportChatId,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgRepository) GetUserByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, role, telegram_report_chat_id, created_at FROM users "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.TelegramReportChatId,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgRepository) ListEmployers() ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, email, role, telegram_report_chat_id, created_at FROM users "+
			"WHERE role = $1 ORDER BY id",
		"employer",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Email, &u.Role, &u.TelegramReportChatId, &u.CreatedAt); err != nil {
			break
		}

		users = append(users, u)
	}
	return users, err
}

// CreateEmployeeAccount creates the employee's login account and the
// employee record in one transaction.
func (db *PgRepository) CreateEmployeeAccount(params CreateEmployeeParams) (Employee, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Employee{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var userId int
	err = tx.QueryRow(
		"INSERT INTO users (email, password_hash, role, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id",
		params.Email,
		params.PasswordHash,
		"employee",
		time.Now().UTC(),
	).Scan(&userId)
	if err != nil {
		return Employee{}, err
	}

	res := tx.QueryRow(
		"INSERT INTO employees (name, user_id, employer_id, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, name, user_id, employer_id, created_at",
		params.Name,
		userId,
		params.EmployerId,
		time.Now().UTC(),
	)

	var e Employee
	err = res.Scan(
		&e.Id,
		&e.Name,
		&e.UserId,
		&e.EmployerId,
		&e.CreatedAt,
	)
	if err != nil {
		return Employee{}, err
	}

	if err = tx.Commit(); err != nil {
		return Employee{}, err
	}

	return e, nil
}

func (db *PgRepository) GetEmployeeById(id int) (Employee, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, user_id, employer_id, telegram_chat_id, created_at FROM employees "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var e Employee
	err := row.Scan(
		&e.Id,
		&e.Name,
		&e.UserId,
		&e.EmployerId,
		&e.TelegramChatId,
		&e.CreatedAt,
	)

	return e, err
}

func (db *PgRepository) GetEmployeeByUserId(userId int) (Employee, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, user_id, employer_id, telegram_chat_id, created_at FROM employees "+
			"WHERE user_id = $1 LIMIT 1",
		userId,
	)

	var e Employee
	err := row.Scan(
		&e.Id,
		&e.Name,
		&e.UserId,
		&e.EmployerId,
		&e.TelegramChatId,
		&e.CreatedAt,
	)

	return e, err
}

func (db *PgRepository) ListEmployees(employerId int) ([]Employee, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, user_id, employer_id, telegram_chat_id, created_at FROM employees "+
			"WHERE employer_id = $1 ORDER BY name",
		employerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err = rows.Scan(&e.Id, &e.Name, &e.UserId, &e.EmployerId, &e.TelegramChatId, &e.CreatedAt); err != nil {
			break
		}

		employees = append(employees, e)
	}
	return employees, err
}

func (db *PgRepository) UpdateEmployeeTelegramChatId(employeeId int, chatId string) error {
	_, err := db.conn.Exec(
		"UPDATE employees SET telegram_chat_id = $2 WHERE id = $1",
		employeeId,
		chatId,
	)

	return err
}

func (db *PgRepository) CreateComic(params CreateComicParams) (Comic, error) {
	res := db.conn.QueryRow(
		"INSERT INTO comics (employer_id, title, synopsis, image_file, original_latest_ep, update_weekday, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING id, employer_id, title, synopsis, image_file, last_updated_ep, original_latest_ep, update_weekday, status, created_at",
		params.EmployerId,
		params.Title,
		params.Synopsis,
		params.ImageFile,
		params.OriginalLatestEp,
		params.UpdateWeekday,
		time.Now().UTC(),
	)

	var c Comic
	err := res.Scan(
		&c.Id,
		&c.EmployerId,
		&c.Title,
		&c.Synopsis,
		&c.ImageFile,
		&c.LastUpdatedEp,
		&c.OriginalLatestEp,
		&c.UpdateWeekday,
		&c.Status,
		&c.CreatedAt,
	)

	return c, err
}

func (db *PgRepository) GetComicById(id int) (Comic, error) {
	row := db.conn.QueryRow(
		"SELECT id, employer_id, title, synopsis, image_file, last_updated_ep, original_latest_ep, update_weekday, status, created_at "+
			"FROM comics WHERE id = $1 LIMIT 1",
		id,
	)

	var c Comic
	err := row.Scan(
		&c.Id,
		&c.EmployerId,
		&c.Title,
		&c.Synopsis,
		&c.ImageFile,
		&c.LastUpdatedEp,
		&c.OriginalLatestEp,
		&c.UpdateWeekday,
		&c.Status,
		&c.CreatedAt,
	)

	return c, err
}

func (db *PgRepository) ListComics(employerId int) ([]Comic, error) {
	rows, err := db.conn.Query(
		"SELECT id, employer_id, title, synopsis, image_file, last_updated_ep, original_latest_ep, update_weekday, status, created_at "+
			"FROM comics WHERE employer_id = $1 ORDER BY title",
		employerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comics []Comic
	for rows.Next() {
		var c Comic
		if err = rows.Scan(
			&c.Id, &c.EmployerId, &c.Title, &c.Synopsis, &c.ImageFile,
			&c.LastUpdatedEp, &c.OriginalLatestEp, &c.UpdateWeekday, &c.Status, &c.CreatedAt,
		); err != nil {
			break
		}

		comics = append(comics, c)
	}
	return comics, err
}

// BumpComicEpisode raises last_updated_ep, never lowers it.
func (db *PgRepository) BumpComicEpisode(comicId, episode int) error {
	_, err := db.conn.Exec(
		"UPDATE comics SET last_updated_ep = GREATEST(last_updated_ep, $2) WHERE id = $1",
		comicId,
		episode,
	)

	return err
}

func (db *PgRepository) ListComicsUpdatingOn(employerId int, weekday string) ([]Comic, error) {
	rows, err := db.conn.Query(
		"SELECT id, employer_id, title, synopsis, image_file, last_updated_ep, original_latest_ep, update_weekday, status, created_at "+
			"FROM comics WHERE employer_id = $1 AND update_weekday = $2 AND status = 'ACTIVE' ORDER BY title",
		employerId,
		weekday,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comics []Comic
	for rows.Next() {
		var c Comic
		if err = rows.Scan(
			&c.Id, &c.EmployerId, &c.Title, &c.Synopsis, &c.ImageFile,
			&c.LastUpdatedEp, &c.OriginalLatestEp, &c.UpdateWeekday, &c.Status, &c.CreatedAt,
		); err != nil {
			break
		}

		comics = append(comics, c)
	}
	return comics, err
}
