package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

const jobColumns = `id, title, description, category, region, district,
	salary_min, salary_max, currency, employment_type, requirements, benefits,
	company_name, contact_phone, contact_email, posted_by, status, created_at, updated_at`

// CreateJob creates a job posting and returns its id
func (s *Store) CreateJob(ctx context.Context, job NewJob) (string, error) {
	s.logger.Debugf("Creating job (%s) posted by %s", job.Title, job.PostedBy)

	status := job.Status
	if status == "" {
		status = JobStatusActive
	}

	// nil slices would encode as NULL and trip the not-null constraints
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	if job.Benefits == nil {
		job.Benefits = []string{}
	}

	id := newID()
	sql := `insert into jobs (id, title, description, category, region, district,
				salary_min, salary_max, currency, employment_type, requirements, benefits,
				company_name, contact_phone, contact_email, posted_by, status)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := s.db.Exec(ctx, sql, id, job.Title, job.Description, job.Category, job.Region,
		job.District, job.SalaryMin, job.SalaryMax, job.Currency, job.EmploymentType,
		job.Requirements, job.Benefits, job.CompanyName, job.ContactPhone, job.ContactEmail,
		job.PostedBy, status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.ForeignKeyViolation {
				return "", ErrUserNotExist
			}
		}
		return "", err
	}

	s.logger.Debugf("Created job (%s) with id %s", job.Title, id)

	return id, nil
}

// JobByID returns a single job posting
func (s *Store) JobByID(ctx context.Context, id string) (Job, error) {
	sql := `select ` + jobColumns + ` from jobs where id = $1`

	j, err := scanJob(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrJobNotExist
		}
		return Job{}, err
	}

	return j, nil
}

// Jobs returns job postings matching filter, newest first
func (s *Store) Jobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	s.logger.Debugf("Listing jobs (filter: %+v)", filter)

	var (
		conds []string
		args  []interface{}
	)

	add := func(cond, value string) {
		args = append(args, value)
		conds = append(conds, cond+" = $"+strconv.Itoa(len(args)))
	}

	if filter.Category != "" {
		add("category", filter.Category)
	}
	if filter.Region != "" {
		add("region", filter.Region)
	}
	if filter.EmploymentType != "" {
		add("employment_type", filter.EmploymentType)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(title ilike $"+n+" or description ilike $"+n+")")
	}

	sql := `select ` + jobColumns + ` from jobs`
	if len(conds) > 0 {
		sql += " where " + strings.Join(conds, " and ")
	}
	sql += " order by created_at desc"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += " limit $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d jobs", len(jobs))

	return jobs, nil
}

// UpdateJobStatus moves a job posting between lifecycle statuses
func (s *Store) UpdateJobStatus(ctx context.Context, id, status string) error {
	sql := `update jobs set status = $2, updated_at = now() where id = $1`

	tag, err := s.db.Exec(ctx, sql, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotExist
	}

	return nil
}

// DeleteJob removes a job posting
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `delete from jobs where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotExist
	}

	return nil
}

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.Title, &j.Description, &j.Category, &j.Region, &j.District,
		&j.SalaryMin, &j.SalaryMax, &j.Currency, &j.EmploymentType,
		&j.Requirements, &j.Benefits, &j.CompanyName, &j.ContactPhone,
		&j.ContactEmail, &j.PostedBy, &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}
