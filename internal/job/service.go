package job

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

// ErrNotOwner is returned when a caller mutates a job posted by someone else.
var ErrNotOwner = errors.New("job belongs to another user")

// Store is the slice of the job store the service depends on.
type Store interface {
	CreateJob(ctx context.Context, job storage.NewJob) (string, error)
	JobByID(ctx context.Context, id string) (storage.Job, error)
	Jobs(ctx context.Context, filter storage.JobFilter) ([]storage.Job, error)
	UpdateJobStatus(ctx context.Context, id, status string) error
	DeleteJob(ctx context.Context, id string) error
}

// Service wraps job CRUD and listing. Listing deliberately downgrades
// missing-relation and permission errors to an empty result while every
// other operation propagates store errors unchanged; the messaging core
// never downgrades. The asymmetry is preserved from the product behavior.
type Service struct {
	logger *zap.SugaredLogger
	store  Store
}

func NewService(logger *zap.SugaredLogger, store Store) *Service {
	return &Service{
		logger: logger,
		store:  store,
	}
}

// Create stores a new job posting and returns its id
func (s *Service) Create(ctx context.Context, job storage.NewJob) (string, error) {
	if job.Status == "" {
		job.Status = storage.JobStatusActive
	}
	return s.store.CreateJob(ctx, job)
}

// Get returns a single job posting
func (s *Service) Get(ctx context.Context, id string) (storage.Job, error) {
	return s.store.JobByID(ctx, id)
}

// List returns job postings matching filter, newest first. Schema and
// permission failures come back as an empty list, not an error.
func (s *Service) List(ctx context.Context, filter storage.JobFilter) ([]storage.Job, error) {
	jobs, err := s.store.Jobs(ctx, filter)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UndefinedTable, pgerrcode.InsufficientPrivilege:
				s.logger.Warnf("job listing degraded to empty result: %v", err)
				return []storage.Job{}, nil
			}
		}
		return nil, err
	}

	if jobs == nil {
		jobs = []storage.Job{}
	}

	return jobs, nil
}

// SetStatus moves a job between lifecycle statuses; only the poster may do it
func (s *Service) SetStatus(ctx context.Context, id, userID, status string) error {
	j, err := s.store.JobByID(ctx, id)
	if err != nil {
		return err
	}
	if j.PostedBy != userID {
		return ErrNotOwner
	}

	return s.store.UpdateJobStatus(ctx, id, status)
}

// Delete removes a job posting; only the poster may do it
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	j, err := s.store.JobByID(ctx, id)
	if err != nil {
		return err
	}
	if j.PostedBy != userID {
		return ErrNotOwner
	}

	return s.store.DeleteJob(ctx, id)
}
