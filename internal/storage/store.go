package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage/zapadapter"
)

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotExist         = errors.New("user does not exist")
	ErrJobNotExist          = errors.New("job does not exist")
	ErrConversationNotExist = errors.New("conversation does not exist")
)

// Store defines fields used in db interaction processes
type Store struct {
	logger *zap.SugaredLogger
	db     *pgxpool.Pool
}

// New sets provided zap.Logger via zapadapter to pgxpool.Pool and returns instance of Store struct
func New(ctx context.Context, logger *zap.SugaredLogger, cfg Config, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	config.ConnConfig.Logger = zapadapter.NewLogger(logger.Desugar())

	for _, opt := range opts {
		opt.apply(config)
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		db:     pool,
	}, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() {
	s.db.Close()
}

// Migrate creates missing tables. Conversation participants are stored as a
// text array so membership lookups use array containment, and the cached
// per-user maps live in jsonb columns.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`create table if not exists users (
			id            text primary key,
			email         text unique not null,
			display_name  text not null,
			phone         text,
			avatar_url    text,
			password_hash text not null,
			created_at    timestamptz not null default now(),
			updated_at    timestamptz not null default now()
		)`,

		`create table if not exists jobs (
			id              text primary key,
			title           text not null,
			description     text not null,
			category        text not null,
			region          text not null,
			district        text not null default '',
			salary_min      bigint not null default 0,
			salary_max      bigint not null default 0,
			currency        text not null default 'UZS',
			employment_type text not null default '',
			requirements    text[] not null default '{}',
			benefits        text[] not null default '{}',
			company_name    text not null default '',
			contact_phone   text not null default '',
			contact_email   text not null default '',
			posted_by       text not null references users (id),
			status          text not null default 'active',
			created_at      timestamptz not null default now(),
			updated_at      timestamptz not null default now()
		)`,

		`create table if not exists conversations (
			id           text primary key,
			participants text[] not null,
			job_id       text,
			job_title    text,
			last_message jsonb,
			unread_count jsonb not null default '{}'::jsonb,
			typing       jsonb not null default '{}'::jsonb,
			created_at   timestamptz not null default now(),
			updated_at   timestamptz not null default now()
		)`,

		`create index if not exists conversations_participants_idx
			on conversations using gin (participants)`,

		`create table if not exists messages (
			id              text primary key,
			conversation_id text not null references conversations (id) on delete cascade,
			sender_id       text not null,
			sender_name     text not null,
			sender_avatar   text,
			receiver_id     text not null,
			content         text not null,
			type            text not null default 'text',
			media_url       text,
			read            boolean not null default false,
			created_at      timestamptz not null default now()
		)`,

		`create index if not exists messages_conversation_created_idx
			on messages (conversation_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// newID returns a new store-assigned document id
func newID() string {
	return xid.New().String()
}

// CreateUser creates user and returns its id.
func (s *Store) CreateUser(ctx context.Context, user NewUser) (string, error) {
	s.logger.Debugf("Creating user (%s)", user.Email)

	id := newID()
	sql := `insert into users (id, email, display_name, phone, avatar_url, password_hash)
			values ($1, $2, $3, nullif($4, ''), nullif($5, ''), $6)`
	_, err := s.db.Exec(ctx, sql, id, user.Email, user.DisplayName, user.Phone, user.AvatarURL, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				return "", ErrUserExists
			}
		}
		return "", err
	}

	s.logger.Debugf("Created user (%s) with id %s", user.Email, id)

	return id, nil
}

// UserByEmail returns the user record matching email
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	sql := `select id, email, display_name, coalesce(phone, ''), coalesce(avatar_url, ''),
				   password_hash, created_at, updated_at
			  from users
			 where email = $1`

	var u User
	err := s.db.QueryRow(ctx, sql, email).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Phone, &u.AvatarURL,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotExist
		}
		return User{}, err
	}

	return u, nil
}

// UserByID returns the user record matching id
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	sql := `select id, email, display_name, coalesce(phone, ''), coalesce(avatar_url, ''),
				   password_hash, created_at, updated_at
			  from users
			 where id = $1`

	var u User
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Phone, &u.AvatarURL,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotExist
		}
		return User{}, err
	}

	return u, nil
}
