package auth

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var resetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var markUserVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"is_verified" = TRUE
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// users is the bun-backed UserStore. The generic repository handles
// create/update plumbing; lookups that need case-insensitive or
// provider-column matching go through bun directly.
type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var _ UserStore = (*users)(nil)

// NewUsersRepository wires a UserStore over the given bun handle.
func NewUsersRepository(db *bun.DB) UserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		repo: repo,
		db:   db,
	}
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)

	record, err := a.repo.Create(ctx, user)
	if err != nil {
		return nil, translateUserStoreError(err)
	}
	return record, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	record, err := a.repo.Update(ctx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return nil, translateUserStoreError(err)
	}
	return record, nil
}

func (a *users) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrUserNotFound
	}

	// Soft delete via the model's deleted_at column.
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", uid).
		Exec(ctx)
	if err != nil {
		return translateUserStoreError(err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	record, err := a.repo.GetByID(ctx, uid.String())
	if err != nil {
		return nil, translateUserStoreError(err)
	}
	return record, nil
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.findByColumn(ctx, "email", email, true)
}

func (a *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	return a.findByColumn(ctx, "username", username, true)
}

func (a *users) FindByExternalID(ctx context.Context, provider Provider, externalID string) (*User, error) {
	column := ""
	switch provider {
	case ProviderGoogle:
		column = "google_id"
	case ProviderFacebook:
		column = "facebook_id"
	default:
		return nil, ErrUserNotFound
	}

	return a.findByColumn(ctx, column, externalID, false)
}

func (a *users) findByColumn(ctx context.Context, column, value string, foldCase bool) (*User, error) {
	record := &User{}
	q := a.db.NewSelect().Model(record)

	if foldCase {
		q = q.Where("lower(?TableAlias."+column+") = lower(?)", value)
	} else {
		q = q.Where("?TableAlias."+column+" = ?", value)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, translateUserStoreError(err)
	}

	return record, nil
}

// FindAllSafe lists users with sensitive columns projected out.
func (a *users) FindAllSafe(ctx context.Context) ([]*User, error) {
	records := []*User{}
	err := a.db.NewSelect().
		Model(&records).
		ExcludeColumn("password_hash", "login_attempts", "login_attempt_at", "metadata").
		Order("usr.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, translateUserStoreError(err)
	}
	return records, nil
}

func (a *users) LinkExternalID(ctx context.Context, id string, provider Provider, externalID string) (*User, error) {
	user, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.SetExternalID(provider, externalID)
	return a.Update(ctx, user)
}

func (a *users) MarkVerified(ctx context.Context, id string) error {
	return a.execReturning(ctx, markUserVerifiedSQL, id)
}

func (a *users) ResetPassword(ctx context.Context, id string, passwordHash string) error {
	return a.execReturning(ctx, resetUserPasswordSQL, passwordHash, id)
}

func (a *users) execReturning(ctx context.Context, query string, args ...any) error {
	res, err := a.repo.Raw(ctx, query, args...)
	if err != nil {
		return translateUserStoreError(err)
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.repo.Update(ctx, record, repository.UpdateByID(user.ID.String()))
	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: ORM updates won't zero login_attempt_at and login_attempts,
	// nullzero skips them, so we reset through raw SQL.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

// prepareUserDefaults fills the fields a caller may omit before insert.
// New accounts start active with a generated id.
func prepareUserDefaults(user *User) {
	if user == nil {
		return
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if !user.IsLocked && !user.IsSuspended {
		user.IsActive = true
	}
}

// translateUserStoreError maps store-level failures to the package
// taxonomy. Unique-constraint conflicts become ErrAccountExists so the
// check-then-insert race surfaces as a clean conflict.
func translateUserStoreError(err error) error {
	if err == nil {
		return nil
	}

	if repository.IsRecordNotFound(err) {
		return ErrUserNotFound
	}

	if isUniqueViolation(err) {
		return ErrAccountExists
	}

	return err
}
