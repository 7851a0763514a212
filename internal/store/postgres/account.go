package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"notes-app/backend/internal/model"
	"notes-app/backend/internal/store"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id::text, name, email, coalesce(password_hash, ''), coalesce(google_id, ''),
	verified, coalesce(otp_code, ''), otp_expires_at, created_at, updated_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a         model.Account
		otpCode   string
		otpExpiry *time.Time
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.GoogleID,
		&a.Verified,
		&otpCode,
		&otpExpiry,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return model.Account{}, err
	}
	if otpCode != "" && otpExpiry != nil {
		a.OTP = &model.OTP{Code: otpCode, ExpiresAt: otpExpiry.UTC()}
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func otpColumns(a model.Account) (string, *time.Time) {
	if a.OTP == nil {
		return "", nil
	}
	exp := a.OTP.ExpiresAt.UTC()
	return a.OTP.Code, &exp
}

func (s *Store) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	email := store.NormalizeEmail(a.Email)
	if email == "" {
		return model.Account{}, store.ErrEmailRequired
	}

	createdAt := a.CreatedAt.UTC()
	if a.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	otpCode, otpExpiry := otpColumns(a)

	row := s.pool.QueryRow(ctx, `
		insert into public.accounts (id, name, email, password_hash, google_id, verified, otp_code, otp_expires_at, created_at, updated_at)
		values (coalesce(nullif($1, '')::uuid, gen_random_uuid()), $2, $3, nullif($4, ''), nullif($5, ''), $6, nullif($7, ''), $8, $9, $9)
		returning `+accountColumns,
		strings.TrimSpace(a.ID), a.Name, email, a.PasswordHash, a.GoogleID, a.Verified, otpCode, otpExpiry, createdAt,
	)
	out, err := scanAccount(row)
	if err != nil {
		return model.Account{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.pool.QueryRow(ctx, `
		select `+accountColumns+`
		from public.accounts
		where email = $1
	`, store.NormalizeEmail(email))
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &a, nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := s.pool.QueryRow(ctx, `
		select `+accountColumns+`
		from public.accounts
		where id = $1::uuid
	`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	otpCode, otpExpiry := otpColumns(a)

	row := s.pool.QueryRow(ctx, `
		update public.accounts
		set name = $2,
			email = $3,
			password_hash = nullif($4, ''),
			google_id = nullif($5, ''),
			verified = $6,
			otp_code = nullif($7, ''),
			otp_expires_at = $8
		where id = $1::uuid
		returning `+accountColumns,
		a.ID, a.Name, store.NormalizeEmail(a.Email), a.PasswordHash, a.GoogleID, a.Verified, otpCode, otpExpiry,
	)
	out, err := scanAccount(row)
	if err != nil {
		return model.Account{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `delete from public.accounts where id = $1::uuid`, id)
	if err := mapPgErr(err); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Store) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		delete from public.accounts
		where verified = false and created_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, mapPgErr(err)
	}
	return int(tag.RowsAffected()), nil
}
