// Package pindb stores the viewing PIN columns of the users table.
package pindb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type stateDB struct {
	UserID       uuid.UUID      `db:"user_id"`
	Email        string         `db:"email"`
	PinHash      sql.NullString `db:"viewing_pin_hash"`
	PinSet       bool           `db:"viewing_pin_set"`
	OTPHash      sql.NullString `db:"viewing_pin_otp_hash"`
	OTPExpiresAt sql.NullTime   `db:"viewing_pin_otp_expires_at"`
}

// Store manages the set of APIs for PIN database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// QueryByID loads the PIN state of the user.
func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (pinbus.State, error) {
	data := struct {
		UserID uuid.UUID `db:"user_id"`
	}{
		UserID: userID,
	}

	const q = `
	SELECT
		user_id, email, viewing_pin_hash, viewing_pin_set, viewing_pin_otp_hash, viewing_pin_otp_expires_at
	FROM
		users
	WHERE
		user_id = :user_id AND is_active = TRUE`

	var db stateDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return pinbus.State{}, fmt.Errorf("db: %w", pinbus.ErrNotFound)
		}
		return pinbus.State{}, fmt.Errorf("db: %w", err)
	}

	st := pinbus.State{
		UserID:  db.UserID,
		Email:   mail.Address{Address: db.Email},
		PinHash: []byte(db.PinHash.String),
		PinSet:  db.PinSet,
		OTPHash: db.OTPHash.String,
	}

	if db.OTPExpiresAt.Valid {
		st.OTPExpiresAt = db.OTPExpiresAt.Time
	}

	return st, nil
}

// SetPin stores a new PIN hash and marks the PIN as set.
func (s *Store) SetPin(ctx context.Context, userID uuid.UUID, hash []byte, now time.Time) error {
	data := struct {
		UserID    uuid.UUID `db:"user_id"`
		PinHash   string    `db:"viewing_pin_hash"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		UserID:    userID,
		PinHash:   string(hash),
		UpdatedAt: now.UTC(),
	}

	const q = `
	UPDATE
		users
	SET
		viewing_pin_hash = :viewing_pin_hash,
		viewing_pin_set = TRUE,
		updated_at = :updated_at
	WHERE
		user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// SetOTP stores the OTP hash and expiry, replacing any earlier code.
func (s *Store) SetOTP(ctx context.Context, userID uuid.UUID, otpHash string, expiresAt time.Time, now time.Time) error {
	data := struct {
		UserID    uuid.UUID `db:"user_id"`
		OTPHash   string    `db:"viewing_pin_otp_hash"`
		ExpiresAt time.Time `db:"viewing_pin_otp_expires_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		UserID:    userID,
		OTPHash:   otpHash,
		ExpiresAt: expiresAt.UTC(),
		UpdatedAt: now.UTC(),
	}

	const q = `
	UPDATE
		users
	SET
		viewing_pin_otp_hash = :viewing_pin_otp_hash,
		viewing_pin_otp_expires_at = :viewing_pin_otp_expires_at,
		updated_at = :updated_at
	WHERE
		user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// ResetPin stores the new PIN and clears the OTP, but only while the stored
// OTP still matches otpHash. It reports whether the row was updated.
func (s *Store) ResetPin(ctx context.Context, userID uuid.UUID, hash []byte, otpHash string, now time.Time) (bool, error) {
	data := struct {
		UserID    uuid.UUID `db:"user_id"`
		PinHash   string    `db:"viewing_pin_hash"`
		OTPHash   string    `db:"viewing_pin_otp_hash"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		UserID:    userID,
		PinHash:   string(hash),
		OTPHash:   otpHash,
		UpdatedAt: now.UTC(),
	}

	const q = `
	UPDATE
		users
	SET
		viewing_pin_hash = :viewing_pin_hash,
		viewing_pin_set = TRUE,
		viewing_pin_otp_hash = NULL,
		viewing_pin_otp_expires_at = NULL,
		updated_at = :updated_at
	WHERE
		user_id = :user_id AND viewing_pin_otp_hash = :viewing_pin_otp_hash`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return false, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n == 1, nil
}
