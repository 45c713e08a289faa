package tenantdb

import (
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/phone"
)

// tenantDB represents the structure of the tenants table in the database.
type tenantDB struct {
	ID               uuid.UUID      `db:"tenant_id"`
	Name             string         `db:"name"`
	Slug             string         `db:"slug"`
	Email            sql.NullString `db:"email"`
	Phone            sql.NullString `db:"phone"`
	Address          sql.NullString `db:"address"`
	Industry         sql.NullString `db:"industry"`
	Website          sql.NullString `db:"website"`
	Active           bool           `db:"is_active"`
	Suspended        bool           `db:"suspended"`
	SuspensionReason sql.NullString `db:"suspension_reason"`
	MaxUsers         int            `db:"max_users"`
	UserCount        int            `db:"user_count"`
	StorageUsedMB    int64          `db:"storage_used_mb"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toDBTenant(bus tenantbus.Tenant) tenantDB {
	var email sql.NullString
	if bus.Email != nil {
		email = nullString(bus.Email.Address)
	}

	return tenantDB{
		ID:               bus.ID,
		Name:             bus.Name.String(),
		Slug:             bus.Slug,
		Email:            email,
		Phone:            bus.Phone.SQL(),
		Address:          nullString(bus.Address),
		Industry:         nullString(bus.Industry),
		Website:          nullString(bus.Website),
		Active:           bus.Active,
		Suspended:        bus.Suspended,
		SuspensionReason: nullString(bus.SuspensionReason),
		MaxUsers:         bus.MaxUsers,
		UserCount:        bus.UserCount,
		StorageUsedMB:    bus.StorageUsedMB,
		CreatedAt:        bus.CreatedAt.UTC(),
		UpdatedAt:        bus.UpdatedAt.UTC(),
	}
}

func toBusTenant(db tenantDB) (tenantbus.Tenant, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse name: %w", err)
	}

	phn, err := phone.Parse(db.Phone.String)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse phone: %w", err)
	}

	var email *mail.Address
	if db.Email.Valid {
		email = &mail.Address{Address: db.Email.String}
	}

	bus := tenantbus.Tenant{
		ID:               db.ID,
		Name:             nme,
		Slug:             db.Slug,
		Email:            email,
		Phone:            phn,
		Address:          db.Address.String,
		Industry:         db.Industry.String,
		Website:          db.Website.String,
		Active:           db.Active,
		Suspended:        db.Suspended,
		SuspensionReason: db.SuspensionReason.String,
		MaxUsers:         db.MaxUsers,
		UserCount:        db.UserCount,
		StorageUsedMB:    db.StorageUsedMB,
		CreatedAt:        db.CreatedAt.In(time.Local),
		UpdatedAt:        db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusTenants(dbs []tenantDB) ([]tenantbus.Tenant, error) {
	bus := make([]tenantbus.Tenant, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenant(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
