package meetingdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/types/locationtype"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

type meetingDB struct {
	ID             uuid.UUID      `db:"meeting_pk"`
	TenantID       uuid.UUID      `db:"tenant_id"`
	MeetingID      string         `db:"meeting_id"`
	MeetingLink    string         `db:"meeting_link"`
	Title          string         `db:"title"`
	Description    sql.NullString `db:"description"`
	Location       sql.NullString `db:"location"`
	LocationType   string         `db:"location_type"`
	From           time.Time      `db:"from_at"`
	To             time.Time      `db:"to_at"`
	HostID         uuid.NullUUID  `db:"host_id"`
	OwnerID        uuid.UUID      `db:"owner_id"`
	CreatedBy      uuid.UUID      `db:"created_by"`
	LastModifiedBy uuid.UUID      `db:"last_modified_by"`
	RelatedTo      sql.NullString `db:"related_to"`
	RelatedToID    uuid.NullUUID  `db:"related_to_id"`
	Participants   []byte         `db:"participants"`
	Status         string         `db:"status"`
	Active         bool           `db:"is_active"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toDBMeeting(bus meetingbus.Meeting) (meetingDB, error) {
	participants := bus.Participants
	if participants == nil {
		participants = []uuid.UUID{}
	}

	raw, err := json.Marshal(participants)
	if err != nil {
		return meetingDB{}, fmt.Errorf("marshal participants: %w", err)
	}

	db := meetingDB{
		ID:             bus.ID,
		TenantID:       bus.TenantID,
		MeetingID:      bus.MeetingID,
		MeetingLink:    bus.MeetingLink,
		Title:          bus.Title,
		Description:    nullString(bus.Description),
		Location:       nullString(bus.Location),
		LocationType:   bus.LocationType.String(),
		From:           bus.From.UTC(),
		To:             bus.To.UTC(),
		HostID:         uuid.NullUUID{UUID: bus.HostID, Valid: bus.HostID != uuid.Nil},
		OwnerID:        bus.OwnerID,
		CreatedBy:      bus.CreatedBy,
		LastModifiedBy: bus.LastModifiedBy,
		Participants:   raw,
		Status:         bus.Status.String(),
		Active:         bus.Active,
		CreatedAt:      bus.CreatedAt.UTC(),
		UpdatedAt:      bus.UpdatedAt.UTC(),
	}

	if !bus.RelatedTo.IsZero() {
		db.RelatedTo = nullString(bus.RelatedTo.Kind.String())
		db.RelatedToID = uuid.NullUUID{UUID: bus.RelatedTo.ID, Valid: true}
	}

	return db, nil
}

func toBusMeeting(db meetingDB) (meetingbus.Meeting, error) {
	lt, err := locationtype.Parse(db.LocationType)
	if err != nil {
		return meetingbus.Meeting{}, fmt.Errorf("parse location type: %w", err)
	}

	status, err := meetingstatus.Parse(db.Status)
	if err != nil {
		return meetingbus.Meeting{}, fmt.Errorf("parse status: %w", err)
	}

	var ref relation.Ref
	if db.RelatedTo.Valid {
		kind, err := relation.ParseKind(db.RelatedTo.String)
		if err != nil {
			return meetingbus.Meeting{}, fmt.Errorf("parse related to: %w", err)
		}
		ref = relation.Ref{Kind: kind, ID: db.RelatedToID.UUID}
	}

	var participants []uuid.UUID
	if len(db.Participants) > 0 {
		if err := json.Unmarshal(db.Participants, &participants); err != nil {
			return meetingbus.Meeting{}, fmt.Errorf("unmarshal participants: %w", err)
		}
	}

	bus := meetingbus.Meeting{
		ID:             db.ID,
		TenantID:       db.TenantID,
		MeetingID:      db.MeetingID,
		MeetingLink:    db.MeetingLink,
		Title:          db.Title,
		Description:    db.Description.String,
		Location:       db.Location.String,
		LocationType:   lt,
		From:           db.From.In(time.Local),
		To:             db.To.In(time.Local),
		HostID:         db.HostID.UUID,
		OwnerID:        db.OwnerID,
		CreatedBy:      db.CreatedBy,
		LastModifiedBy: db.LastModifiedBy,
		RelatedTo:      ref,
		Participants:   participants,
		Status:         status,
		Active:         db.Active,
		CreatedAt:      db.CreatedAt.In(time.Local),
		UpdatedAt:      db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusMeetings(dbs []meetingDB) ([]meetingbus.Meeting, error) {
	bus := make([]meetingbus.Meeting, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusMeeting(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
