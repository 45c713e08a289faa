package meetingapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/types/locationtype"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

// Meeting represents information about an individual meeting.
type Meeting struct {
	ID             string   `json:"id"`
	TenantID       string   `json:"tenantId"`
	MeetingID      string   `json:"meetingId"`
	MeetingLink    string   `json:"meetingLink"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Location       string   `json:"location,omitempty"`
	LocationType   string   `json:"locationType"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	HostID         string   `json:"hostId,omitempty"`
	OwnerID        string   `json:"ownerId"`
	CreatedBy      string   `json:"createdBy"`
	LastModifiedBy string   `json:"lastModifiedBy"`
	RelatedTo      string   `json:"relatedTo,omitempty"`
	RelatedToID    string   `json:"relatedToId,omitempty"`
	Participants   []string `json:"participants"`
	Status         string   `json:"status"`
	IsActive       bool     `json:"isActive"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toAppMeeting(bus meetingbus.Meeting) Meeting {
	participants := make([]string, len(bus.Participants))
	for i, id := range bus.Participants {
		participants[i] = id.String()
	}

	var hostID string
	if bus.HostID != uuid.Nil {
		hostID = bus.HostID.String()
	}

	var relatedToID string
	if !bus.RelatedTo.IsZero() {
		relatedToID = bus.RelatedTo.ID.String()
	}

	return Meeting{
		ID:             bus.ID.String(),
		TenantID:       bus.TenantID.String(),
		MeetingID:      bus.MeetingID,
		MeetingLink:    bus.MeetingLink,
		Title:          bus.Title,
		Description:    bus.Description,
		Location:       bus.Location,
		LocationType:   bus.LocationType.String(),
		From:           bus.From.Format(time.RFC3339),
		To:             bus.To.Format(time.RFC3339),
		HostID:         hostID,
		OwnerID:        bus.OwnerID.String(),
		CreatedBy:      bus.CreatedBy.String(),
		LastModifiedBy: bus.LastModifiedBy.String(),
		RelatedTo:      bus.RelatedTo.Kind.String(),
		RelatedToID:    relatedToID,
		Participants:   participants,
		Status:         bus.Status.String(),
		IsActive:       bus.Active,
		CreatedAt:      bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppMeetings(mtgs []meetingbus.Meeting) []Meeting {
	app := make([]Meeting, len(mtgs))
	for i, mtg := range mtgs {
		app[i] = toAppMeeting(mtg)
	}

	return app
}

// =============================================================================

// NewMeeting defines the data needed to add a new meeting.
type NewMeeting struct {
	TenantID     string   `json:"tenantId" validate:"omitempty,uuid"`
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	LocationType string   `json:"locationType" validate:"omitempty,oneof=in_person online phone"`
	From         string   `json:"from" validate:"required"`
	To           string   `json:"to" validate:"required"`
	HostID       string   `json:"hostId" validate:"omitempty,uuid"`
	OwnerID      string   `json:"ownerId" validate:"omitempty,uuid"`
	RelatedTo    string   `json:"relatedTo"`
	RelatedToID  string   `json:"relatedToId"`
	Participants []string `json:"participants" validate:"dive,uuid"`
	Status       string   `json:"status"`
}

// Decode implements the web.Decoder interface.
func (app *NewMeeting) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewMeeting) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusNewMeeting(app NewMeeting, tenantID uuid.UUID, actorID uuid.UUID) (meetingbus.NewMeeting, error) {
	var fieldErrors errs.FieldErrors

	from, err := time.Parse(time.RFC3339, app.From)
	if err != nil {
		fieldErrors.Add("from", err)
	}

	to, err := time.Parse(time.RFC3339, app.To)
	if err != nil {
		fieldErrors.Add("to", err)
	}

	var lt locationtype.LocationType
	if app.LocationType != "" {
		lt, err = locationtype.Parse(app.LocationType)
		if err != nil {
			fieldErrors.Add("locationType", err)
		}
	}

	var status meetingstatus.Status
	if app.Status != "" {
		status, err = meetingstatus.Parse(app.Status)
		if err != nil {
			fieldErrors.Add("status", err)
		}
	}

	ref, err := relation.Parse(app.RelatedTo, app.RelatedToID)
	if err != nil {
		fieldErrors.Add("relatedTo", err)
	}

	participants, err := parseIDs(app.Participants)
	if err != nil {
		fieldErrors.Add("participants", err)
	}

	var hostID, ownerID uuid.UUID
	if app.HostID != "" {
		hostID = uuid.MustParse(app.HostID)
	}
	if app.OwnerID != "" {
		ownerID = uuid.MustParse(app.OwnerID)
	}

	if fieldErrors != nil {
		return meetingbus.NewMeeting{}, fieldErrors
	}

	bus := meetingbus.NewMeeting{
		TenantID:     tenantID,
		Title:        app.Title,
		Description:  app.Description,
		Location:     app.Location,
		LocationType: lt,
		From:         from,
		To:           to,
		HostID:       hostID,
		OwnerID:      ownerID,
		RelatedTo:    ref,
		Participants: participants,
		Status:       status,
		CreatedBy:    actorID,
	}

	return bus, nil
}

// =============================================================================

// UpdateMeeting defines the fields a meeting update may change. Any other
// member of the request body is ignored.
type UpdateMeeting struct {
	Title        *string  `json:"title" validate:"omitempty,min=1"`
	Description  *string  `json:"description"`
	Location     *string  `json:"location"`
	LocationType *string  `json:"locationType" validate:"omitempty,oneof=in_person online phone"`
	From         *string  `json:"from"`
	To           *string  `json:"to"`
	HostID       *string  `json:"hostId" validate:"omitempty,uuid"`
	RelatedTo    *string  `json:"relatedTo"`
	RelatedToID  *string  `json:"relatedToId"`
	Participants []string `json:"participants" validate:"omitempty,dive,uuid"`
	Status       *string  `json:"status"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateMeeting) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateMeeting) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpdateMeeting(app UpdateMeeting) (meetingbus.UpdateMeeting, error) {
	var fieldErrors errs.FieldErrors

	bus := meetingbus.UpdateMeeting{
		Title:       app.Title,
		Description: app.Description,
		Location:    app.Location,
	}

	if app.LocationType != nil {
		lt, err := locationtype.Parse(*app.LocationType)
		if err != nil {
			fieldErrors.Add("locationType", err)
		}
		bus.LocationType = &lt
	}

	if app.From != nil {
		from, err := time.Parse(time.RFC3339, *app.From)
		if err != nil {
			fieldErrors.Add("from", err)
		}
		bus.From = &from
	}

	if app.To != nil {
		to, err := time.Parse(time.RFC3339, *app.To)
		if err != nil {
			fieldErrors.Add("to", err)
		}
		bus.To = &to
	}

	if app.HostID != nil {
		hostID := uuid.MustParse(*app.HostID)
		bus.HostID = &hostID
	}

	if app.RelatedTo != nil || app.RelatedToID != nil {
		ref, err := relation.Parse(deref(app.RelatedTo), deref(app.RelatedToID))
		if err != nil {
			fieldErrors.Add("relatedTo", err)
		}
		bus.RelatedTo = &ref
	}

	if app.Participants != nil {
		participants, err := parseIDs(app.Participants)
		if err != nil {
			fieldErrors.Add("participants", err)
		}
		bus.Participants = participants
	}

	if app.Status != nil {
		status, err := meetingstatus.Parse(*app.Status)
		if err != nil {
			fieldErrors.Add("status", err)
		}
		bus.Status = &status
	}

	if fieldErrors != nil {
		return meetingbus.UpdateMeeting{}, fieldErrors
	}

	return bus, nil
}

// =============================================================================

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	return ids, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
