package noteapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

// Note represents information about an individual note.
type Note struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenantId"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	RelatedTo      string `json:"relatedTo,omitempty"`
	RelatedToID    string `json:"relatedToId,omitempty"`
	OwnerID        string `json:"ownerId"`
	CreatedBy      string `json:"createdBy"`
	LastModifiedBy string `json:"lastModifiedBy"`
	IsActive       bool   `json:"isActive"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func toAppNote(bus notebus.Note) Note {
	var relatedToID string
	if !bus.RelatedTo.IsZero() {
		relatedToID = bus.RelatedTo.ID.String()
	}

	return Note{
		ID:             bus.ID.String(),
		TenantID:       bus.TenantID.String(),
		Title:          bus.Title,
		Content:        bus.Content,
		RelatedTo:      bus.RelatedTo.Kind.String(),
		RelatedToID:    relatedToID,
		OwnerID:        bus.OwnerID.String(),
		CreatedBy:      bus.CreatedBy.String(),
		LastModifiedBy: bus.LastModifiedBy.String(),
		IsActive:       bus.Active,
		CreatedAt:      bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppNotes(notes []notebus.Note) []Note {
	app := make([]Note, len(notes))
	for i, note := range notes {
		app[i] = toAppNote(note)
	}

	return app
}

// =============================================================================

// NewNote defines the data needed to add a new note.
type NewNote struct {
	TenantID    string `json:"tenantId" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	RelatedTo   string `json:"relatedTo"`
	RelatedToID string `json:"relatedToId"`
	OwnerID     string `json:"ownerId" validate:"omitempty,uuid"`
}

// Decode implements the web.Decoder interface.
func (app *NewNote) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewNote) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusNewNote(app NewNote, tenantID uuid.UUID, actorID uuid.UUID) (notebus.NewNote, error) {
	ref, err := relation.Parse(app.RelatedTo, app.RelatedToID)
	if err != nil {
		return notebus.NewNote{}, errs.NewFieldErrors("relatedTo", err)
	}

	var ownerID uuid.UUID
	if app.OwnerID != "" {
		ownerID = uuid.MustParse(app.OwnerID)
	}

	bus := notebus.NewNote{
		TenantID:  tenantID,
		Title:     app.Title,
		Content:   app.Content,
		RelatedTo: ref,
		OwnerID:   ownerID,
		CreatedBy: actorID,
	}

	return bus, nil
}

// =============================================================================

// UpdateNote defines the data needed to update a note.
type UpdateNote struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Content     *string `json:"content" validate:"omitempty,min=1"`
	RelatedTo   *string `json:"relatedTo"`
	RelatedToID *string `json:"relatedToId"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateNote) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateNote) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpdateNote(app UpdateNote) (notebus.UpdateNote, error) {
	bus := notebus.UpdateNote{
		Title:   app.Title,
		Content: app.Content,
	}

	if app.RelatedTo != nil || app.RelatedToID != nil {
		var kind, id string
		if app.RelatedTo != nil {
			kind = *app.RelatedTo
		}
		if app.RelatedToID != nil {
			id = *app.RelatedToID
		}

		ref, err := relation.Parse(kind, id)
		if err != nil {
			return notebus.UpdateNote{}, errs.NewFieldErrors("relatedTo", err)
		}
		bus.RelatedTo = &ref
	}

	return bus, nil
}
