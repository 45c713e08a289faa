// Package notebus provides business access to note domain.
package notebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// ErrNotFound is returned for missing or deleted notes.
var ErrNotFound = errors.New("note not found")

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, note Note) error
	Update(ctx context.Context, note Note) error
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Note, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByID(ctx context.Context, id uuid.UUID) (Note, error)
}

// Core manages the set of APIs for note access.
type Core struct {
	log         *logger.Logger
	relationBus *relationbus.Core
	storer      Storer
}

// NewCore constructs a note core API for use.
func NewCore(log *logger.Logger, relationBus *relationbus.Core, storer Storer) *Core {
	return &Core{
		log:         log,
		relationBus: relationBus,
		storer:      storer,
	}
}

// NewWithTx constructs a new core value that will use the
// specified transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, c.relationBus, storer), nil
}

// Create adds a new note to the system.
func (c *Core) Create(ctx context.Context, nn NewNote) (Note, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.create")
	defer span.End()

	if err := c.relationBus.Validate(ctx, nn.TenantID, nn.RelatedTo); err != nil {
		return Note{}, err
	}

	owner := nn.OwnerID
	if owner == uuid.Nil {
		owner = nn.CreatedBy
	}

	now := time.Now()

	note := Note{
		ID:             uuid.New(),
		TenantID:       nn.TenantID,
		Title:          nn.Title,
		Content:        nn.Content,
		RelatedTo:      nn.RelatedTo,
		OwnerID:        owner,
		CreatedBy:      nn.CreatedBy,
		LastModifiedBy: nn.CreatedBy,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.storer.Create(ctx, note); err != nil {
		return Note{}, fmt.Errorf("create: %w", err)
	}

	return note, nil
}

// Update modifies information about a note.
func (c *Core) Update(ctx context.Context, note Note, un UpdateNote, actorID uuid.UUID) (Note, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.update")
	defer span.End()

	if un.Title != nil {
		note.Title = *un.Title
	}

	if un.Content != nil {
		note.Content = *un.Content
	}

	if un.RelatedTo != nil {
		if err := c.relationBus.Validate(ctx, note.TenantID, *un.RelatedTo); err != nil {
			return Note{}, err
		}
		note.RelatedTo = *un.RelatedTo
	}

	note.LastModifiedBy = actorID
	note.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, note); err != nil {
		return Note{}, fmt.Errorf("update: %w", err)
	}

	return note, nil
}

// Delete flags the note inactive.
func (c *Core) Delete(ctx context.Context, note Note, actorID uuid.UUID) (Note, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.delete")
	defer span.End()

	note.Active = false
	note.LastModifiedBy = actorID
	note.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, note); err != nil {
		return Note{}, fmt.Errorf("update: %w", err)
	}

	return note, nil
}

// Query retrieves a list of existing notes.
func (c *Core) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Note, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.query")
	defer span.End()

	notes, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return notes, nil
}

// Count returns the total number of notes.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByID finds an active note by the specified ID.
func (c *Core) QueryByID(ctx context.Context, id uuid.UUID) (Note, error) {
	ctx, span := otel.AddSpan(ctx, "business.notebus.querybyid")
	defer span.End()

	note, err := c.storer.QueryByID(ctx, id)
	if err != nil {
		return Note{}, fmt.Errorf("query: noteID[%s]: %w", id, err)
	}

	if !note.Active {
		return Note{}, fmt.Errorf("query: noteID[%s]: %w", id, ErrNotFound)
	}

	return note, nil
}
