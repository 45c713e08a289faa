// Package meetingbus provides business access to meeting domain.
package meetingbus

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/locationtype"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound           = errors.New("meeting not found")
	ErrDuplicateMeetingID = errors.New("meeting id already exists")
	ErrInvalidWindow      = errors.New("meeting must end after it starts")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, mtg Meeting) error
	Update(ctx context.Context, mtg Meeting) error
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Meeting, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByID(ctx context.Context, id uuid.UUID) (Meeting, error)
}

// Core manages the set of APIs for meeting access.
type Core struct {
	log         *logger.Logger
	relationBus *relationbus.Core
	storer      Storer
	linkBase    string
}

// NewCore constructs a meeting core API for use. Join links are built as
// linkBase/<meeting id>.
func NewCore(log *logger.Logger, relationBus *relationbus.Core, storer Storer, linkBase string) *Core {
	return &Core{
		log:         log,
		relationBus: relationBus,
		storer:      storer,
		linkBase:    strings.TrimRight(linkBase, "/"),
	}
}

// NewWithTx constructs a new core value that will use the
// specified transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, c.relationBus, storer, c.linkBase), nil
}

// Create adds a new meeting with a generated meeting id and join link.
func (c *Core) Create(ctx context.Context, nm NewMeeting) (Meeting, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.create")
	defer span.End()

	if !nm.To.After(nm.From) {
		return Meeting{}, ErrInvalidWindow
	}

	if err := c.relationBus.Validate(ctx, nm.TenantID, nm.RelatedTo); err != nil {
		return Meeting{}, err
	}

	now := time.Now()

	meetingID, err := NewMeetingID(now)
	if err != nil {
		return Meeting{}, fmt.Errorf("meeting id: %w", err)
	}

	status := nm.Status
	if status.String() == "" {
		status = meetingstatus.Scheduled
	}

	locType := nm.LocationType
	if locType.String() == "" {
		locType = locationtype.Online
	}

	owner := nm.OwnerID
	if owner == uuid.Nil {
		owner = nm.CreatedBy
	}

	mtg := Meeting{
		ID:             uuid.New(),
		TenantID:       nm.TenantID,
		MeetingID:      meetingID,
		MeetingLink:    c.linkBase + "/" + meetingID,
		Title:          nm.Title,
		Description:    nm.Description,
		Location:       nm.Location,
		LocationType:   locType,
		From:           nm.From,
		To:             nm.To,
		HostID:         nm.HostID,
		OwnerID:        owner,
		CreatedBy:      nm.CreatedBy,
		LastModifiedBy: nm.CreatedBy,
		RelatedTo:      nm.RelatedTo,
		Participants:   nm.Participants,
		Status:         status,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.storer.Create(ctx, mtg); err != nil {
		return Meeting{}, fmt.Errorf("create: %w", err)
	}

	return mtg, nil
}

// Update copies the allowed fields onto the meeting and stamps the editor.
func (c *Core) Update(ctx context.Context, mtg Meeting, um UpdateMeeting, actorID uuid.UUID) (Meeting, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.update")
	defer span.End()

	if um.Title != nil {
		mtg.Title = *um.Title
	}

	if um.Description != nil {
		mtg.Description = *um.Description
	}

	if um.Location != nil {
		mtg.Location = *um.Location
	}

	if um.LocationType != nil {
		mtg.LocationType = *um.LocationType
	}

	if um.From != nil {
		mtg.From = *um.From
	}

	if um.To != nil {
		mtg.To = *um.To
	}

	if um.HostID != nil {
		mtg.HostID = *um.HostID
	}

	if um.RelatedTo != nil {
		if err := c.relationBus.Validate(ctx, mtg.TenantID, *um.RelatedTo); err != nil {
			return Meeting{}, err
		}
		mtg.RelatedTo = *um.RelatedTo
	}

	if um.Participants != nil {
		mtg.Participants = um.Participants
	}

	if um.Status != nil {
		mtg.Status = *um.Status
	}

	if !mtg.To.After(mtg.From) {
		return Meeting{}, ErrInvalidWindow
	}

	mtg.LastModifiedBy = actorID
	mtg.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, mtg); err != nil {
		return Meeting{}, fmt.Errorf("update: %w", err)
	}

	return mtg, nil
}

// Delete flags the meeting inactive. The row is kept.
func (c *Core) Delete(ctx context.Context, mtg Meeting, actorID uuid.UUID) (Meeting, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.delete")
	defer span.End()

	mtg.Active = false
	mtg.LastModifiedBy = actorID
	mtg.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, mtg); err != nil {
		return Meeting{}, fmt.Errorf("update: %w", err)
	}

	return mtg, nil
}

// Query retrieves a list of existing meetings.
func (c *Core) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Meeting, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.query")
	defer span.End()

	mtgs, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return mtgs, nil
}

// Count returns the total number of meetings.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the meeting by the specified ID. Inactive meetings are
// reported as not found.
func (c *Core) QueryByID(ctx context.Context, id uuid.UUID) (Meeting, error) {
	ctx, span := otel.AddSpan(ctx, "business.meetingbus.querybyid")
	defer span.End()

	mtg, err := c.storer.QueryByID(ctx, id)
	if err != nil {
		return Meeting{}, fmt.Errorf("query: meetingID[%s]: %w", id, err)
	}

	if !mtg.Active {
		return Meeting{}, fmt.Errorf("query: meetingID[%s]: %w", id, ErrNotFound)
	}

	return mtg, nil
}

// =============================================================================

const (
	idSuffixLen = 9
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewMeetingID returns an identifier of the form crm-<unix millis>-<9
// random base36 characters>.
func NewMeetingID(now time.Time) (string, error) {
	b := make([]byte, idSuffixLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// 252 is the largest multiple of 36 below 256; rejecting bytes above it
	// keeps every character equally likely.
	suffix := make([]byte, 0, idSuffixLen)
	for len(suffix) < idSuffixLen {
		for _, v := range b {
			if v >= 252 {
				continue
			}
			suffix = append(suffix, base36[v%36])
			if len(suffix) == idSuffixLen {
				break
			}
		}

		if _, err := rand.Read(b); err != nil {
			return "", err
		}
	}

	return "crm-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix), nil
}
