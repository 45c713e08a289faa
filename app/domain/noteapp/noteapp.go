// Package noteapp maintains the app layer api for the note domain.
package noteapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

type app struct {
	noteBus     *notebus.Core
	activityBus *activitybus.Core
}

func newApp(noteBus *notebus.Core, activityBus *activitybus.Core) *app {
	return &app{
		noteBus:     noteBus,
		activityBus: activityBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewNote
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	var requested uuid.UUID
	if app.TenantID != "" {
		requested = uuid.MustParse(app.TenantID)
	}

	tenantID, err := actor.ResolveTenant(requested)
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantRequired) {
			return errs.NewFieldErrors("tenantId", err)
		}
		return errs.New(errs.PermissionDenied, err)
	}

	nn, err := toBusNewNote(app, tenantID, actor.UserID)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	note, err := a.noteBus.Create(ctx, nn)
	if err != nil {
		if isRelationErr(err) {
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.Internal, "create: %s", err)
	}

	a.record(ctx, actor, note, activitybus.EventCreated)

	return response.Created("Note created successfully", toAppNote(note))
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateNote
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	un, err := toBusUpdateNote(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, note, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	note, err = a.noteBus.Update(ctx, note, un, actor.UserID)
	if err != nil {
		if isRelationErr(err) {
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.Internal, "update: noteID[%s]: %s", note.ID, err)
	}

	a.record(ctx, actor, note, activitybus.EventUpdated)

	return response.OK("Note updated successfully", toAppNote(note))
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	actor, note, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	note, err := a.noteBus.Delete(ctx, note, actor.UserID)
	if err != nil {
		return errs.Errorf(errs.Internal, "delete: noteID[%s]: %s", note.ID, err)
	}

	a.record(ctx, actor, note, activitybus.EventDeleted)

	return response.OK("Note deleted successfully", nil)
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Limit)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	filter, appErr := parseFilter(qp, actor)
	if appErr != nil {
		return appErr
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, notebus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	notes, err := a.noteBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.noteBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppNotes(notes), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	_, note, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	return response.OK("OK", toAppNote(note))
}

func (a *app) load(ctx context.Context, r *http.Request) (tenancy.Actor, notebus.Note, *errs.Error) {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return tenancy.Actor{}, notebus.Note{}, errs.New(errs.Unauthenticated, err)
	}

	id, err := uuid.Parse(web.Param(r, "note_id"))
	if err != nil {
		return tenancy.Actor{}, notebus.Note{}, errs.NewFieldErrors("note_id", err)
	}

	note, err := a.noteBus.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, notebus.ErrNotFound) {
			return tenancy.Actor{}, notebus.Note{}, errs.New(errs.NotFound, notebus.ErrNotFound)
		}
		return tenancy.Actor{}, notebus.Note{}, errs.Errorf(errs.Internal, "querybyid: noteID[%s]: %s", id, err)
	}

	if err := actor.CheckTenant(note.TenantID); err != nil {
		return tenancy.Actor{}, notebus.Note{}, errs.New(errs.PermissionDenied, err)
	}

	return actor, note, nil
}

func (a *app) record(ctx context.Context, actor tenancy.Actor, note notebus.Note, event string) {
	a.activityBus.Record(ctx, activitybus.NewActivity{
		Event:      activitybus.EventName("note", event),
		EntityType: "note",
		EntityID:   note.ID.String(),
		TenantID:   note.TenantID,
		UserID:     actor.UserID,
		Metadata:   map[string]any{"title": note.Title},
	})
}

func isRelationErr(err error) bool {
	return errors.Is(err, relationbus.ErrUnknownKind) || errors.Is(err, relationbus.ErrTargetNotFound)
}
