// Package apitest provides support for exercising app layer routes through
// the full middleware chain.
package apitest

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
	"github.com/jcpaschoal/tenantcrm/foundation/keystore"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

const kid = "apitest"

// Test holds the pieces every app test needs.
type Test struct {
	Log        *logger.Logger
	Auth       *auth.Auth
	App        *web.App
	Activities *ActivityStore
}

// New constructs an app with the production middleware chain and an auth
// value that trusts tokens minted by NewUser. Active user checks are skipped.
func New(t *testing.T) *Test {
	t.Helper()
	return NewWithUsers(t, nil)
}

// NewWithUsers is New with an auth value backed by the user core, so login
// works and tokens of inactive users are refused.
func NewWithUsers(t *testing.T, userBus *userbus.Core) *Test {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	ks := keystore.New()
	if err := ks.Add(kid, string(pem.EncodeToMemory(&block))); err != nil {
		t.Fatalf("adding key: %s", err)
	}

	log := logger.New(io.Discard, logger.LevelError, "TEST", nil)

	a, err := auth.New(auth.Config{
		Log:       log,
		UserBus:   userBus,
		KeyLookup: ks,
		Issuer:    "apitest",
		ActiveKID: kid,
	})
	if err != nil {
		t.Fatalf("auth: %s", err)
	}

	app := web.NewApp(
		log.Info,
		nil,
		mid.Logger(log),
		mid.Errors(log),
		mid.Metrics(),
		mid.Panics(log),
	)

	return &Test{
		Log:        log,
		Auth:       a,
		App:        app,
		Activities: NewActivityStore(),
	}
}

// ActivityBus returns an activity core writing into the test's store.
func (at *Test) ActivityBus() *activitybus.Core {
	return activitybus.NewCore(at.Log, at.Activities)
}

// User describes an authenticated caller.
type User struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Role     role.Role
	Token    string
}

// NewUser mints a token for a new user with the role in the tenant. Use
// uuid.Nil as tenant for platform roles.
func (at *Test) NewUser(t *testing.T, r role.Role, tenantID uuid.UUID) User {
	t.Helper()

	usr := userbus.User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Role:     r,
		Active:   true,
	}

	token, err := at.Auth.GenerateToken(usr)
	if err != nil {
		t.Fatalf("token: %s", err)
	}

	return User{
		ID:       usr.ID,
		TenantID: tenantID,
		Role:     r,
		Token:    token,
	}
}

// Response is a decoded reply.
type Response struct {
	Status  int
	Success bool
	Message string
	Data    json.RawMessage
	Fields  map[string]string
}

// Do runs one request through the app. A nil body sends no payload.
func (at *Test) Do(t *testing.T, method string, path string, token string, body any) Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %s", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return at.Serve(t, req)
}

// Serve runs a prepared request through the app.
func (at *Test) Serve(t *testing.T, req *http.Request) Response {
	t.Helper()

	w := httptest.NewRecorder()
	at.App.ServeHTTP(w, req)

	resp := Response{Status: w.Code}
	if w.Body.Len() == 0 {
		return resp
	}

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    json.RawMessage   `json:"data"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response %q: %s", w.Body.String(), err)
	}

	resp.Success = body.Success
	resp.Message = body.Message
	resp.Data = body.Data
	resp.Fields = body.Fields

	return resp
}

// Decode unmarshals the data member of the response.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()

	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("unmarshal data %q: %s", string(r.Data), err)
	}
}

// Page is the pagination envelope used by list endpoints.
type Page[T any] struct {
	Items      []T `json:"items"`
	Pagination struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

// =============================================================================

// ActivityStore keeps activities in memory.
type ActivityStore struct {
	mu   sync.Mutex
	acts []activitybus.Activity
}

// NewActivityStore constructs an empty store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

// Create implements activitybus.Storer.
func (s *ActivityStore) Create(_ context.Context, act activitybus.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acts = append(s.acts, act)
	return nil
}

// Query implements activitybus.Storer.
func (s *ActivityStore) Query(_ context.Context, filter activitybus.QueryFilter, pg page.Page) ([]activitybus.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []activitybus.Activity
	for _, act := range s.acts {
		if filter.TenantID != nil && act.TenantID != *filter.TenantID {
			continue
		}
		if filter.EntityType != nil && act.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && act.EntityID != *filter.EntityID {
			continue
		}
		if filter.UserID != nil && act.UserID != *filter.UserID {
			continue
		}
		out = append(out, act)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	start := min(pg.Offset(), len(out))
	end := min(start+pg.RowsPerPage(), len(out))

	return out[start:end], nil
}

// Count implements activitybus.Storer.
func (s *ActivityStore) Count(ctx context.Context, filter activitybus.QueryFilter) (int, error) {
	acts, err := s.Query(ctx, filter, page.MustParse("1", "100"))
	return len(acts), err
}

// Events returns the recorded event names in order.
func (s *ActivityStore) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]string, len(s.acts))
	for i, act := range s.acts {
		events[i] = act.Event
	}
	return events
}
