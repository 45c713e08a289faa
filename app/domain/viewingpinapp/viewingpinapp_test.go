package viewingpinapp_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/viewingpinapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
	"github.com/jcpaschoal/tenantcrm/foundation/limiter"
)

type countLimiter struct {
	mu    sync.Mutex
	limit int
	hits  map[string]int
}

func (l *countLimiter) Allow(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	if l.hits[key] > l.limit {
		return 0, limiter.ErrLimitExceeded
	}
	return l.limit - l.hits[key], nil
}

func (l *countLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
	return nil
}

type fixture struct {
	at     *apitest.Test
	pins   *apitest.PinStore
	mailer *apitest.Mailer
	user   apitest.User
	other  apitest.User
}

func newFixture(t *testing.T, limit int) fixture {
	at := apitest.New(t)

	tenantID := uuid.New()
	user := at.NewUser(t, role.User, tenantID)
	other := at.NewUser(t, role.TenantAdmin, uuid.New())

	pins := apitest.NewPinStore(user, other)
	mailer := &apitest.Mailer{}

	viewingpinapp.Routes(at.App, viewingpinapp.Config{
		Log:      at.Log,
		Auth:     at.Auth,
		PinBus:   pinbus.NewCore(pins, mailer),
		AuditBus: auditbus.NewCore(apitest.NewAuditStore()),
		Limiter:  &countLimiter{limit: limit, hits: make(map[string]int)},
	})

	return fixture{
		at:     at,
		pins:   pins,
		mailer: mailer,
		user:   user,
		other:  other,
	}
}

func (f fixture) post(t *testing.T, path string, token string, body any) apitest.Response {
	t.Helper()
	return f.at.Do(t, http.MethodPost, "/v1/viewing-pin/"+path, token, body)
}

func TestSetAndVerify(t *testing.T) {
	f := newFixture(t, 10)
	tok := f.user.Token

	if resp := f.post(t, "verify", tok, map[string]string{"pin": "1234"}); resp.Status != http.StatusBadRequest {
		t.Errorf("verify before set: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	resp := f.post(t, "set", tok, map[string]string{"pin": "12AB"})
	if _, exists := resp.Fields["pin"]; resp.Status != http.StatusBadRequest || !exists {
		t.Errorf("non digit pin: got %d %v", resp.Status, resp.Fields)
	}

	if resp := f.post(t, "set", tok, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Fatalf("set: got %d: %s", resp.Status, resp.Message)
	}

	if resp := f.post(t, "set", tok, map[string]string{"pin": "4321"}); resp.Status != http.StatusBadRequest {
		t.Errorf("set twice: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	if resp := f.post(t, "verify", tok, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Errorf("verify: got %d: %s", resp.Status, resp.Message)
	}

	if resp := f.post(t, "verify", tok, map[string]string{"pin": "0000"}); resp.Status != http.StatusUnauthorized {
		t.Errorf("wrong pin: got %d want %d", resp.Status, http.StatusUnauthorized)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/viewing-pin/status", tok, nil)
	var st viewingpinapp.Status
	resp.Decode(t, &st)
	if !st.IsSet || st.OTPPending {
		t.Errorf("status: got %+v", st)
	}
}

func TestChange(t *testing.T) {
	f := newFixture(t, 10)
	tok := f.user.Token

	if resp := f.post(t, "set", tok, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Fatalf("set: got %d", resp.Status)
	}

	resp := f.post(t, "change", tok, map[string]string{"newPin": "5678"})
	if _, exists := resp.Fields["currentPin"]; resp.Status != http.StatusBadRequest || !exists {
		t.Errorf("missing current: got %d %v", resp.Status, resp.Fields)
	}

	if resp := f.post(t, "change", tok, map[string]string{"currentPin": "9999", "newPin": "5678"}); resp.Status != http.StatusUnauthorized {
		t.Errorf("wrong current: got %d want %d", resp.Status, http.StatusUnauthorized)
	}

	if resp := f.post(t, "change", tok, map[string]string{"currentPin": "1234", "newPin": "5678"}); resp.Status != http.StatusOK {
		t.Fatalf("change: got %d: %s", resp.Status, resp.Message)
	}

	if resp := f.post(t, "verify", tok, map[string]string{"pin": "5678"}); resp.Status != http.StatusOK {
		t.Errorf("verify new pin: got %d", resp.Status)
	}
}

func TestForgotAndReset(t *testing.T) {
	f := newFixture(t, 10)
	tok := f.user.Token

	if resp := f.post(t, "reset", tok, map[string]string{"otp": "123456", "newPin": "1111"}); resp.Status != http.StatusBadRequest {
		t.Errorf("reset without otp: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	if resp := f.post(t, "forgot", tok, nil); resp.Status != http.StatusOK {
		t.Fatalf("forgot: got %d: %s", resp.Status, resp.Message)
	}

	if f.mailer.Subject != pinbus.OTPSubject {
		t.Errorf("subject: got %q", f.mailer.Subject)
	}

	otp := f.mailer.OTP()
	if otp == "" {
		t.Fatalf("no otp in %q", f.mailer.Body)
	}

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}

	if resp := f.post(t, "reset", tok, map[string]string{"otp": wrong, "newPin": "1111"}); resp.Status != http.StatusUnauthorized {
		t.Errorf("wrong otp: got %d want %d", resp.Status, http.StatusUnauthorized)
	}

	if resp := f.post(t, "reset", tok, map[string]string{"otp": otp, "newPin": "1111"}); resp.Status != http.StatusOK {
		t.Fatalf("reset: got %d: %s", resp.Status, resp.Message)
	}

	if resp := f.post(t, "reset", tok, map[string]string{"otp": otp, "newPin": "2222"}); resp.Status != http.StatusBadRequest {
		t.Errorf("replay: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	if resp := f.post(t, "verify", tok, map[string]string{"pin": "1111"}); resp.Status != http.StatusOK {
		t.Errorf("verify reset pin: got %d", resp.Status)
	}
}

func TestExpiredOTP(t *testing.T) {
	f := newFixture(t, 10)
	tok := f.user.Token

	if resp := f.post(t, "forgot", tok, nil); resp.Status != http.StatusOK {
		t.Fatalf("forgot: got %d", resp.Status)
	}

	f.pins.Expire(f.user.ID)

	resp := f.post(t, "reset", tok, map[string]string{"otp": f.mailer.OTP(), "newPin": "1111"})
	if resp.Status != http.StatusBadRequest || resp.Message != pinbus.ErrOTPExpired.Error() {
		t.Errorf("expired: got %d %q", resp.Status, resp.Message)
	}
}

func TestAttemptLimit(t *testing.T) {
	f := newFixture(t, 2)

	if resp := f.post(t, "set", f.user.Token, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Fatalf("set: got %d", resp.Status)
	}

	for range 2 {
		if resp := f.post(t, "verify", f.user.Token, map[string]string{"pin": "0000"}); resp.Status != http.StatusUnauthorized {
			t.Fatalf("wrong pin: got %d", resp.Status)
		}
	}

	if resp := f.post(t, "verify", f.user.Token, map[string]string{"pin": "1234"}); resp.Status != http.StatusTooManyRequests {
		t.Errorf("over limit: got %d want %d", resp.Status, http.StatusTooManyRequests)
	}

	if resp := f.post(t, "set", f.other.Token, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Fatalf("other set: got %d", resp.Status)
	}
	if resp := f.post(t, "verify", f.other.Token, map[string]string{"pin": "0000"}); resp.Status != http.StatusUnauthorized {
		t.Fatalf("other wrong pin: got %d", resp.Status)
	}
	if resp := f.post(t, "verify", f.other.Token, map[string]string{"pin": "1234"}); resp.Status != http.StatusOK {
		t.Errorf("other user is limited separately: got %d", resp.Status)
	}

	// A correct PIN clears the failures, so two more wrong attempts still
	// fit inside the limit of 2.
	for range 2 {
		if resp := f.post(t, "verify", f.other.Token, map[string]string{"pin": "0000"}); resp.Status != http.StatusUnauthorized {
			t.Errorf("wrong pin after success: got %d want %d", resp.Status, http.StatusUnauthorized)
		}
	}
}

func TestAuditLog(t *testing.T) {
	f := newFixture(t, 10)

	resp := f.post(t, "log-access", f.user.Token, map[string]string{"resourceType": "Account", "resourceId": "acc-1"})
	if resp.Status != http.StatusCreated {
		t.Fatalf("log access: got %d: %s", resp.Status, resp.Message)
	}

	var aud viewingpinapp.Audit
	resp.Decode(t, &aud)
	if aud.Action != "viewed" || aud.UserID != f.user.ID.String() {
		t.Errorf("audit: got %+v", aud)
	}

	if resp := f.post(t, "log-access", f.user.Token, map[string]string{"resourceType": "Account"}); resp.Status != http.StatusBadRequest {
		t.Errorf("missing id: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	if resp := f.post(t, "log-access", f.other.Token, map[string]string{"resourceType": "Deal", "resourceId": "d-9", "action": "exported"}); resp.Status != http.StatusCreated {
		t.Fatalf("other log: got %d", resp.Status)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/viewing-pin/audit-logs", f.user.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("user role audit query: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/viewing-pin/audit-logs", f.other.Token, nil)
	var pg apitest.Page[viewingpinapp.Audit]
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 1 || pg.Items[0].ResourceType != "Deal" {
		t.Errorf("scoped audit: got %+v", pg)
	}
}
