package pinbus_test

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/types/pin"
)

type memStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]pinbus.State
}

func newMemStore(userIDs ...uuid.UUID) *memStore {
	s := memStore{states: make(map[uuid.UUID]pinbus.State)}
	for _, id := range userIDs {
		s.states[id] = pinbus.State{UserID: id, Email: mail.Address{Address: id.String() + "@example.com"}}
	}
	return &s
}

func (s *memStore) QueryByID(_ context.Context, userID uuid.UUID) (pinbus.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return pinbus.State{}, pinbus.ErrNotFound
	}
	return st, nil
}

func (s *memStore) SetPin(_ context.Context, userID uuid.UUID, hash []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.PinHash = hash
	st.PinSet = true
	s.states[userID] = st
	return nil
}

func (s *memStore) SetOTP(_ context.Context, userID uuid.UUID, otpHash string, expiresAt time.Time, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.OTPHash = otpHash
	st.OTPExpiresAt = expiresAt
	s.states[userID] = st
	return nil
}

func (s *memStore) ResetPin(_ context.Context, userID uuid.UUID, hash []byte, otpHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	if st.OTPHash != otpHash {
		return false, nil
	}
	st.PinHash = hash
	st.PinSet = true
	st.OTPHash = ""
	st.OTPExpiresAt = time.Time{}
	s.states[userID] = st
	return true, nil
}

func (s *memStore) expire(userID uuid.UUID, by time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.OTPExpiresAt = st.OTPExpiresAt.Add(-by)
	s.states[userID] = st
}

type captureMailer struct {
	to, subject, body string
}

func (m *captureMailer) Send(_ context.Context, to string, subject string, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

var otpInBody = regexp.MustCompile(`\b[0-9]{6}\b`)

func (m *captureMailer) otp(t *testing.T) string {
	t.Helper()
	code := otpInBody.FindString(m.body)
	if code == "" {
		t.Fatalf("no otp in body %q", m.body)
	}
	return code
}

// =============================================================================

func TestSetAndVerify(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	core := pinbus.NewCore(newMemStore(userID), &captureMailer{})

	if _, err := pin.Parse("12AB"); !errors.Is(err, pin.ErrInvalidFormat) {
		t.Fatalf("12AB: got %v", err)
	}

	if err := core.Verify(ctx, userID, pin.MustParse("1234")); !errors.Is(err, pinbus.ErrPinNotSet) {
		t.Errorf("verify before set: got %v", err)
	}

	if err := core.Set(ctx, userID, pin.MustParse("1234")); err != nil {
		t.Fatalf("set: %s", err)
	}

	if err := core.Verify(ctx, userID, pin.MustParse("1234")); err != nil {
		t.Errorf("verify 1234: %s", err)
	}

	if err := core.Verify(ctx, userID, pin.MustParse("0000")); !errors.Is(err, pinbus.ErrInvalidPin) {
		t.Errorf("verify 0000: got %v", err)
	}

	if err := core.Set(ctx, userID, pin.MustParse("5555")); !errors.Is(err, pinbus.ErrPinAlreadySet) {
		t.Errorf("second set: got %v", err)
	}
}

func TestChange(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	core := pinbus.NewCore(newMemStore(userID), &captureMailer{})

	// No PIN yet: change behaves like set.
	if err := core.Change(ctx, userID, nil, pin.MustParse("1111")); err != nil {
		t.Fatalf("first change: %s", err)
	}

	if err := core.Change(ctx, userID, nil, pin.MustParse("2222")); !errors.Is(err, pinbus.ErrCurrentPinRequired) {
		t.Errorf("missing current: got %v", err)
	}

	wrong := pin.MustParse("9999")
	if err := core.Change(ctx, userID, &wrong, pin.MustParse("2222")); !errors.Is(err, pinbus.ErrInvalidPin) {
		t.Errorf("wrong current: got %v", err)
	}

	current := pin.MustParse("1111")
	if err := core.Change(ctx, userID, &current, pin.MustParse("2222")); err != nil {
		t.Fatalf("change: %s", err)
	}

	if err := core.Verify(ctx, userID, pin.MustParse("2222")); err != nil {
		t.Errorf("verify new pin: %s", err)
	}
}

func TestForgotAndResetSingleUse(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	mailer := &captureMailer{}
	core := pinbus.NewCore(newMemStore(userID), mailer)

	if err := core.Set(ctx, userID, pin.MustParse("1234")); err != nil {
		t.Fatalf("set: %s", err)
	}

	if err := core.Reset(ctx, userID, "123456", pin.MustParse("4321")); !errors.Is(err, pinbus.ErrNoOTP) {
		t.Errorf("reset without otp: got %v", err)
	}

	if err := core.Forgot(ctx, userID); err != nil {
		t.Fatalf("forgot: %s", err)
	}

	if mailer.subject != pinbus.OTPSubject {
		t.Errorf("subject: got %q", mailer.subject)
	}
	if mailer.to != userID.String()+"@example.com" {
		t.Errorf("to: got %q", mailer.to)
	}

	status, err := core.Status(ctx, userID)
	if err != nil {
		t.Fatalf("status: %s", err)
	}
	if !status.IsSet || !status.OTPPending {
		t.Errorf("status: got %+v", status)
	}

	code := mailer.otp(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := core.Reset(ctx, userID, wrong, pin.MustParse("4321")); !errors.Is(err, pinbus.ErrInvalidOTP) {
		t.Errorf("wrong otp: got %v", err)
	}

	if err := core.Reset(ctx, userID, code, pin.MustParse("4321")); err != nil {
		t.Fatalf("reset: %s", err)
	}

	if err := core.Verify(ctx, userID, pin.MustParse("4321")); err != nil {
		t.Errorf("verify reset pin: %s", err)
	}

	if err := core.Reset(ctx, userID, code, pin.MustParse("8888")); !errors.Is(err, pinbus.ErrNoOTP) {
		t.Errorf("replay: got %v", err)
	}
}

func TestResetExpired(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newMemStore(userID)
	mailer := &captureMailer{}
	core := pinbus.NewCore(store, mailer)

	if err := core.Forgot(ctx, userID); err != nil {
		t.Fatalf("forgot: %s", err)
	}

	store.expire(userID, pinbus.OTPTTL+time.Second)

	err := core.Reset(ctx, userID, mailer.otp(t), pin.MustParse("4321"))
	if !errors.Is(err, pinbus.ErrOTPExpired) {
		t.Fatalf("expired: got %v", err)
	}
	if errors.Is(err, pinbus.ErrInvalidOTP) {
		t.Error("expired must be distinct from invalid")
	}

	status, err := core.Status(ctx, userID)
	if err != nil {
		t.Fatalf("status: %s", err)
	}
	if status.OTPPending {
		t.Error("expired otp reported as pending")
	}
}
