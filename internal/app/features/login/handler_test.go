package login

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/app/features/errors"
	invitestore "github.com/dalemusser/circlehub/internal/app/store/invites"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	db := testutil.SetupTestDB(t)
	sm, err := auth.NewSessionManager("", "circlehub_test_session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	h := NewHandler(db, errors.NewErrorLogger(zap.NewNop()), sm, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func activateRequest(token string) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"token": token})
	req := httptest.NewRequest("POST", "/login/activate", &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleActivate_ValidToken(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	ward := fx.CreateWard(ctx, "First Ward", stake.ID)
	member := fx.CreateMember(ctx, "Alice Young", "alice@test.com", stake.ID, ward.ID)

	inv, err := invitestore.New(fx.DB()).Create(ctx, models.Invite{
		StakeID:   stake.ID,
		WardID:    ward.ID,
		MemberID:  member.ID,
		Email:     member.Email,
		Token:     "test-token-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleActivate(rec, activateRequest(inv.Token))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user auth.SessionUser
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if user.Role != auth.RoleMember || user.ID != member.ID.Hex() {
		t.Errorf("unexpected session user %+v", user)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	// Activation flips the flag and consumes the token.
	got, err := h.Members.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if !got.HasLoggedIn {
		t.Error("expected has_logged_in set")
	}
	if _, err := h.Invites.GetByToken(ctx, inv.Token); err != invitestore.ErrNotFound {
		t.Errorf("expected token consumed, got %v", err)
	}
}

func TestHandleActivate_ExpiredToken(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	ward := fx.CreateWard(ctx, "First Ward", stake.ID)
	member := fx.CreateMember(ctx, "Alice Young", "alice@test.com", stake.ID, ward.ID)

	_, err := invitestore.New(fx.DB()).Create(ctx, models.Invite{
		StakeID:   stake.ID,
		WardID:    ward.ID,
		MemberID:  member.ID,
		Email:     member.Email,
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleActivate(rec, activateRequest("expired-token"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for expired token, got %d", rec.Code)
	}
}

func TestHandleActivate_UnknownToken(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleActivate(rec, activateRequest("no-such-token"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown token, got %d", rec.Code)
	}
}
