package wards

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, errors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func jsonRequest(method, target string, body any, user testutil.TestUser) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_AndList(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	admin := testutil.StakeAdminUser(stake.ID)

	req := jsonRequest("POST", "/wards", map[string]string{"name": "New Ward"}, admin)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Ward
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if created.Name != "New Ward" || created.StakeID != stake.ID {
		t.Errorf("unexpected ward %+v", created)
	}

	req = jsonRequest("GET", "/wards", nil, admin)
	rec = httptest.NewRecorder()
	h.ServeList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Wards []models.Ward `json:"wards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list response: %v", err)
	}
	if len(list.Wards) != 1 {
		t.Errorf("expected 1 ward, got %d", len(list.Wards))
	}
}

func TestHandleDelete_RefusedWhileWardHasMembers(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	ward := fx.CreateWard(ctx, "First Ward", stake.ID)
	fx.CreateMember(ctx, "Alice Young", "alice@test.com", stake.ID, ward.ID)
	admin := testutil.StakeAdminUser(stake.ID)

	req := jsonRequest("POST", "/wards/"+ward.ID.Hex()+"/delete", nil, admin)
	req = testutil.WithChiURLParam(req, "wardID", ward.ID.Hex())
	rec := httptest.NewRecorder()

	h.HandleDelete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while ward has members, got %d", rec.Code)
	}
}

func TestHandleDelete_EmptyWard(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	ward := fx.CreateWard(ctx, "Empty Ward", stake.ID)
	admin := testutil.StakeAdminUser(stake.ID)

	req := jsonRequest("POST", "/wards/"+ward.ID.Hex()+"/delete", nil, admin)
	req = testutil.WithChiURLParam(req, "wardID", ward.ID.Hex())
	rec := httptest.NewRecorder()

	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for empty ward delete, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWardAdmin_CannotManageWards(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stake := fx.CreateStake(ctx, "Test Stake")
	ward := fx.CreateWard(ctx, "First Ward", stake.ID)

	req := jsonRequest("GET", "/wards", nil, testutil.WardAdminUser(stake.ID, ward.ID))
	rec := httptest.NewRecorder()

	h.ServeList(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for ward admin, got %d", rec.Code)
	}
}
