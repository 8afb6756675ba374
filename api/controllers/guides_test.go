package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/canyonbook-backend/api/middleware"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGuideService struct {
	updated *enums.DepositKind
	amount  decimal.Decimal
}

func (s *stubGuideService) Get(_ context.Context, id uuid.UUID) (*guides.GuideDTO, error) {
	return &guides.GuideDTO{ID: id}, nil
}

func (s *stubGuideService) UpdateDepositPolicy(_ context.Context, id uuid.UUID, kind enums.DepositKind, amount decimal.Decimal) (*guides.GuideDTO, error) {
	s.updated = &kind
	s.amount = amount
	return &guides.GuideDTO{ID: id, DepositPolicy: guides.PolicyDTO{Kind: kind, Amount: amount.StringFixed(2)}}, nil
}

func TestUpdateGuideDepositPolicyOwnProfile(t *testing.T) {
	sess := guideSession()
	svc := &stubGuideService{}
	req := withSession(newRequest(http.MethodPut, "/", `{"kind":"percentage","amount":"30"}`), sess)
	req = withURLParams(req, "guideID", sess.GuideID.String())
	rec := httptest.NewRecorder()

	UpdateGuideDepositPolicy(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.updated)
	assert.Equal(t, enums.DepositKindPercentage, *svc.updated)
	assert.True(t, svc.amount.Equal(decimal.NewFromInt(30)))
}

func TestUpdateGuideDepositPolicyOtherGuideForbidden(t *testing.T) {
	svc := &stubGuideService{}
	req := withSession(newRequest(http.MethodPut, "/", `{"kind":"fixed","amount":"20"}`), guideSession())
	req = withURLParams(req, "guideID", uuid.NewString())
	rec := httptest.NewRecorder()

	UpdateGuideDepositPolicy(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, svc.updated)
}

func TestGetGuideAdminSeesAnyProfile(t *testing.T) {
	guideID := uuid.New()
	req := withSession(newRequest(http.MethodGet, "/", ""), middleware.AppSession{UserID: uuid.New(), Role: enums.RoleAdmin})
	req = withURLParams(req, "guideID", guideID.String())
	rec := httptest.NewRecorder()

	GetGuide(&stubGuideService{}, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto guides.GuideDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, guideID, dto.ID)
}
