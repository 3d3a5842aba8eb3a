package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/internal/ledger"
	"github.com/angelmondragon/boost-backend/internal/merchants"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/internal/tokens"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

type stubMerchantService struct {
	merchants.Service
	created    merchants.CreateInput
	listInput  merchants.ListInput
	deleteErr  error
	deleteResp *merchants.DeleteResult
}

func (s *stubMerchantService) Create(ctx context.Context, caller auth.Caller, input merchants.CreateInput) (*merchants.MerchantDTO, error) {
	s.created = input
	return &merchants.MerchantDTO{ID: uuid.New(), Name: input.Name, Status: enums.MerchantStatusActive}, nil
}

func (s *stubMerchantService) List(ctx context.Context, caller auth.Caller, input merchants.ListInput) (*merchants.ListResult, error) {
	s.listInput = input
	return &merchants.ListResult{Merchants: []merchants.MerchantDTO{}, Limit: input.Limit, Offset: input.Offset}, nil
}

func (s *stubMerchantService) Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*merchants.DeleteResult, error) {
	return s.deleteResp, s.deleteErr
}

func TestMerchantCreateRequiresCaller(t *testing.T) {
	svc := &stubMerchantService{}
	rec := httptest.NewRecorder()
	MerchantCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/merchants", `{"name":"Cafe"}`, nil, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if svc.created.Name != "" {
		t.Fatalf("service should not be called without a caller")
	}
}

func TestMerchantCreateReturnsCreated(t *testing.T) {
	svc := &stubMerchantService{}
	caller := ownerCaller()
	body := `{"name":"Cafe Uno","email":"hi@cafe.test","locations":["Main St"]}`
	rec := httptest.NewRecorder()
	MerchantCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/merchants", body, &caller, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Name != "Cafe Uno" || svc.created.ContactEmail != "hi@cafe.test" {
		t.Fatalf("unexpected input %+v", svc.created)
	}
	if len(svc.created.Locations) != 1 || svc.created.Locations[0] != "Main St" {
		t.Fatalf("unexpected locations %v", svc.created.Locations)
	}
}

func TestMerchantCreateRejectsMissingName(t *testing.T) {
	svc := &stubMerchantService{}
	caller := ownerCaller()
	rec := httptest.NewRecorder()
	MerchantCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/merchants", `{"email":"hi@cafe.test"}`, &caller, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", env.Error.Code)
	}
	if _, ok := env.Error.Details["name"]; !ok {
		t.Fatalf("expected name in details, got %v", env.Error.Details)
	}
}

func TestMerchantListParsesFilters(t *testing.T) {
	svc := &stubMerchantService{}
	caller := ownerCaller()
	rec := httptest.NewRecorder()
	MerchantList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/merchants?include_deleted=true&limit=10&offset=20", "", &caller, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.listInput.IncludeDeleted || svc.listInput.Limit != 10 || svc.listInput.Offset != 20 {
		t.Fatalf("unexpected list input %+v", svc.listInput)
	}
}

func TestMerchantListRejectsLimitOutOfRange(t *testing.T) {
	caller := ownerCaller()
	rec := httptest.NewRecorder()
	MerchantList(&stubMerchantService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/merchants?limit=500", "", &caller, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMerchantDeleteInvalidID(t *testing.T) {
	caller := ownerCaller()
	rec := httptest.NewRecorder()
	MerchantDelete(&stubMerchantService{}, nil).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/v1/admin/merchants/nope", "", &caller, map[string]string{"merchantId": "nope"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMerchantDeleteForbidden(t *testing.T) {
	merchantID := uuid.New()
	caller := staffCaller(merchantID)
	svc := &stubMerchantService{deleteErr: pkgerrors.New(pkgerrors.CodeForbidden, "Owner access required")}
	rec := httptest.NewRecorder()
	MerchantDelete(svc, nil).ServeHTTP(rec, newRequest(http.MethodDelete, "/", "", &caller, map[string]string{"merchantId": merchantID.String()}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Message != "Owner access required" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

type stubOfferService struct {
	offers.Service
	created  *offers.CreateInput
	updated  *offers.UpdateInput
	listSeen offers.ListInput
}

func (s *stubOfferService) Create(ctx context.Context, caller auth.Caller, input offers.CreateInput) (*offers.OfferDTO, error) {
	s.created = &input
	return &offers.OfferDTO{ID: uuid.New(), MerchantID: input.MerchantID, Name: input.Name, ValuePerRedemption: input.ValuePerRedemption}, nil
}

func (s *stubOfferService) Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input offers.UpdateInput) (*offers.OfferDTO, error) {
	s.updated = &input
	return &offers.OfferDTO{ID: id}, nil
}

func (s *stubOfferService) List(ctx context.Context, caller auth.Caller, input offers.ListInput) (*offers.ListResult, error) {
	s.listSeen = input
	return &offers.ListResult{Offers: []offers.OfferDTO{}}, nil
}

func TestOfferCreateDecodesDecimal(t *testing.T) {
	merchantID := uuid.New()
	caller := ownerCaller()
	svc := &stubOfferService{}
	body := `{"merchant_id":"` + merchantID.String() + `","name":"Latte","discount_text":"10% off","cap_daily":25,"value_per_redemption":"2.50"}`
	rec := httptest.NewRecorder()
	OfferCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/offers", body, &caller, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created == nil {
		t.Fatalf("expected service call")
	}
	if !svc.created.ValuePerRedemption.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected value %s", svc.created.ValuePerRedemption)
	}
	if svc.created.MerchantID != merchantID || svc.created.CapDaily != 25 {
		t.Fatalf("unexpected input %+v", svc.created)
	}
}

func TestOfferCreateRequiresValuePerRedemption(t *testing.T) {
	caller := ownerCaller()
	svc := &stubOfferService{}
	body := `{"merchant_id":"` + uuid.NewString() + `","name":"Latte","discount_text":"10% off"}`
	rec := httptest.NewRecorder()
	OfferCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/offers", body, &caller, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.created != nil {
		t.Fatalf("service should not be called")
	}
}

func TestOfferUpdateParsesStatus(t *testing.T) {
	offerID := uuid.New()
	caller := ownerCaller()
	svc := &stubOfferService{}
	rec := httptest.NewRecorder()
	OfferUpdate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"status":"paused"}`, &caller, map[string]string{"offerId": offerID.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updated == nil || svc.updated.Status == nil || *svc.updated.Status != enums.OfferStatusPaused {
		t.Fatalf("expected paused status, got %+v", svc.updated)
	}
	if svc.updated.Name != nil {
		t.Fatalf("absent fields must stay nil")
	}
}

func TestOfferUpdateRejectsUnknownStatus(t *testing.T) {
	caller := ownerCaller()
	svc := &stubOfferService{}
	rec := httptest.NewRecorder()
	OfferUpdate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"status":"archived"}`, &caller, map[string]string{"offerId": uuid.NewString()}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.updated != nil {
		t.Fatalf("service should not be called")
	}
}

func TestOfferListStatusFilter(t *testing.T) {
	merchantID := uuid.New()
	caller := ownerCaller()
	svc := &stubOfferService{}
	rec := httptest.NewRecorder()
	OfferList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/offers?status=active&merchant_id="+merchantID.String(), "", &caller, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listSeen.Status == nil || *svc.listSeen.Status != enums.OfferStatusActive {
		t.Fatalf("expected active filter")
	}
	if svc.listSeen.MerchantID == nil || *svc.listSeen.MerchantID != merchantID {
		t.Fatalf("expected merchant filter")
	}
	if svc.listSeen.Limit != defaultPageLimit {
		t.Fatalf("expected default limit got %d", svc.listSeen.Limit)
	}
}

type stubTokenAdmin struct {
	generated *tokens.GenerateInput
	png       []byte
	err       error
}

func (s *stubTokenAdmin) Generate(ctx context.Context, caller auth.Caller, offerID uuid.UUID, input tokens.GenerateInput) (*tokens.GenerateResult, error) {
	s.generated = &input
	return &tokens.GenerateResult{OfferID: offerID, Count: 1, Tokens: []tokens.TokenDTO{{ID: uuid.New(), OfferID: offerID}}}, nil
}

func (s *stubTokenAdmin) List(ctx context.Context, caller auth.Caller, offerID uuid.UUID, status *enums.TokenStatus, limit int) (*tokens.ListResult, error) {
	return &tokens.ListResult{OfferID: offerID}, nil
}

func (s *stubTokenAdmin) QR(ctx context.Context, caller auth.Caller, tokenID uuid.UUID) ([]byte, error) {
	return s.png, s.err
}

func TestTokenGenerateAcceptsEmptyBody(t *testing.T) {
	caller := ownerCaller()
	svc := &stubTokenAdmin{}
	req := newRequest(http.MethodPost, "/", "", &caller, map[string]string{"offerId": uuid.NewString()})
	rec := httptest.NewRecorder()
	TokenGenerate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.generated == nil || svc.generated.ExpiresDays != 0 {
		t.Fatalf("expected default expiry, got %+v", svc.generated)
	}
}

func TestTokenGenerateRejectsLongExpiry(t *testing.T) {
	caller := ownerCaller()
	svc := &stubTokenAdmin{}
	req := newRequest(http.MethodPost, "/", `{"expires_days":400}`, &caller, map[string]string{"offerId": uuid.NewString()})
	rec := httptest.NewRecorder()
	TokenGenerate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.generated != nil {
		t.Fatalf("service should not be called")
	}
}

func TestTokenQRWritesPNG(t *testing.T) {
	tokenID := uuid.New()
	caller := ownerCaller()
	svc := &stubTokenAdmin{png: []byte{0x89, 'P', 'N', 'G'}}
	rec := httptest.NewRecorder()
	TokenQR(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/", "", &caller, map[string]string{"tokenId": tokenID.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), tokenID.String()) {
		t.Fatalf("expected token id in filename")
	}
	if rec.Body.Len() != 4 {
		t.Fatalf("unexpected body length %d", rec.Body.Len())
	}
}

type stubLedgerService struct {
	rows      []ledger.ExportRow
	summaryID *uuid.UUID
}

func (s *stubLedgerService) Summary(ctx context.Context, caller auth.Caller, merchantID *uuid.UUID) (*ledger.Summary, error) {
	s.summaryID = merchantID
	return &ledger.Summary{TotalOwed: decimal.Zero, Entries: []ledger.EntryDTO{}}, nil
}

func (s *stubLedgerService) Export(ctx context.Context, caller auth.Caller, merchantID uuid.UUID) ([]ledger.ExportRow, error) {
	return s.rows, nil
}

func TestLedgerExportRequiresMerchant(t *testing.T) {
	caller := ownerCaller()
	rec := httptest.NewRecorder()
	LedgerExport(&stubLedgerService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/ledger/export.csv", "", &caller, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestLedgerExportWritesCSV(t *testing.T) {
	merchantID := uuid.New()
	redemptionID := uuid.New()
	name := "Latte"
	caller := ownerCaller()
	svc := &stubLedgerService{rows: []ledger.ExportRow{{
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		OfferName:    &name,
		RedemptionID: redemptionID,
		Amount:       decimal.RequireFromString("2.5"),
	}}}
	rec := httptest.NewRecorder()
	LedgerExport(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/ledger/export.csv?merchant_id="+merchantID.String(), "", &caller, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), ledger.ExportFilename(merchantID)) {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", rec.Body.String())
	}
	want := "2026-01-02 03:04:05,Latte," + redemptionID.String() + ",2.50,"
	if lines[1] != want {
		t.Fatalf("unexpected row %q want %q", lines[1], want)
	}
}

func TestLedgerSummaryPassesOptionalMerchant(t *testing.T) {
	merchantID := uuid.New()
	caller := staffCaller(merchantID)
	svc := &stubLedgerService{}
	rec := httptest.NewRecorder()
	LedgerSummary(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/ledger", "", &caller, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.summaryID != nil {
		t.Fatalf("expected nil merchant filter")
	}
}
