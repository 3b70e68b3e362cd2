package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/pharmassoc/backend/internal/infrastructure/auth"
	"github.com/pharmassoc/backend/internal/interfaces/http/dto"
)

type paymentsHandlerFixture struct {
	dueRepo     *MockDueRepository
	paymentRepo *MockPaymentRepository
	storage     *fakeReceiptStorage
	handler     *PaymentsHandler
}

func newPaymentsHandlerFixture() *paymentsHandlerFixture {
	dueRepo := new(MockDueRepository)
	paymentRepo := new(MockPaymentRepository)
	storage := newFakeReceiptStorage()

	submission := duesapp.NewSubmissionService(dueRepo, paymentRepo, storage)
	review := duesapp.NewReviewService(
		&MockUnitOfWork{dueRepo: dueRepo, paymentRepo: paymentRepo},
		paymentRepo,
		dueRepo,
	)
	query := duesapp.NewQueryService(dueRepo, paymentRepo)

	return &paymentsHandlerFixture{
		dueRepo:     dueRepo,
		paymentRepo: paymentRepo,
		storage:     storage,
		handler:     NewPaymentsHandler(submission, review, query),
	}
}

func testPayment(dueID, pharmacyID uuid.UUID) *dues.Payment {
	payment, err := dues.NewPayment(
		dueID,
		pharmacyID,
		decimal.NewFromInt(200),
		dues.PaymentMethodBankTransfer,
		"TRX-123",
		uuid.New(),
	)
	if err != nil {
		panic(err)
	}
	payment.AttachReceipt("https://receipts.test/r/abc.pdf", "receipts/abc.pdf", dues.ReceiptStorageS3)
	return payment
}

// buildSubmitRequest assembles a multipart payment submission
func buildSubmitRequest(t *testing.T, dueID uuid.UUID, amount string, withReceipt bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	require.NoError(t, mw.WriteField("due_id", dueID.String()))
	require.NoError(t, mw.WriteField("amount", amount))
	require.NoError(t, mw.WriteField("payment_method", "BANK_TRANSFER"))
	require.NoError(t, mw.WriteField("payment_reference", "TRX-123"))

	if withReceipt {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="receipt"; filename="receipt.pdf"`}
		header["Content-Type"] = []string{"application/pdf"}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test receipt"))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPaymentsHandler_Submit(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	due := testDue(pharmacyID)

	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*dues.Payment")).Return(nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, buildSubmitRequest(t, due.ID, "200", true))

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PENDING", data["approval_status"])
	assert.NotEmpty(t, data["receipt_url"])
	assert.Len(t, f.storage.uploaded, 1)
}

func TestPaymentsHandler_Submit_MissingReceipt(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	due := testDue(pharmacyID)

	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, buildSubmitRequest(t, due.ID, "200", false))

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidReceipt, resp.Error.Code)
}

func TestPaymentsHandler_Submit_ExceedsBalance(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	due := testDue(pharmacyID)

	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, buildSubmitRequest(t, due.ID, "9999", true))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeExceedsBalance, resp.Error.Code)
}

func TestPaymentsHandler_Submit_ForbiddenForOtherPharmacy(t *testing.T) {
	f := newPaymentsHandlerFixture()
	due := testDue(uuid.New())
	otherPharmacyID := uuid.New()

	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &otherPharmacyID))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, buildSubmitRequest(t, due.ID, "200", true))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentsHandler_Approve(t *testing.T) {
	f := newPaymentsHandlerFixture()
	adminID := uuid.New()
	due := testDue(uuid.New())
	payment := testPayment(due.ID, due.PharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)
	f.paymentRepo.On("TransitionFromPending", mock.Anything, payment).Return(nil)
	f.dueRepo.On("SaveWithLock", mock.Anything, due).Return(nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleAdmin, adminID, nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/"+payment.ID.String()+"/approve", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "APPROVED", data["approval_status"])

	// The credit landed on the due
	assert.True(t, due.AmountPaid.Equal(payment.Amount))
}

func TestPaymentsHandler_Approve_AlreadyReviewed(t *testing.T) {
	f := newPaymentsHandlerFixture()
	due := testDue(uuid.New())
	payment := testPayment(due.ID, due.PharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.dueRepo.On("FindByID", mock.Anything, due.ID).Return(due, nil)
	// A concurrent reviewer won the conditional update
	f.paymentRepo.On("TransitionFromPending", mock.Anything, payment).Return(shared.ErrAlreadyReviewed)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleAdmin, uuid.New(), nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/"+payment.ID.String()+"/approve", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeAlreadyReviewed, resp.Error.Code)
}

func TestPaymentsHandler_Approve_RequiresAdmin(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/"+uuid.New().String()+"/approve", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentsHandler_Reject(t *testing.T) {
	f := newPaymentsHandlerFixture()
	due := testDue(uuid.New())
	payment := testPayment(due.ID, due.PharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.paymentRepo.On("TransitionFromPending", mock.Anything, payment).Return(nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleAdmin, uuid.New(), nil))

	body, _ := json.Marshal(gin.H{"reason": "receipt unreadable"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/"+payment.ID.String()+"/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "REJECTED", data["approval_status"])
	assert.Equal(t, "receipt unreadable", data["rejection_reason"])
}

func TestPaymentsHandler_Reject_MissingReason(t *testing.T) {
	f := newPaymentsHandlerFixture()

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleAdmin, uuid.New(), nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/"+uuid.New().String()+"/reject", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentsHandler_Get_MemberScope(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	payment := testPayment(uuid.New(), pharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

	t.Run("own payment", func(t *testing.T) {
		engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/"+payment.ID.String(), nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("other pharmacy's payment", func(t *testing.T) {
		otherPharmacyID := uuid.New()
		engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &otherPharmacyID))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/"+payment.ID.String(), nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPaymentsHandler_List_MemberScopedToOwnPharmacy(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	payment := testPayment(uuid.New(), pharmacyID)

	f.paymentRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(filter dues.PaymentFilter) bool {
		return filter.PharmacyID != nil && *filter.PharmacyID == pharmacyID
	})).Return([]dues.Payment{*payment}, nil)
	f.paymentRepo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.paymentRepo.AssertExpectations(t)
}

func TestPaymentsHandler_ReceiptURL(t *testing.T) {
	f := newPaymentsHandlerFixture()
	pharmacyID := uuid.New()
	payment := testPayment(uuid.New(), pharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleMember, uuid.New(), &pharmacyID))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/"+payment.ID.String()+"/receipt", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Contains(t, data["url"], "signed=1")
}

func TestPaymentsHandler_Delete(t *testing.T) {
	f := newPaymentsHandlerFixture()
	due := testDue(uuid.New())
	payment := testPayment(due.ID, due.PharmacyID)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.paymentRepo.On("Delete", mock.Anything, payment.ID).Return(nil)

	engine := newTestEngine(f.handler.RegisterRoutes, authInjector(auth.RoleAdmin, uuid.New(), nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/api/v1/payments/"+payment.ID.String(), nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}
