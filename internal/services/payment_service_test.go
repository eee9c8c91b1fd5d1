package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

func setupInitiate(t *testing.T) (*fakeStore, *fakeGateway, *PaymentService) {
	t.Helper()
	store := newFakeStore()
	gateway := newFakeGateway()
	return store, gateway, NewPaymentService(store, gateway)
}

func TestInitiateHappyPath(t *testing.T) {
	store, gateway, svc := setupInitiate(t)
	student, fee := seedStudentAndFee(store)

	result, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		InstallmentNumber: 1,
		TotalInstallments: 2,
		CallbackURL:       "https://portal.example/payments/confirm",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Reference)
	assert.Equal(t, "https://checkout.example/abc", result.AuthorizationURL)
	assert.Equal(t, 1, gateway.initCalls)

	pending, err := store.GetPaymentByReference(result.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, pending.Status)
	assert.Equal(t, int64(70000), pending.Amount)
	assert.NotEmpty(t, pending.ReceiptNumber)
}

func TestInitiateRejectsDuplicateInstallment(t *testing.T) {
	store, gateway, svc := setupInitiate(t)
	student, fee := seedStudentAndFee(store)

	require.NoError(t, store.CreatePayment(&models.Payment{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		Reference:         "FPB-paid",
		ReceiptNumber:     "RCT-paid",
		Status:            models.PaymentStatusVerified,
		InstallmentNumber: 1,
	}))

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		InstallmentNumber: 1,
		TotalInstallments: 2,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindConflict, appErr.Kind)
	assert.Zero(t, gateway.initCalls)
	assert.Len(t, store.payments, 1, "no new pending row for a rejected request")
}

func TestInitiateInactiveFee(t *testing.T) {
	store, _, svc := setupInitiate(t)
	student, fee := seedStudentAndFee(store)
	fee.IsActive = false

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		InstallmentNumber: 1,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindNotFound, appErr.Kind)
}

func TestInitiateIneligibleStudent(t *testing.T) {
	store, _, svc := setupInitiate(t)
	_, fee := seedStudentAndFee(store)
	other := store.addStudent(&models.Student{
		MatricNumber: "FPB/2024/002",
		FullName:     "Bola Ade",
		Email:        "bola@example.com",
		School:       "Arts",
		Level:        "100",
	})

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         other.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		InstallmentNumber: 1,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindBusinessRule, appErr.Kind)
}

func TestInitiateInstallmentBeyondSplit(t *testing.T) {
	store, _, svc := setupInitiate(t)
	student, fee := seedStudentAndFee(store)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            10000,
		InstallmentNumber: 3,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestInitiateGatewayFailureCleansUpPendingRow(t *testing.T) {
	store, gateway, svc := setupInitiate(t)
	student, fee := seedStudentAndFee(store)
	gateway.initErr = ErrGatewayUnavailable

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		InstallmentNumber: 1,
		TotalInstallments: 2,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindUpstream, appErr.Kind)
	assert.Empty(t, store.payments, "pending row rolled back after gateway rejection")
}

func TestInitiateValidatesAmount(t *testing.T) {
	_, _, svc := setupInitiate(t)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		StudentID:         1,
		FeeID:             1,
		Amount:            0,
		InstallmentNumber: 1,
	})
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}
