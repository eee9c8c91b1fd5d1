package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

func setupReconcile(t *testing.T) (*fakeStore, *fakeGateway, *ReconcileService) {
	t.Helper()
	store := newFakeStore()
	gateway := newFakeGateway()
	receipts := NewReceiptService(store)
	reconcile := NewReconcileService(store, gateway, nil, receipts)
	return store, gateway, reconcile
}

func seedStudentAndFee(store *fakeStore) (*models.Student, *models.Fee) {
	student := store.addStudent(&models.Student{
		MatricNumber: "FPB/2024/001",
		FullName:     "Adaeze Obi",
		Email:        "adaeze@example.com",
		School:       "Science",
		Level:        "200",
	})
	fee := store.addFee(&models.Fee{
		Name:                "School Fees",
		TotalAmount:         100000,
		AcademicSession:     "2025/2026",
		IsActive:            true,
		AllowedLevels:       []string{"200"},
		AllowedSchools:      []string{"Science"},
		AllowsInstallments:  true,
		InstallmentPercents: []int{70, 30},
	})
	return student, fee
}

func successTx(reference string, amountMinor int64, student *models.Student, fee *models.Fee, installment int) *TransactionData {
	return &TransactionData{
		Status:    "success",
		Reference: reference,
		Amount:    amountMinor,
		Channel:   "card",
		Metadata: TransactionMetadata{
			StudentID:         student.ID,
			FeeID:             fee.ID,
			FeeName:           fee.Name,
			AcademicSession:   fee.AcademicSession,
			InstallmentNumber: installment,
			TotalInstallments: 2,
		},
	}
}

func TestReconcileCreatesVerifiedRowFromMetadata(t *testing.T) {
	store, gateway, reconcile := setupReconcile(t)
	student, fee := seedStudentAndFee(store)

	gateway.transactions["FPB-123"] = successTx("FPB-123", 7000000, student, fee, 1)

	snapshot, err := reconcile.Reconcile(context.Background(), "FPB-123")
	require.NoError(t, err)

	assert.Equal(t, "FPB-123", snapshot.Payment.Reference)
	assert.Equal(t, int64(70000), snapshot.Payment.Amount, "amount comes from the gateway in minor units")
	assert.Equal(t, string(models.PaymentStatusVerified), snapshot.Payment.Status)
	assert.NotEmpty(t, snapshot.Payment.ReceiptNumber)

	assert.Equal(t, int64(70000), snapshot.Summary.TotalPaid)
	assert.Equal(t, int64(30000), snapshot.Summary.Balance)
	assert.False(t, snapshot.Summary.IsFullyPaid)
	assert.True(t, snapshot.Summary.FirstInstallmentPaid)

	assert.Equal(t, 1, store.verifiedCount("FPB-123"))
	require.Len(t, store.tasks, 1, "receipt email should be enqueued")
	assert.Equal(t, "send_receipt_email", store.tasks[0].TaskName)
}

func TestReconcileIsIdempotent(t *testing.T) {
	// Scenario: the gateway delivers the callback twice.
	store, gateway, reconcile := setupReconcile(t)
	student, fee := seedStudentAndFee(store)

	gateway.transactions["FPB-123"] = successTx("FPB-123", 7000000, student, fee, 1)

	first, err := reconcile.Reconcile(context.Background(), "FPB-123")
	require.NoError(t, err)

	second, err := reconcile.Reconcile(context.Background(), "FPB-123")
	require.NoError(t, err)

	assert.Equal(t, first.Payment.ReceiptNumber, second.Payment.ReceiptNumber)
	assert.Equal(t, first.Payment.Amount, second.Payment.Amount)
	assert.Equal(t, 1, store.verifiedCount("FPB-123"), "exactly one verified row per reference")
	assert.Equal(t, 1, gateway.verifyCalls, "second call short-circuits without hitting the gateway")
	assert.Len(t, store.tasks, 1, "no re-notification on replay")
}

func TestReconcileUpgradesPendingRow(t *testing.T) {
	store, gateway, reconcile := setupReconcile(t)
	student, fee := seedStudentAndFee(store)

	pending := &models.Payment{
		StudentID:         student.ID,
		FeeID:             fee.ID,
		Amount:            70000,
		Reference:         "FPB-200",
		ReceiptNumber:     "RCT-20260110-AAAA",
		Status:            models.PaymentStatusPending,
		InstallmentNumber: 1,
		TotalInstallments: 2,
	}
	require.NoError(t, store.CreatePayment(pending))

	// Gateway reports a different amount than requested; the gateway wins.
	gateway.transactions["FPB-200"] = successTx("FPB-200", 6500000, student, fee, 1)

	snapshot, err := reconcile.Reconcile(context.Background(), "FPB-200")
	require.NoError(t, err)

	assert.Equal(t, "RCT-20260110-AAAA", snapshot.Payment.ReceiptNumber, "pending row keeps its receipt number")
	assert.Equal(t, int64(65000), snapshot.Payment.Amount)
	assert.Equal(t, 1, store.verifiedCount("FPB-200"))
}

func TestReconcileFailedTransaction(t *testing.T) {
	store, gateway, reconcile := setupReconcile(t)
	student, fee := seedStudentAndFee(store)

	tx := successTx("FPB-999", 7000000, student, fee, 1)
	tx.Status = "failed"
	gateway.transactions["FPB-999"] = tx

	_, err := reconcile.Reconcile(context.Background(), "FPB-999")
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindBusinessRule, appErr.Kind)
	assert.Equal(t, 0, store.verifiedCount("FPB-999"), "no verified row for a failed transaction")
}

func TestReconcileUnknownReference(t *testing.T) {
	_, _, reconcile := setupReconcile(t)

	_, err := reconcile.Reconcile(context.Background(), "FPB-missing")
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestReconcileGatewayUnavailable(t *testing.T) {
	_, gateway, reconcile := setupReconcile(t)
	gateway.verifyErr = ErrGatewayUnavailable

	_, err := reconcile.Reconcile(context.Background(), "FPB-123")
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindUpstream, appErr.Kind)
}

func TestReconcileMissingReference(t *testing.T) {
	_, _, reconcile := setupReconcile(t)

	_, err := reconcile.Reconcile(context.Background(), "")
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestReconcileMissingMetadata(t *testing.T) {
	store, gateway, reconcile := setupReconcile(t)

	gateway.transactions["FPB-321"] = &TransactionData{
		Status:    "success",
		Reference: "FPB-321",
		Amount:    7000000,
	}

	_, err := reconcile.Reconcile(context.Background(), "FPB-321")
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindUpstream, appErr.Kind)
	assert.Equal(t, 0, store.verifiedCount("FPB-321"))
}

func TestReconcileDuplicateKeyRace(t *testing.T) {
	// A concurrent reconcile inserted the verified row between our
	// existence check and insert; the loser must return the winner's row.
	store, gateway, reconcile := setupReconcile(t)
	student, fee := seedStudentAndFee(store)

	gateway.transactions["FPB-777"] = successTx("FPB-777", 7000000, student, fee, 1)

	// The winner's row lands between our existence check and insert.
	store.beforeCreatePayment = func(p *models.Payment) error {
		store.beforeCreatePayment = nil
		winner := &models.Payment{
			StudentID:         student.ID,
			FeeID:             fee.ID,
			Amount:            70000,
			Reference:         "FPB-777",
			ReceiptNumber:     "RCT-20260110-WINR",
			Status:            models.PaymentStatusVerified,
			InstallmentNumber: 1,
		}
		if err := store.CreatePayment(winner); err != nil {
			return err
		}
		return gorm.ErrDuplicatedKey
	}

	snapshot, err := reconcile.Reconcile(context.Background(), "FPB-777")
	require.NoError(t, err)
	assert.Equal(t, "RCT-20260110-WINR", snapshot.Payment.ReceiptNumber)
	assert.Equal(t, 1, store.verifiedCount("FPB-777"))
}
