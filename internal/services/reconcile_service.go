package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

// ReconcileService converts a gateway-reported transaction outcome into an
// authoritative ledger write, exactly once per reference. It is the only
// component allowed to transition payment status.
//
// Idempotence has two layers: the verified-row short-circuit below, and the
// unique index on reference for the window between check and insert. A
// duplicated callback therefore always lands on the same verified row.
type ReconcileService struct {
	store    Store
	gateway  GatewayClient
	cache    *RedisCache
	receipts *ReceiptService
}

func NewReconcileService(store Store, gateway GatewayClient, cache *RedisCache, receipts *ReceiptService) *ReconcileService {
	return &ReconcileService{store: store, gateway: gateway, cache: cache, receipts: receipts}
}

// Reconcile confirms the transaction behind reference with the gateway and
// returns the receipt snapshot for its verified ledger row.
func (s *ReconcileService) Reconcile(ctx context.Context, reference string) (*ReceiptSnapshot, error) {
	if reference == "" {
		return nil, utils.NewValidationError("transaction reference is required")
	}

	s.recordCallback(reference)

	// Fast path: the reference was already reconciled. No gateway call, no
	// new row, no re-notification.
	existing, err := s.store.GetPaymentByReference(reference)
	if err == nil && existing.Status == models.PaymentStatusVerified {
		return s.receipts.Snapshot(existing)
	}
	if err != nil && !IsNotFound(err) {
		return nil, utils.NewUpstreamError("failed to load payment: " + err.Error())
	}

	// Narrow the concurrent-callback window. The lock is advisory only;
	// when it cannot be acquired we proceed and let the unique index on
	// reference arbitrate.
	if s.cache != nil {
		lockKey := "reconcile:" + reference
		if ok, lockErr := s.cache.AcquireLock(ctx, lockKey, 30*time.Second); lockErr == nil && ok {
			defer s.cache.ReleaseLock(ctx, lockKey)
		}
	}

	tx, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) {
			return nil, utils.NewValidationError("unknown transaction reference")
		}
		return nil, utils.NewUpstreamError("could not verify transaction, try again later")
	}

	if tx.Status != "success" {
		// Terminal for this reference. The pending row from initiation, if
		// any, stays for audit.
		return nil, utils.NewBusinessRuleError("payment was not successful at the gateway")
	}

	// Metadata is the authoritative link back to domain rows; the pending
	// row may have been lost.
	if tx.Metadata.StudentID == 0 || tx.Metadata.FeeID == 0 {
		return nil, utils.NewUpstreamError("gateway metadata is missing student or fee identifiers")
	}

	// The gateway-reported amount wins over whatever was requested at
	// initiation, guarding against tampering in between.
	amount := tx.Amount / 100

	payment := existing
	if payment != nil {
		payment.Status = models.PaymentStatusVerified
		payment.Amount = amount
		payment.Channel = tx.Channel
		if err := s.store.SavePayment(payment); err != nil {
			return nil, utils.NewUpstreamError("failed to record verified payment: " + err.Error())
		}
	} else {
		payment = &models.Payment{
			StudentID:         tx.Metadata.StudentID,
			FeeID:             tx.Metadata.FeeID,
			Amount:            amount,
			Reference:         reference,
			ReceiptNumber:     utils.GenerateReceiptNumber(),
			Status:            models.PaymentStatusVerified,
			FeeType:           tx.Metadata.FeeName,
			AcademicSession:   tx.Metadata.AcademicSession,
			InstallmentNumber: tx.Metadata.InstallmentNumber,
			TotalInstallments: tx.Metadata.TotalInstallments,
			Channel:           tx.Channel,
		}
		if err := s.store.CreatePayment(payment); err != nil {
			if IsDuplicateKey(err) {
				// Lost the race to a concurrent reconcile; the winner's row
				// is the verified one.
				winner, fetchErr := s.store.GetPaymentByReference(reference)
				if fetchErr != nil {
					return nil, utils.NewUpstreamError("failed to load verified payment: " + fetchErr.Error())
				}
				return s.receipts.Snapshot(winner)
			}
			return nil, utils.NewUpstreamError("failed to record verified payment: " + err.Error())
		}
	}

	snapshot, err := s.receipts.Snapshot(payment)
	if err != nil {
		return nil, err
	}

	s.enqueueReceiptEmail(payment)

	return snapshot, nil
}

// recordCallback appends the callback to the audit trail. Best effort.
func (s *ReconcileService) recordCallback(reference string) {
	metadata, _ := json.Marshal(map[string]string{"reference": reference})
	history := &models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayPaystack,
		Reference:      reference,
		Metadata:       metadata,
	}
	if err := s.store.CreateCallbackHistory(history); err != nil {
		log.Printf("failed to record callback history for %s: %v", reference, err)
	}
}

// enqueueReceiptEmail schedules the receipt mail as a one-time worker task.
// Failure to enqueue is logged and never fails the reconciliation.
func (s *ReconcileService) enqueueReceiptEmail(payment *models.Payment) {
	task := &models.ScheduledTask{
		TaskName:   "send_receipt_email",
		Arguments:  map[string]interface{}{"reference": payment.Reference},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.store.CreateScheduledTask(task); err != nil {
		log.Printf("failed to enqueue receipt email for %s: %v", payment.Reference, err)
	}
}
