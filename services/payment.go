package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/models"
	"storefront-backend/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService issues gateway forms and applies gateway callbacks.
// Signature checks are delegated to Verifier and happen before any order
// is looked at.
type PaymentService struct {
	DB       *gorm.DB
	Gateway  *payment.Client
	Verifier payment.Verifier
	Log      *zap.Logger

	// StoreURL is the storefront base; the gateway sends the customer back
	// to its /orders/<id> page.
	StoreURL    string
	CallbackURL string
}

func NewPaymentService(db *gorm.DB, gateway *payment.Client, log *zap.Logger, storeURL, callbackURL string) *PaymentService {
	return &PaymentService{
		DB:          db,
		Gateway:     gateway,
		Verifier:    gateway,
		Log:         log,
		StoreURL:    storeURL,
		CallbackURL: callbackURL,
	}
}

// IssueForm builds the signed gateway form for one of the account's orders.
// It does not change the order.
func (s *PaymentService) IssueForm(ctx context.Context, accountID, orderID uuid.UUID) (*payment.Form, *models.Order, error) {
	if !s.Gateway.Configured() {
		return nil, nil, apperrors.ErrPaymentNotReady
	}

	var order models.Order
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, accountID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrOrderNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	form, err := s.Gateway.CheckoutForm(payment.Request{
		OrderID:     order.ID.String(),
		Amount:      order.TotalAmount,
		Description: fmt.Sprintf("Payment for order #%s", order.OrderNumber),
		ResultURL:   s.resultURL(order.ID),
		ServerURL:   s.CallbackURL,
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &form, &order, nil
}

func (s *PaymentService) resultURL(orderID uuid.UUID) string {
	return strings.TrimRight(s.StoreURL, "/") + "/orders/" + orderID.String()
}

// HandleCallback verifies and applies one gateway notification. Only a
// correctly signed "success" for a pending order changes anything: the
// order moves to processing. Every outcome is logged and recorded. The
// returned error is reserved for storage failures.
func (s *PaymentService) HandleCallback(ctx context.Context, data, signature string) (models.PaymentOutcome, error) {
	note := models.PaymentNotification{Data: data}
	log := s.Log.With(zap.String("component", "payment_callback"))

	if !s.Verifier.Verify(data, signature) {
		note.Outcome = models.PaymentOutcomeInvalidSignature
		log.Warn("rejected payment callback with invalid signature", zap.Int("data_len", len(data)))
		return s.record(ctx, log, note)
	}
	note.SignatureValid = true

	cb, err := payment.Decode(data)
	if err != nil {
		note.Outcome = models.PaymentOutcomeMalformed
		log.Warn("rejected malformed payment callback", zap.Error(err))
		return s.record(ctx, log, note)
	}
	note.OrderRef = cb.OrderID
	note.GatewayStatus = cb.Status
	log = log.With(zap.String("order_ref", cb.OrderID), zap.String("gateway_status", cb.Status))

	if cb.Status != payment.StatusSuccess {
		note.Outcome = models.PaymentOutcomeIgnoredStatus
		log.Info("ignored payment callback with non-success status")
		return s.record(ctx, log, note)
	}

	orderID, err := uuid.Parse(cb.OrderID)
	if err != nil {
		note.Outcome = models.PaymentOutcomeUnknownOrder
		log.Warn("payment callback names an invalid order id")
		return s.record(ctx, log, note)
	}

	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Update("status", models.OrderStatusProcessing)
	if res.Error != nil {
		log.Error("failed to apply payment callback", zap.Error(res.Error))
		return "", apperrors.Wrap(apperrors.ErrInternal, res.Error)
	}
	if res.RowsAffected == 1 {
		note.Outcome = models.PaymentOutcomeApplied
		log.Info("payment confirmed, order moved to processing")
		return s.record(ctx, log, note)
	}

	var order models.Order
	err = db.Select("id", "status").Where("id = ?", orderID).First(&order).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		note.Outcome = models.PaymentOutcomeUnknownOrder
		log.Warn("payment callback for unknown order")
	case err != nil:
		log.Error("failed to load order for payment callback", zap.Error(err))
		return "", apperrors.Wrap(apperrors.ErrInternal, err)
	case order.Status == models.OrderStatusProcessing:
		note.Outcome = models.PaymentOutcomeAlreadyProcessed
		log.Info("duplicate payment callback, order already processing")
	default:
		note.Outcome = models.PaymentOutcomeSkippedStatus
		log.Warn("payment callback for order not awaiting payment", zap.String("order_status", string(order.Status)))
	}
	return s.record(ctx, log, note)
}

// record stores the audit row. A failure here is logged but does not undo
// the outcome.
func (s *PaymentService) record(ctx context.Context, log *zap.Logger, note models.PaymentNotification) (models.PaymentOutcome, error) {
	if err := s.DB.WithContext(ctx).Create(&note).Error; err != nil {
		log.Error("failed to record payment notification", zap.Error(err), zap.String("outcome", string(note.Outcome)))
	}
	return note.Outcome, nil
}
