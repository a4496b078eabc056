// Package domain holds the task entity and its lifecycle state machine:
// open → in-progress → completed, forward only. No cancellation or reopen
// transition exists.
package domain

import (
	"errors"
	"time"

	userdomain "my-friends/backend/internal/user/domain"
)

// Status is the task lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// PaymentStatus tracks whether the requester has paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	// PaymentConfirmed is reachable by schema but never assigned by any
	// operation; kept so stored collections containing it stay valid.
	// Whether helpers should confirm receipt is an open product question.
	PaymentConfirmed PaymentStatus = "confirmed"
)

// PaymentMethod is one of the five supported payment channels.
type PaymentMethod string

const (
	PayCash         PaymentMethod = "cash"
	PayPromptPay    PaymentMethod = "promptpay"
	PayBankTransfer PaymentMethod = "bank-transfer"
	PayTrueWallet   PaymentMethod = "true-wallet"
	PayCreditCard   PaymentMethod = "credit-card"
)

// ParsePaymentMethod returns the PaymentMethod for s, or an error.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PayCash, PayPromptPay, PayBankTransfer, PayTrueWallet, PayCreditCard:
		return PaymentMethod(s), nil
	}
	return "", errors.New("unknown payment method")
}

// Sentinel errors for illegal lifecycle transitions.
var (
	ErrNotOpen       = errors.New("task is not open")
	ErrNotInProgress = errors.New("task is not in progress")
)

// Task is the unit of work exchanged between a requester and a helper.
// Requester fields are a denormalized snapshot taken at creation time.
// Helper and payment fields are null until the corresponding transition.
type Task struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	ItemCost         float64        `json:"itemCost"`
	ServiceFee       float64        `json:"serviceFee"`
	TotalCost        float64        `json:"totalCost"` // itemCost+serviceFee, frozen at creation
	DeliveryLocation string         `json:"deliveryLocation"`
	RequesterID      string         `json:"requesterId"`
	RequesterName    string         `json:"requesterName"`
	RequesterPhone   string         `json:"requesterPhone"`
	HelperID         *string        `json:"helperId"`
	HelperName       *string        `json:"helperName"`
	Status           Status         `json:"status"`
	PaymentStatus    PaymentStatus  `json:"paymentStatus"`
	PaymentMethod    *PaymentMethod `json:"paymentMethod"`
	PaidAt           *time.Time     `json:"paidAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	AcceptedAt       *time.Time     `json:"acceptedAt"`
	CompletedAt      *time.Time     `json:"completedAt"`
}

// New builds an open task for the requester with the derived totalCost.
// id assignment is the caller's responsibility.
func New(id, title, description, deliveryLocation string, itemCost, serviceFee float64, requester *userdomain.User, now time.Time) *Task {
	return &Task{
		ID:               id,
		Title:            title,
		Description:      description,
		ItemCost:         itemCost,
		ServiceFee:       serviceFee,
		TotalCost:        itemCost + serviceFee,
		DeliveryLocation: deliveryLocation,
		RequesterID:      requester.ID,
		RequesterName:    requester.Name,
		RequesterPhone:   requester.Phone,
		Status:           StatusOpen,
		PaymentStatus:    PaymentPending,
		CreatedAt:        now,
	}
}

// Accept transitions open → in-progress and binds the helper, first
// acceptor wins. Returns ErrNotOpen when the task has already advanced.
func (t *Task) Accept(helper *userdomain.User, now time.Time) error {
	if t.Status != StatusOpen {
		return ErrNotOpen
	}
	t.Status = StatusInProgress
	helperID, helperName := helper.ID, helper.Name
	t.HelperID = &helperID
	t.HelperName = &helperName
	t.AcceptedAt = &now
	return nil
}

// CompletePayment transitions in-progress → completed, marking the task
// paid with the given method. paidAt and completedAt are the same instant.
func (t *Task) CompletePayment(method PaymentMethod, now time.Time) error {
	if t.Status != StatusInProgress {
		return ErrNotInProgress
	}
	t.Status = StatusCompleted
	t.PaymentStatus = PaymentPaid
	t.PaymentMethod = &method
	t.PaidAt = &now
	t.CompletedAt = &now
	return nil
}

// OwnedBy reports whether the requester owns the task.
func (t *Task) OwnedBy(userID string) bool {
	return t.RequesterID == userID
}

// AcceptedBy reports whether the helper holds the task.
func (t *Task) AcceptedBy(userID string) bool {
	return t.HelperID != nil && *t.HelperID == userID
}
