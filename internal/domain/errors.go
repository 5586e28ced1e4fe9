package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorizedAction = errors.New("unauthorized action")
	ErrAuctionNotActive   = errors.New("auction is not active")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrNotFound           = errors.New("not found")
	ErrStoreFailure       = errors.New("store failure")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type UnauthorizedActionError struct {
	Action Action
	Role   Role
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

func (e *UnauthorizedActionError) Is(target error) bool {
	return target == ErrUnauthorizedAction
}

type AuctionNotActiveError struct {
	AuctionID string
	Status    AuctionStatus
	EndTime   time.Time
}

func (e *AuctionNotActiveError) Error() string {
	return fmt.Sprintf("auction %s is not active (%s, ends %s)", e.AuctionID, e.Status, e.EndTime.Format(time.RFC3339))
}

func (e *AuctionNotActiveError) Is(target error) bool {
	return target == ErrAuctionNotActive
}

// BidTooLowError carries the floor so the caller can retry with a higher amount.
type BidTooLowError struct {
	AuctionID string
	Amount    decimal.Decimal
	Floor     decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid %s on auction %s must exceed %s", e.Amount.String(), e.AuctionID, e.Floor.String())
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StoreFailureError wraps a persistence error. It matches ErrStoreFailure and
// unwraps to the driver error.
type StoreFailureError struct {
	Op  string
	Err error
}

func (e *StoreFailureError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreFailureError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreFailureError) Unwrap() error {
	return e.Err
}

// StoreFailure wraps err unless it is nil or already a domain error.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StoreFailureError{Op: op, Err: err}
}

// IsDomainError reports whether err already belongs to the error taxonomy.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrUnauthorizedAction, ErrAuctionNotActive, ErrBidTooLow,
		ErrNotFound, ErrStoreFailure, ErrInvalidInput, ErrConflict,
		ErrInvalidCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
