package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a journal owner.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Username        string    `json:"username,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Avatar          string    `json:"avatar,omitempty"`
	DefaultCurrency Currency  `json:"defaultCurrency"`
	IsPublic        bool      `json:"isPublic"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Platform is an exchange, broker or wallet a user trades on.
type Platform struct {
	ID        string       `json:"id" yaml:"id"`
	UserID    string       `json:"userId" yaml:"userId"`
	Name      string       `json:"name" yaml:"name"`
	Type      PlatformType `json:"type" yaml:"type"`
	Currency  Currency     `json:"currency" yaml:"currency"`
	CreatedAt time.Time    `json:"createdAt" yaml:"createdAt"`
}

// TransactionType is the kind of balance movement.
type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
	TxTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TxDeposit || t == TxWithdraw || t == TxTransfer
}

// BalanceTransaction moves funds into, out of, or between platforms.
type BalanceTransaction struct {
	ID           string          `json:"id" yaml:"id"`
	UserID       string          `json:"userId" yaml:"userId"`
	PlatformID   string          `json:"platformId" yaml:"platformId"`
	ToPlatformID string          `json:"toPlatformId,omitempty" yaml:"toPlatformId,omitempty"`
	Type         TransactionType `json:"type" yaml:"type"`
	Amount       decimal.Decimal `json:"amount" yaml:"amount"`
	Currency     Currency        `json:"currency" yaml:"currency"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Date         time.Time       `json:"date" yaml:"date"`
	CreatedAt    time.Time       `json:"createdAt" yaml:"createdAt"`
}

// PlatformBalance is the running balance of one platform in its own currency.
type PlatformBalance struct {
	PlatformID   string          `json:"platformId" yaml:"platformId"`
	PlatformName string          `json:"platformName" yaml:"platformName"`
	Balance      decimal.Decimal `json:"balance" yaml:"balance"`
	Currency     Currency        `json:"currency" yaml:"currency"`
}
