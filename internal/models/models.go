// Package models provides domain models for the trading journal.
package models

// JournalType partitions a user's journal by market.
type JournalType string

const (
	JournalCrypto JournalType = "crypto"
	JournalStock  JournalType = "stock"
)

// Valid reports whether j is a known journal type.
func (j JournalType) Valid() bool {
	return j == JournalCrypto || j == JournalStock
}

// TradeType distinguishes leveraged from unleveraged instruments.
type TradeType string

const (
	TradeSpot    TradeType = "spot"
	TradeFutures TradeType = "futures"
)

// Valid reports whether t is a known trade type.
func (t TradeType) Valid() bool {
	return t == TradeSpot || t == TradeFutures
}

// Direction is the side of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Currency is an ISO-style currency code.
type Currency string

const (
	USD Currency = "USD"
	IDR Currency = "IDR"
)

// DefaultCurrency is used when neither the trade nor its platform names one.
const DefaultCurrency = USD

// TradeStatus is the lifecycle state of a trade. Every status other than
// StatusRunning is a terminal exit classification.
type TradeStatus string

const (
	StatusRunning  TradeStatus = "running"
	StatusTP1      TradeStatus = "tp1"
	StatusTP2      TradeStatus = "tp2"
	StatusTP3      TradeStatus = "tp3"
	StatusTP4      TradeStatus = "tp4"
	StatusTP5      TradeStatus = "tp5"
	StatusProfit   TradeStatus = "profit"
	StatusStopLoss TradeStatus = "stoploss"
)

// TakeProfitStatuses maps a ladder index (0 = tp1) to its status.
var TakeProfitStatuses = [5]TradeStatus{StatusTP1, StatusTP2, StatusTP3, StatusTP4, StatusTP5}

// IsClosed reports whether s is a terminal status.
func (s TradeStatus) IsClosed() bool {
	return s != StatusRunning
}

// Valid reports whether s is a known status.
func (s TradeStatus) Valid() bool {
	switch s {
	case StatusRunning, StatusTP1, StatusTP2, StatusTP3, StatusTP4, StatusTP5, StatusProfit, StatusStopLoss:
		return true
	}
	return false
}

// PlatformType describes where funds are held.
type PlatformType string

const (
	PlatformExchange PlatformType = "exchange"
	PlatformBroker   PlatformType = "broker"
	PlatformWallet   PlatformType = "wallet"
)

// Valid reports whether p is a known platform type.
func (p PlatformType) Valid() bool {
	return p == PlatformExchange || p == PlatformBroker || p == PlatformWallet
}
