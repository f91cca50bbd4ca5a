package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionWaiting  SubscriptionStatus = "waiting"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	OrderItemID      int64              `json:"order_item_id"`
	SubscriptionType BillingInterval    `json:"subscription_type"`
	Status           SubscriptionStatus `json:"status"`
	LicenceKey       string             `json:"licence_key,omitempty"`
	StartDate        *time.Time         `json:"start_date,omitempty"`
	EndDate          *time.Time         `json:"end_date,omitempty"`
}

type Invoice struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	SubscriptionID int64           `json:"subscription_id"`
	OrderID        *int64          `json:"order_id,omitempty"`
	HTAmount       decimal.Decimal `json:"ht_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TTCAmount      decimal.Decimal `json:"ttc_amount"`
	PeriodStart    *time.Time      `json:"period_start,omitempty"`
	PeriodEnd      *time.Time      `json:"period_end,omitempty"`
}
