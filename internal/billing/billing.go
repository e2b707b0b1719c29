// Package billing prices scrubs in bubbles and bars of soap.
//
// Costs are charged per started batch of 50 records. A bar of soap is worth
// 100 bubbles; deductions spend loose bubbles first and then break bars.
package billing

import (
	"errors"
	"fmt"
)

const (
	RecordsPerBatch     = 50
	BasicCostPerBatch   = 10
	PrisonCostPerBatch  = 25
	BubblesPerBar       = 100
	DefaultStartBubbles = 100
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownOption       = errors.New("unknown purchase option")
)

// Balance is an account's spendable currency.
type Balance struct {
	Bubbles    int `json:"bubbles"`
	BarsOfSoap int `json:"barsOfSoap"`
}

// Total returns the balance expressed in bubbles.
func (b Balance) Total() int {
	return b.Bubbles + b.BarsOfSoap*BubblesPerBar
}

// ScrubCost prices a scrub of n records.
func ScrubCost(records int, prison bool) int {
	if records <= 0 {
		return 0
	}
	per := BasicCostPerBatch
	if prison {
		per = PrisonCostPerBatch
	}
	batches := (records + RecordsPerBatch - 1) / RecordsPerBatch
	return batches * per
}

// CanAfford reports whether the balance covers a scrub.
func (b Balance) CanAfford(records int, prison bool) bool {
	return b.Total() >= ScrubCost(records, prison)
}

// Deduct returns the balance after paying for a scrub.
func (b Balance) Deduct(records int, prison bool) (Balance, error) {
	cost := ScrubCost(records, prison)
	if !b.CanAfford(records, prison) {
		return b, fmt.Errorf("need %d bubbles, have %d: %w", cost, b.Total(), ErrInsufficientBalance)
	}

	if b.Bubbles >= cost {
		b.Bubbles -= cost
		return b, nil
	}

	remaining := cost - b.Bubbles
	b.Bubbles = 0
	for remaining > 0 && b.BarsOfSoap > 0 {
		b.BarsOfSoap--
		if remaining <= BubblesPerBar {
			b.Bubbles = BubblesPerBar - remaining
			remaining = 0
		} else {
			remaining -= BubblesPerBar
		}
	}
	return b, nil
}

// PurchaseOption is a fixed currency bundle.
type PurchaseOption struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Bubbles    int     `json:"bubbles,omitempty"`
	BarsOfSoap int     `json:"barsOfSoap,omitempty"`
	PriceUSD   float64 `json:"priceUSD"`
	Popular    bool    `json:"popular,omitempty"`
}

// PurchaseOptions are the bundles offered for sale.
var PurchaseOptions = []PurchaseOption{
	{ID: "bubbles_50", Name: "50 Bubbles", Bubbles: 50, PriceUSD: 2.50},
	{ID: "bubbles_125", Name: "125 Bubbles", Bubbles: 125, PriceUSD: 6.25},
	{ID: "soap_1", Name: "1 Bar of Soap", BarsOfSoap: 1, PriceUSD: 5.00, Popular: true},
	{ID: "soap_3", Name: "3 Bars of Soap", BarsOfSoap: 3, PriceUSD: 15.00},
	{ID: "soap_10", Name: "10 Bars of Soap", BarsOfSoap: 10, PriceUSD: 50.00},
}

// FindOption looks up a purchase option by id.
func FindOption(id string) (PurchaseOption, error) {
	for _, o := range PurchaseOptions {
		if o.ID == id {
			return o, nil
		}
	}
	return PurchaseOption{}, fmt.Errorf("%q: %w", id, ErrUnknownOption)
}

// Credit adds a purchased bundle to the balance.
func (b Balance) Credit(o PurchaseOption) Balance {
	b.Bubbles += o.Bubbles
	b.BarsOfSoap += o.BarsOfSoap
	return b
}
