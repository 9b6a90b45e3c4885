// Package currency formats monetary amounts for display in exported reports.
// Amounts are always decimal.Decimal; the currency is a display concern only.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	BRL Currency = "BRL" // Brazilian Real
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is used when the configured code is unknown.
const DefaultCurrency = BRL

// Info contains display metadata about a currency.
type Info struct {
	Code          Currency
	Symbol        string
	DecimalPlaces int
	SymbolBefore  bool
	ThousandsSep  string
	DecimalSep    string
}

var currencies = map[Currency]Info{
	BRL: {Code: BRL, Symbol: "R$", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ".", DecimalSep: ","},
	USD: {Code: USD, Symbol: "$", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	EUR: {Code: EUR, Symbol: "€", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: ".", DecimalSep: ","},
	GBP: {Code: GBP, Symbol: "£", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	JPY: {Code: JPY, Symbol: "¥", DecimalPlaces: 0, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// Lookup returns the metadata for code, falling back to DefaultCurrency.
func Lookup(code string) Info {
	if info, ok := currencies[Currency(strings.ToUpper(code))]; ok {
		return info
	}
	return currencies[DefaultCurrency]
}

// Format renders amount with the currency's symbol and separators,
// e.g. "R$1.234,50" or "1.234,50€".
func Format(amount decimal.Decimal, code string) string {
	info := Lookup(code)
	places := int32(info.DecimalPlaces)

	neg := amount.IsNegative()
	fixed := amount.Abs().Round(places).StringFixed(places)

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(info.ThousandsSep)
		}
		b.WriteRune(r)
	}
	number := b.String()
	if frac != "" {
		number += info.DecimalSep + frac
	}
	if neg {
		number = "-" + number
	}

	if info.SymbolBefore {
		return fmt.Sprintf("%s%s", info.Symbol, number)
	}
	return fmt.Sprintf("%s%s", number, info.Symbol)
}
