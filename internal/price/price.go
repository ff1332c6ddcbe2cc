// Package price formats book prices for display.
package price

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders whole-unit prices with locale digit grouping, e.g.
// "$ 45.000" for es-CO.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// New returns a formatter for the locale and ISO 4217 currency code.
func New(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parsing currency %q: %w", code, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbolFor(unit),
	}, nil
}

// Default formats Colombian pesos.
func Default() *Formatter {
	f, err := New("es-CO", "COP")
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders the amount rounded to whole currency units.
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprintf("%s %d", f.symbol, int64(math.Round(amount)))
}

func symbolFor(unit currency.Unit) string {
	switch unit {
	case currency.EUR:
		return "€"
	case currency.GBP:
		return "£"
	case currency.JPY:
		return "¥"
	case currency.USD, currency.MXN:
		return "$"
	}
	switch code := unit.String(); code {
	case "COP", "ARS", "CLP":
		return "$"
	default:
		return code
	}
}
