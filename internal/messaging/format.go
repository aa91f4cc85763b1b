package messaging

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DateLayout is the DD/MM/YYYY layout used in every customer-facing message.
const DateLayout = "02/01/2006"

// noPaymentsYet is the payment-history sentinel, keyed by base language.
var noPaymentsYet = map[string]string{
	"en": "No payments yet",
	"hi": "अभी तक कोई भुगतान नहीं",
	"ml": "ഇതുവരെ പണമടച്ചിട്ടില്ല",
	"ta": "இதுவரை பணம் செலுத்தப்படவில்லை",
}

// Formatter renders amounts and dates for one display locale.
type Formatter struct {
	printer    *message.Printer
	noPayments string
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en-IN". Unknown or
// malformed tags fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	base, _ := tag.Base()
	sentinel, ok := noPaymentsYet[base.String()]
	if !ok {
		sentinel = noPaymentsYet["en"]
	}
	return &Formatter{printer: message.NewPrinter(tag), noPayments: sentinel}
}

// Amount groups digits per the locale. Whole amounts print without decimals; others
// print with exactly two.
func (f *Formatter) Amount(d decimal.Decimal) string {
	if d.IsInteger() {
		return f.printer.Sprintf("%d", d.IntPart())
	}
	v, _ := d.Round(2).Float64()
	return f.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Integer groups digits per the locale.
func (f *Formatter) Integer(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Date formats t as DD/MM/YYYY in t's own location. DATE columns arrive as UTC
// midnight, so no zone conversion is applied.
func (f *Formatter) Date(t time.Time) string {
	return t.Format(DateLayout)
}

// NoPayments is the locale's "no payments yet" sentinel.
func (f *Formatter) NoPayments() string {
	return f.noPayments
}
