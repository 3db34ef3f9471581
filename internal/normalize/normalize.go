package normalize

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/extract"
)

// Fields is the validated, defaulted domain shape built from a raw extractor
// payload. Every field degrades independently, so a single malformed value
// never poisons the rest of the record.
type Fields struct {
	Company         string
	Date            time.Time
	InvoiceNumber   string
	TotalPrice      float64
	Currency        string
	NumberOfItems   int
	MainDescription string
	TaxID           string
	Address         string
	Phone           string
	Email           *string
}

// Key synonyms: the prompt asks for the Spanish keys, but models answer with
// translated keys often enough that both are accepted.
var fieldKeys = map[string][]string{
	"company":          {"empresa", "company"},
	"date":             {"fecha", "date"},
	"invoice_number":   {"numero_factura", "invoice_number"},
	"total_price":      {"precio_total", "total_price"},
	"currency":         {"moneda", "currency"},
	"number_of_items":  {"cantidad_items", "number_of_items"},
	"main_description": {"descripcion_principal", "main_description"},
	"cuit_ruc":         {"cuit_ruc", "tax_id"},
	"address":          {"direccion", "address"},
	"phone":            {"telefono", "phone"},
	"email":            {"email"},
}

// Normalize converts a loosely-typed field map into validated domain values.
// It is total: missing keys, wrong types and unparsable values all fall back
// to safe defaults. processedAt substitutes for an unreadable invoice date.
func Normalize(raw extract.RawFields, processedAt time.Time) Fields {
	return Fields{
		Company:         stringField(raw, "company"),
		Date:            dateField(raw, processedAt),
		InvoiceNumber:   stringField(raw, "invoice_number"),
		TotalPrice:      moneyField(raw, "total_price"),
		Currency:        stringField(raw, "currency"),
		NumberOfItems:   countField(raw, "number_of_items"),
		MainDescription: stringField(raw, "main_description"),
		TaxID:           stringField(raw, "cuit_ruc"),
		Address:         stringField(raw, "address"),
		Phone:           stringField(raw, "phone"),
		Email:           emailField(raw),
	}
}

func lookup(raw extract.RawFields, field string) (any, bool) {
	for _, k := range fieldKeys[field] {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// asString renders a raw value as a trimmed string; numbers are formatted,
// anything else is treated as absent.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return fmt.Sprintf("%v", t)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func stringField(raw extract.RawFields, field string) string {
	v, ok := lookup(raw, field)
	if !ok {
		return constants.NotFound
	}
	s := asString(v)
	if s == "" {
		return constants.NotFound
	}
	return s
}

// dateLayouts are tried in order; ISO-8601 first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

func dateField(raw extract.RawFields, processedAt time.Time) time.Time {
	v, ok := lookup(raw, "date")
	if !ok {
		return processedAt
	}
	s := asString(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return processedAt
}

// moneyField parses a decimal amount leniently: raw numbers, numeric strings,
// thousands separators and stray currency symbols are all accepted. Anything
// else is 0.
func moneyField(raw extract.RawFields, field string) float64 {
	v, ok := lookup(raw, field)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		cleaned := strings.TrimSpace(t)
		cleaned = strings.TrimLeft(cleaned, "$€£ ")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	default:
		return 0
	}
}

func countField(raw extract.RawFields, field string) int {
	v, ok := lookup(raw, field)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return int(d.IntPart())
		}
		return 0
	default:
		return 0
	}
}

// emailField returns nil rather than an error for anything that does not
// parse as an address.
func emailField(raw extract.RawFields) *string {
	v, ok := lookup(raw, "email")
	if !ok {
		return nil
	}
	s := asString(v)
	if s == "" || !strings.Contains(s, "@") {
		return nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return nil
	}
	return &s
}
