package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/example/oilmart/internal/models"
)

// maxGenerateAttempts bounds regeneration when a generated identifier hits
// the unique index.
const maxGenerateAttempts = 5

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateOrderNumber builds a customer-facing order number: the configured
// prefix, the date as YYMMDD and a 4-digit random suffix. Uniqueness is
// enforced by the database index, not by this function.
func GenerateOrderNumber(prefix string, now time.Time) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("060102"), n.Int64())
}

// GenerateTrackingNumber builds an opaque tracking token: the configured
// prefix plus eight random base-36 characters, upper-cased.
func GenerateTrackingNumber(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < 8; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String()
}

// skuPrefix derives the two leading SKU segments from the product's type
// and brand, e.g. "SYN-CAS" for a synthetic Castrol oil.
func skuPrefix(oilType models.OilType, brand string) string {
	var category string
	switch oilType {
	case models.OilTypeSynthetic:
		category = "SYN"
	case models.OilTypeSemiSynthetic:
		category = "SEM"
	case models.OilTypeMineral:
		category = "MIN"
	default:
		category = "OIL"
	}
	return category + "-" + brandPrefix(brand)
}

// brandPrefix keeps the first three alphanumerics of the brand name,
// upper-cased; unbranded products get "GEN".
func brandPrefix(brand string) string {
	var b strings.Builder
	taken := 0
	for _, r := range brand {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			taken++
			if taken == 3 {
				break
			}
		}
	}
	if taken == 0 {
		return "GEN"
	}
	return b.String()
}

// formatSKU renders the full SKU for a sequence number within a prefix.
func formatSKU(prefix string, sequence int64) string {
	return fmt.Sprintf("%s-%04d", prefix, sequence)
}
