package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/oilmart/internal/models"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	at := time.Date(2025, 8, 25, 13, 45, 0, 0, time.UTC)

	number := GenerateOrderNumber("OM", at)
	assert.Regexp(t, `^OM250825\d{4}$`, number)

	number = GenerateOrderNumber("SHOP", at)
	assert.Regexp(t, `^SHOP250825\d{4}$`, number)
}

func TestGenerateTrackingNumberFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number := GenerateTrackingNumber("OIL")
		assert.Regexp(t, `^OIL[0-9A-Z]{8}$`, number)
		assert.False(t, seen[number], "duplicate tracking number %s", number)
		seen[number] = true
	}
}

func TestSKUPrefix(t *testing.T) {
	assert.Equal(t, "SYN-CAS", skuPrefix(models.OilTypeSynthetic, "Castrol"))
	assert.Equal(t, "SEM-MOB", skuPrefix(models.OilTypeSemiSynthetic, "Mobil"))
	assert.Equal(t, "MIN-LUK", skuPrefix(models.OilTypeMineral, "Lukoil"))
	assert.Equal(t, "OIL-SHE", skuPrefix(models.OilTypeOther, "Shell"))
	assert.Equal(t, "OIL-GEN", skuPrefix("", ""))

	// Non-alphanumerics are skipped, short brands keep what they have and
	// multi-byte letters count as single characters.
	assert.Equal(t, "LIQ", brandPrefix("liqui moly"))
	assert.Equal(t, "7X", brandPrefix("7X"))
	assert.Equal(t, "GEN", brandPrefix("!!!"))
	assert.Equal(t, "ЛУК", brandPrefix("Лукойл"))
}

func TestFormatSKU(t *testing.T) {
	assert.Equal(t, "SYN-CAS-0007", formatSKU("SYN-CAS", 7))
	assert.Equal(t, "OIL-GEN-12345", formatSKU("OIL-GEN", 12345))
}
