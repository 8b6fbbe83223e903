package services_test

import (
	"testing"

	"github.com/daniilbelik94/online-shop-sub002/services"
	"github.com/stretchr/testify/assert"
)

func TestCents_RoundsInsteadOfTruncating(t *testing.T) {
	// 19.99 is stored just below 19.99 in float64, so a plain int64 cast
	// of 19.99*100 yields 1998.
	assert.Equal(t, int64(1999), services.Cents(19.99))
	assert.Equal(t, int64(11850), services.Cents(118.50))
	assert.Equal(t, int64(2935), services.Cents(29.35))
	assert.Equal(t, int64(0), services.Cents(0))
}
