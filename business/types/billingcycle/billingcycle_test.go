package billingcycle_test

import (
	"testing"
	"time"

	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
)

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	if got, want := billingcycle.Monthly.PeriodEnd(start), time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("monthly: got %s want %s", got, want)
	}

	if got, want := billingcycle.Yearly.PeriodEnd(start), time.Date(2027, time.January, 15, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("yearly: got %s want %s", got, want)
	}
}

func TestParse(t *testing.T) {
	if _, err := billingcycle.Parse("weekly"); err == nil {
		t.Error("expected weekly to be rejected")
	}

	c, err := billingcycle.Parse("yearly")
	if err != nil || !c.Equal(billingcycle.Yearly) {
		t.Errorf("got %v, %v", c, err)
	}
}
