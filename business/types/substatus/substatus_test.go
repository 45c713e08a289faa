package substatus_test

import (
	"testing"

	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to substatus.Status
		want     bool
	}{
		{substatus.Trial, substatus.Active, true},
		{substatus.Active, substatus.Active, true},
		{substatus.Active, substatus.Cancelled, true},
		{substatus.Suspended, substatus.Active, true},
		{substatus.Cancelled, substatus.Active, true},
		{substatus.Expired, substatus.Active, true},
		{substatus.Cancelled, substatus.Suspended, false},
		{substatus.Expired, substatus.Cancelled, false},
		{substatus.Suspended, substatus.Trial, false},
		{substatus.Active, substatus.Trial, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %t want %t", tt.from, tt.to, got, tt.want)
		}
	}
}
