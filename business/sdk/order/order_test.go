package order_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
)

var fields = map[string]string{
	"title":  "a",
	"fromAt": "b",
}

func TestParse(t *testing.T) {
	def := order.NewBy("a", order.DESC)

	tests := []struct {
		name    string
		input   string
		want    order.By
		wantErr bool
	}{
		{name: "default", input: "", want: def},
		{name: "field only", input: "title", want: order.NewBy("a", order.ASC)},
		{name: "lowercase direction", input: "fromAt,desc", want: order.NewBy("b", order.DESC)},
		{name: "unknown field", input: "password", wantErr: true},
		{name: "bad direction", input: "title,UP", wantErr: true},
		{name: "too many parts", input: "title,ASC,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := order.Parse(fields, tt.input, def)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %s", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
