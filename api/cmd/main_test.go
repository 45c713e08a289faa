package main

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"
)

func TestBillingDefaults(t *testing.T) {
	if _, set := os.LookupEnv("BILLING_DEMO_ACTIVATION"); set {
		t.Skip("BILLING_DEMO_ACTIVATION set in the environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("process: %s", err)
	}

	if cfg.Billing.DemoActivation {
		t.Error("demo activation must be off unless enabled explicitly")
	}
}
