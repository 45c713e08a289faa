package main

import (
	"io"
	"os"
	"testing"

	"github.com/jcpaschoal/tenantcrm/foundation/keystore"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

func TestGenKeyIsLoadable(t *testing.T) {
	var cfg Config
	cfg.Auth.KeysFolder = t.TempDir()

	cmd := genKeyCmd(&cfg)
	cmd.SetOut(io.Discard)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("genkey: %s", err)
	}

	n, err := keystore.New().LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder))
	if err != nil {
		t.Fatalf("load: %s", err)
	}

	if n != 1 {
		t.Errorf("keys loaded: got %d want 1", n)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd(logger.New(io.Discard, logger.LevelError, "TEST", nil))

	want := []string{"migrate", "seed-plans", "create-tenant", "create-user", "genkey"}
	for _, use := range want {
		cmd, _, err := root.Find([]string{use})
		if err != nil || cmd.Name() != use {
			t.Errorf("command %q not registered", use)
		}
	}
}
