package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `
db:
  dsn: "file::memory:"
telegram:
  token: "1:abc"
`)
	c, err := Parse(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.DB.Driver != "sqlite" {
		t.Fatalf("driver = %q", c.DB.Driver)
	}
	if c.Telegram.PollTimeout().Seconds() != 30 {
		t.Fatalf("poll timeout = %v", c.Telegram.PollTimeout())
	}
	if c.Payments.CurrencyExp != 2 || c.Payments.CurrencyCode != "EUR" {
		t.Fatalf("payments = %+v", c.Payments)
	}
	if len(c.Language.Enabled) != 1 || c.Language.Enabled[0] != "en" {
		t.Fatalf("languages = %v", c.Language.Enabled)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("err = %v, want ErrMissingConfig", err)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no token": `
db:
  dsn: x
`,
		"bad driver": `
db:
  driver: oracle
  dsn: x
telegram:
  token: "1:abc"
`,
		"min above max": `
db:
  dsn: x
telegram:
  token: "1:abc"
payments:
  creditcard:
    token: tok
    minamount: 500
    maxamount: 100
`,
		"default not enabled": `
db:
  dsn: x
telegram:
  token: "1:abc"
language:
  default: it
  enabled: [en]
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, body))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrMissingConfig) {
				t.Fatalf("unexpected missing-config error: %v", err)
			}
		})
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	if _, err := Parse("../../../configs/config.example.yaml"); err != nil {
		t.Fatalf("example config: %v", err)
	}
}
