package lua

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestStateDoString(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`x = string.upper("ok") .. math.floor(2.5)`); err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := s.GetGlobal("x").String(); got != "OK2" {
		t.Errorf("x = %q, want OK2", got)
	}
}

func TestStateDoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(`loaded = true`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewState()
	defer s.Close()

	if err := s.DoFile(path); err != nil {
		t.Fatalf("DoFile error = %v", err)
	}
	if got := s.GetGlobal("loaded").String(); got != "true" {
		t.Errorf("loaded = %q, want true", got)
	}
}

func TestStateSandbox(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"dofile", `dofile("/etc/passwd")`},
		{"load", `load("return 1")()`},
		{"io", `io.open("/etc/passwd")`},
		{"os", `os.exit(1)`},
		{"require io", `require("io")`},
		{"require unknown", `require("socket")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			defer s.Close()
			if err := s.DoString(tt.code); err == nil {
				t.Error("expected sandbox error")
			}
		})
	}
}

func TestStateRequireSafeModule(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`local s = require("string"); r = s.rep("a", 3)`); err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := s.GetGlobal("r").String(); got != "aaa" {
		t.Errorf("r = %q, want aaa", got)
	}
}

func TestStatePrintLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	s := NewState(WithLogger(log))
	defer s.Close()

	if err := s.DoString(`print("hello", 42)`); err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "hello") || !strings.Contains(out, "source=lua") {
		t.Errorf("log output = %q", out)
	}
}

func TestStateTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("DoString error = %v, want ErrExecutionTimeout", err)
	}

	if err := s.DoString(`after = 1`); err != nil {
		t.Errorf("state unusable after timeout: %v", err)
	}
}

func TestStateClose(t *testing.T) {
	s := NewState()
	s.Close()
	s.Close()

	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString after Close error = %v, want ErrStateClosed", err)
	}
}
