package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shelepuginivan/sunshift/internal/gammarelay"
	"github.com/shelepuginivan/sunshift/internal/gammarelay/relaytest"
	"github.com/shelepuginivan/sunshift/internal/icon"
)

func useService(t *testing.T, svc *relaytest.Service) {
	t.Helper()

	prev := dialClient
	dialClient = func() (*gammarelay.Client, error) {
		conn, err := svc.Dial()
		if err != nil {
			return nil, err
		}
		return gammarelay.New(conn), nil
	}
	t.Cleanup(func() {
		dialClient = prev
	})
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "missing.yaml")
	}

	var out bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath, "--log-level", "error"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}

	if !strings.HasPrefix(out, "Sunshift "+Version+"\n") {
		t.Errorf("output = %q", out)
	}
}

func TestGet(t *testing.T) {
	svc := relaytest.New(4500, 0.8)
	useService(t, svc)

	out, err := run(t, "", "get")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}

	if want := "Temperature: 4500K\nBrightness: 80%\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	conns := svc.Conns()
	if len(conns) != 1 || conns[0].CallCount() != 2 || !conns[0].Closed() {
		t.Errorf("get used %d connections", len(conns))
	}
}

func TestGetConnectionError(t *testing.T) {
	svc := relaytest.New(4500, 0.8)
	svc.FailDial(errors.New("no session bus"))
	useService(t, svc)

	if _, err := run(t, "", "get"); !errors.Is(err, gammarelay.ErrConnection) {
		t.Errorf("get error = %v, want ErrConnection", err)
	}
}

func TestSet(t *testing.T) {
	svc := relaytest.New(6500, 1.0)
	useService(t, svc)

	if _, err := run(t, "", "set", "--temperature", "3000"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	if got := svc.State(); got.Temperature != 3000 || got.Brightness != 1.0 {
		t.Errorf("state = %+v, want 3000K at full brightness", got)
	}

	if _, err := run(t, "", "set", "-t", "4000", "-b", "0.5"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	if got := svc.State(); got.Temperature != 4000 || got.Brightness != 0.5 {
		t.Errorf("state = %+v, want 4000K at half brightness", got)
	}

	calls := len(svc.Calls())
	if _, err := run(t, "", "set"); err == nil {
		t.Errorf("set without flags returned no error")
	}
	if len(svc.Calls()) != calls {
		t.Errorf("set without flags called the service")
	}
}

func TestPreset(t *testing.T) {
	svc := relaytest.New(6500, 1.0)
	useService(t, svc)

	out, err := run(t, "", "preset", "night")
	if err != nil {
		t.Fatalf("preset error = %v", err)
	}

	if got := svc.State(); got.Temperature != 3000 || got.Brightness != 0.6 {
		t.Errorf("state = %+v, want night preset", got)
	}

	if out != "Night: 3000K 60%\n" {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "", "preset", "sunrise"); err == nil {
		t.Errorf("unknown preset returned no error")
	}
	if len(svc.Conns()) != 1 {
		t.Errorf("unknown preset dialed the service")
	}
}

func TestPresetFromConfig(t *testing.T) {
	svc := relaytest.New(6500, 1.0)
	useService(t, svc)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "presets:\n  - id: candle\n    name: Candle\n    temperature: 1900\n    brightness: 0.4\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, path, "preset", "candle"); err != nil {
		t.Fatalf("preset error = %v", err)
	}

	if got := svc.State(); got.Temperature != 1900 {
		t.Errorf("state = %+v, want candle preset", got)
	}
}

func TestIcon(t *testing.T) {
	want, err := icon.Encode(3000)
	if err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "icon", "--temperature", "3000")
	if err != nil {
		t.Fatalf("icon error = %v", err)
	}
	if !bytes.Equal([]byte(out), want) {
		t.Errorf("stdout does not hold the 3000K icon")
	}

	path := filepath.Join(t.TempDir(), "icon.png")
	if _, err := run(t, "", "icon", "-t", "3000", "-o", path); err != nil {
		t.Fatalf("icon error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, want) {
		t.Errorf("file does not hold the 3000K icon")
	}
}
