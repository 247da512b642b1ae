package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mellowdrifter/birdctl/clidecode"
	"github.com/mellowdrifter/birdctl/internal/fakebird"
	log "github.com/sirupsen/logrus"
)

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../../clidecode/testdata/show_protocols_all.txt")
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return string(b)
}

func TestShowProtocols(t *testing.T) {
	router := clidecode.FakeConn{All: fixture(t)}
	tests := []struct {
		desc  string
		name  string
		flags showFlags
		want  []string
	}{
		{
			desc: "summary table",
			want: []string{"NAME", "device1", "bgp1"},
		},
		{
			desc: "summary of one",
			name: "static1",
			want: []string{"static1"},
		},
		{
			desc:  "detail",
			name:  "bgp1",
			flags: showFlags{all: true},
			want:  []string{"bgp1 (BGP)", "AS65001", "channel ipv4: 10 imported, 5 exported, 8 preferred, 1 filtered"},
		},
		{
			desc:  "passive",
			name:  "bgp_dyn",
			flags: showFlags{all: true},
			want:  []string{"listening on 10.0.0.0/8"},
		},
		{
			desc:  "json",
			name:  "bgp1",
			flags: showFlags{all: true, asJSON: true},
			want:  []string{`"neighbor_as": 65001`},
		},
		{
			desc:  "raw",
			name:  "static1",
			flags: showFlags{raw: true},
			want:  []string{"static1"},
		},
	}

	for _, test := range tests {
		var out bytes.Buffer
		if err := showProtocols(context.Background(), &out, router, test.name, test.flags); err != nil {
			t.Fatalf("Test (%s): unexpected error %v", test.desc, err)
		}
		for _, w := range test.want {
			if !strings.Contains(out.String(), w) {
				t.Errorf("Test (%s): output missing %q:\n%s", test.desc, w, out.String())
			}
		}
	}
}

func TestShowProtocolsNotFound(t *testing.T) {
	router := clidecode.FakeConn{All: fixture(t)}
	for _, f := range []showFlags{{}, {all: true}, {raw: true}} {
		var out bytes.Buffer
		err := showProtocols(context.Background(), &out, router, "nope", f)
		if !errors.Is(err, clidecode.ErrNotFound) {
			t.Errorf("Test (%+v): got %v, want ErrNotFound", f, err)
		}
	}
}

func run(t *testing.T, bird *fakebird.Server, args ...string) (string, error) {
	t.Helper()
	out, err := runWith(t, &app{}, "[log]\nlevel = error\n", bird, args...)
	return out, err
}

// runWith executes the root command as main does, closing a afterwards.
func runWith(t *testing.T, a *app, ini string, bird *fakebird.Server, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(cfg, []byte(ini), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"--config", cfg, "--socket", bird.Path}, args...))
	err := root.Execute()
	if cerr := a.close(); cerr != nil {
		t.Errorf("close: %v", cerr)
	}
	return out.String(), err
}

func startBird(t *testing.T, replies map[string]string) *fakebird.Server {
	t.Helper()
	dir, err := os.MkdirTemp("", "birdctl")
	if err != nil {
		t.Fatalf("tempdir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	s, err := fakebird.Listen(filepath.Join(dir, "bird.ctl"), fakebird.Config{Replies: replies})
	if err != nil {
		t.Fatalf("fakebird: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigureCommand(t *testing.T) {
	tests := []struct {
		desc    string
		args    []string
		check   string
		wantErr bool
		wantCmd []string
	}{
		{
			desc:    "check only",
			args:    []string{"configure", "--check"},
			check:   fakebird.Final(20, "Configuration OK"),
			wantCmd: []string{"configure check"},
		},
		{
			desc:    "reload",
			args:    []string{"configure"},
			check:   fakebird.Final(20, "Configuration OK"),
			wantCmd: []string{"configure check", "configure"},
		},
		{
			desc:    "broken config is not applied",
			args:    []string{"configure"},
			check:   fakebird.Final(8002, "/etc/bird.conf:3:1 syntax error"),
			wantErr: true,
			wantCmd: []string{"configure check"},
		},
	}

	for _, test := range tests {
		bird := startBird(t, map[string]string{
			"configure check": test.check,
			"configure":       fakebird.Final(3, "Reconfigured"),
		})
		_, err := run(t, bird, test.args...)
		if (err != nil) != test.wantErr {
			t.Errorf("Test (%s): got error %v", test.desc, err)
		}
		if got := bird.Commands(); strings.Join(got, ",") != strings.Join(test.wantCmd, ",") {
			t.Errorf("Test (%s): commands %q, want %q", test.desc, got, test.wantCmd)
		}
	}
}

func TestShowCommand(t *testing.T) {
	text := fixture(t)
	bird := startBird(t, map[string]string{
		"show protocols all": fakebird.Frame(1002, text),
	})
	out, err := run(t, bird, "show", "protocols", "bgp1", "--all", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, `"name": "bgp1"`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestFailedCommandClosesLogFile(t *testing.T) {
	bird := startBird(t, map[string]string{
		"configure check": fakebird.Final(8002, "/etc/bird.conf:3:1 syntax error"),
	})
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.ini")
	ini := "[log]\nlevel = error\nfile = " + filepath.Join(dir, "birdctl.log") + "\n"
	if err := os.WriteFile(cfg, []byte(ini), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	defer log.SetOutput(os.Stderr)

	a := &app{}
	root := newRootCmd(a)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "--socket", bird.Path, "configure"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected the rejected configuration to fail the command")
	}

	f, ok := a.closer.(*os.File)
	if !ok {
		t.Fatalf("closer is %T, want the log file", a.closer)
	}
	if err := a.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := f.Write([]byte("late\n")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("write after close: got %v, want os.ErrClosed", err)
	}
}
