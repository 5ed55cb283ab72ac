package daemon

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func fakeRunner(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	orig := runCommand
	runCommand = func(args []string) error {
		calls = append(calls, args)
		return nil
	}
	t.Cleanup(func() { runCommand = orig })
	return &calls
}

func TestNewServiceSystemd(t *testing.T) {
	svc, err := NewService("linux", Options{
		ExePath:    "/usr/local/bin/tomato",
		HomeDir:    "/home/alex",
		DataPath:   "/home/alex/.local/share/tomato/data.json",
		SocketPath: "/run/user/1000/tomato.sock",
	})
	if err != nil {
		t.Fatal(err)
	}
	if svc.Path != "/home/alex/.config/systemd/user/tomato.service" {
		t.Fatalf("path = %s", svc.Path)
	}
	want := `ExecStart="/usr/local/bin/tomato" daemon "--data=/home/alex/.local/share/tomato/data.json" "--daemon-socket=/run/user/1000/tomato.sock"`
	if !strings.Contains(string(svc.Content), want) {
		t.Fatalf("unit does not contain %q:\n%s", want, svc.Content)
	}
	if !strings.Contains(string(svc.Content), "WantedBy=default.target") {
		t.Fatal("unit is not enabled for the user session")
	}
}

func TestNewServiceLaunchd(t *testing.T) {
	svc, err := NewService("darwin", Options{
		ExePath:    "/Users/alex/bin/tomato",
		HomeDir:    "/Users/alex",
		ConfigPath: "/Users/alex/tomato & co/config.json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if svc.Path != "/Users/alex/Library/LaunchAgents/cc.chlc.tomato.plist" {
		t.Fatalf("path = %s", svc.Path)
	}
	content := string(svc.Content)
	for _, want := range []string{
		"<string>cc.chlc.tomato</string>",
		"<string>/Users/alex/bin/tomato</string>",
		"<string>--config=/Users/alex/tomato &amp; co/config.json</string>",
		"<string>/Users/alex/Library/Logs/tomato.log</string>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("plist does not contain %q:\n%s", want, content)
		}
	}
	if want := [][]string{{"/bin/launchctl", "load", "-w", svc.Path}}; !reflect.DeepEqual(svc.Enable, want) {
		t.Fatalf("enable = %v", svc.Enable)
	}
}

func TestNewServiceUnsupported(t *testing.T) {
	if _, err := NewService("windows", Options{ExePath: "tomato.exe", HomeDir: `C:\Users\alex`}); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := NewService("linux", Options{}); err == nil {
		t.Fatal("expected an error without paths")
	}
}

func TestInstallUninstall(t *testing.T) {
	calls := fakeRunner(t)
	opts := Options{ExePath: "/usr/bin/tomato", HomeDir: t.TempDir()}

	if err := install("linux", opts); err != nil {
		t.Fatal(err)
	}
	svc, _ := NewService("linux", opts)
	got, err := os.ReadFile(svc.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(svc.Content) {
		t.Fatal("written unit differs from the rendered one")
	}
	if !reflect.DeepEqual(*calls, svc.Enable) {
		t.Fatalf("commands = %v, want %v", *calls, svc.Enable)
	}

	if err := install("linux", opts); err == nil {
		t.Fatal("installing twice should fail")
	}

	*calls = nil
	if err := uninstall("linux", opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(svc.Path); !os.IsNotExist(err) {
		t.Fatalf("unit should be removed, stat err = %v", err)
	}
	if !reflect.DeepEqual(*calls, svc.Disable) {
		t.Fatalf("commands = %v, want %v", *calls, svc.Disable)
	}

	*calls = nil
	if err := uninstall("linux", opts); err != nil || len(*calls) != 0 {
		t.Fatalf("uninstalling a missing service should do nothing: %v %v", err, *calls)
	}
}
