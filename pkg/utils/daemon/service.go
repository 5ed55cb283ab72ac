package daemon

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"
)

const (
	unitName   = "tomato.service"
	agentLabel = "cc.chlc.tomato"
)

var systemdUnitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=tomato focus timer daemon
After=graphical-session.target

[Service]
ExecStart="{{ .ExePath }}" daemon{{ range .Args }} "{{ . }}"{{ end }}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

var launchAgentTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{ .Label }}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{ html .ExePath }}</string>
		<string>daemon</string>
{{- range .Args }}
		<string>{{ html . }}</string>
{{- end }}
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<dict>
		<key>SuccessfulExit</key>
		<false/>
	</dict>
	<key>StandardErrorPath</key>
	<string>{{ html .LogPath }}</string>
</dict>
</plist>
`))

// Options describe the daemon the service runs.
type Options struct {
	// ExePath is the absolute path of the tomato binary.
	ExePath string
	// HomeDir is the user the service is installed for.
	HomeDir    string
	ConfigPath string
	DataPath   string
	SocketPath string
}

// args are the daemon flags. Empty options are left to the daemon defaults.
func (o Options) args() []string {
	var args []string
	if o.ConfigPath != "" {
		args = append(args, "--config="+o.ConfigPath)
	}
	if o.DataPath != "" {
		args = append(args, "--data="+o.DataPath)
	}
	if o.SocketPath != "" {
		args = append(args, "--daemon-socket="+o.SocketPath)
	}
	return args
}

// Service is a rendered per-user service definition together with the
// commands that enable and disable it.
type Service struct {
	Path    string
	Content []byte
	Enable  [][]string
	Disable [][]string
}

// NewService renders the service for goos.
func NewService(goos string, opts Options) (*Service, error) {
	if opts.ExePath == "" || opts.HomeDir == "" {
		return nil, fmt.Errorf("executable path and home directory are required")
	}

	switch goos {
	case "linux":
		path := filepath.Join(opts.HomeDir, ".config", "systemd", "user", unitName)
		content, err := render(systemdUnitTemplate, map[string]any{
			"ExePath": opts.ExePath,
			"Args":    opts.args(),
		})
		if err != nil {
			return nil, err
		}
		return &Service{
			Path:    path,
			Content: content,
			Enable: [][]string{
				{"systemctl", "--user", "daemon-reload"},
				{"systemctl", "--user", "enable", "--now", unitName},
			},
			Disable: [][]string{
				{"systemctl", "--user", "disable", "--now", unitName},
			},
		}, nil
	case "darwin":
		path := filepath.Join(opts.HomeDir, "Library", "LaunchAgents", agentLabel+".plist")
		content, err := render(launchAgentTemplate, map[string]any{
			"Label":   agentLabel,
			"ExePath": opts.ExePath,
			"Args":    opts.args(),
			"LogPath": filepath.Join(opts.HomeDir, "Library", "Logs", "tomato.log"),
		})
		if err != nil {
			return nil, err
		}
		return &Service{
			Path:    path,
			Content: content,
			Enable:  [][]string{{"/bin/launchctl", "load", "-w", path}},
			Disable: [][]string{{"/bin/launchctl", "unload", "-w", path}},
		}, nil
	default:
		return nil, fmt.Errorf("installing a service is not supported on %s", goos)
	}
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}
