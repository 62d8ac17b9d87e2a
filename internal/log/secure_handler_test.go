package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return NewSecureLogger(buf, true)
}

func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "cookie key", key: "cookie", value: "JSESSIONID=abc123", wantMask: true},
		{name: "Set-Cookie header", key: "Set-Cookie", value: "a=b", wantMask: true},
		{name: "authorization key", key: "authorization", value: "Bearer token123", wantMask: true},
		{name: "password key", key: "password", value: "hunter2", wantMask: true},
		{name: "mail password key", key: "mail_password", value: "hunter2", wantMask: true},
		{name: "pcode field", key: "pcode", value: "hunter2", wantMask: true},
		{name: "pmail field", key: "pmail", value: "alice", wantMask: true},
		{name: "validateCode field", key: "validateCode", value: "x7k2", wantMask: true},
		{name: "jsessionid", key: "JSESSIONID", value: "0123", wantMask: true},
		{name: "step is kept", key: "step", value: "credentials", wantMask: false},
		{name: "status is kept", key: "status", value: "302", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			newTestLogger(&buf).Info("test", tt.key, tt.value)

			out := buf.String()
			if tt.wantMask {
				if strings.Contains(out, tt.value) {
					t.Errorf("value %q leaked: %s", tt.value, out)
				}
				if !strings.Contains(out, MaskValue) {
					t.Errorf("expected mask in output: %s", out)
				}
				return
			}
			if !strings.Contains(out, tt.value) {
				t.Errorf("expected value %q in output: %s", tt.value, out)
			}
		})
	}
}

func TestSecureHandler_RedactsURLParameters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.Debug("request", "url", "http://portal/right/loginExcute.jsp?pmail=alice&pcode=hunter2&validateCode=x7k2")

	out := buf.String()
	for _, leaked := range []string{"alice", "hunter2", "x7k2"} {
		if strings.Contains(out, leaked) {
			t.Errorf("%q leaked: %s", leaked, out)
		}
	}
	if !strings.Contains(out, "/right/loginExcute.jsp?pmail=") {
		t.Errorf("expected page path to survive: %s", out)
	}
}

func TestSecureHandler_RedactsErrorsAndMessages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.Warn("GET /x?pcode=hunter2 failed", "error", errors.New(`Get "http://portal/?pcode=hunter2": EOF`))

	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("password leaked: %s", buf.String())
	}
}

func TestSecureHandler_SanitizesSensitivePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "JWT", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc", want: true},
		{name: "bearer", value: "Bearer abc", want: true},
		{name: "basic", value: "Basic YWxhZGRpbjpvcGVuc2VzYW1l", want: true},
		{name: "cookie header value", value: "JSESSIONID=ABCDEF; Path=/", want: true},
		{name: "plain text", value: "违规节目", want: false},
		{name: "url without params", value: "http://net.tv.cn/top.jsp", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isSensitiveValue(tt.value); got != tt.want {
				t.Errorf("isSensitiveValue(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	var quiet, verbose bytes.Buffer
	NewSecureLogger(&quiet, false).Info("hidden")
	NewSecureLogger(&verbose, true).Debug("shown")

	if quiet.Len() != 0 {
		t.Errorf("expected info to be filtered without verbose, got %s", quiet.String())
	}
	if !strings.Contains(verbose.String(), "shown") {
		t.Errorf("expected debug output in verbose mode, got %s", verbose.String())
	}
}

func TestSecureHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf).With("password", "hunter2").WithGroup("mail")
	logger.Info("sending", slog.Group("auth", slog.String("user", "bot")), "receiver", "ops@example.com")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, "mail.receiver=ops@example.com") {
		t.Errorf("expected grouped attribute, got %s", out)
	}
}

func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSecureJSONLogger(&buf, false).Warn("login", "pcode", "hunter2")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["pcode"] != MaskValue {
		t.Errorf("pcode = %v", entry["pcode"])
	}
}

func TestRedactParams(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no params":               "no params",
		"a=1&pcode=x":             "a=1&pcode=" + MaskValue,
		"PMAIL=alice":             "PMAIL=" + MaskValue,
		"validateCode=ab12&b=2":   "validateCode=" + MaskValue + "&b=2",
		"subpcode=x":              "subpcode=x",
		`"password=abc" trailing`: `"password=` + MaskValue + `" trailing`,
	}
	for in, want := range tests {
		if got := redactParams(in); got != want {
			t.Errorf("redactParams(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	if h := NewSecureHandler(nil); h.handler == nil {
		t.Error("expected default handler")
	}
}
