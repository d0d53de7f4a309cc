package logger

import "testing"

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"partial config", &Config{Level: "info", Encoding: "json"}},
		{"empty level filled", &Config{Encoding: "json", OutputPaths: []string{"stdout"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
			l.Info("probe")
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"invalid level", &Config{Level: "loud", Encoding: "json"}},
		{"invalid encoding", &Config{Level: "info", Encoding: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNamed_FallsBackForNonZap(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if named := Named(l, "cache"); named == nil {
		t.Fatal("Named() returned nil")
	}
}
