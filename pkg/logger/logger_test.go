package logger

import "testing"

func TestInitAcceptsUnknownLevel(t *testing.T) {
	if err := Init("nonsense"); err != nil {
		t.Fatalf("Init returned error for unknown level: %v", err)
	}
	if Logger() == nil {
		t.Fatal("Logger returned nil after Init")
	}
}

func TestWithModuleNeverNil(t *testing.T) {
	if WithModule("authz") == nil {
		t.Fatal("WithModule returned nil")
	}
}
