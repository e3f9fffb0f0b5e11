package db

import (
	"context"
	"strings"
	"testing"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "://not a dsn")
	if err == nil {
		t.Fatal("Expected error for invalid DSN")
	}
	if !strings.Contains(err.Error(), "invalid database DSN") {
		t.Errorf("Unexpected error: %v", err)
	}
}
