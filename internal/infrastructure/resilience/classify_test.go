package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func TestCallReturnsValueAndSkipsNilExecutor(t *testing.T) {
	got, err := Call(context.Background(), nil, "op", func(context.Context) (int, error) { return 7, nil }, nil)
	if err != nil || got != 7 {
		t.Fatalf("Call(nil executor) = %d, %v", got, err)
	}

	exec := NewExecutor(Config{BreakerEnabled: false})
	out, err := Call(context.Background(), exec, "op", func(context.Context) ([]byte, error) {
		return []byte("pdf"), nil
	}, ClassifyRemote)
	if err != nil || string(out) != "pdf" {
		t.Fatalf("Call() = %q, %v", out, err)
	}
}

func TestDefaultConfigMakesSingleAttempt(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})
	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return &HTTPStatusError{StatusCode: http.StatusServiceUnavailable, Status: "503"}
	}, ClassifyRemote)
	if err == nil || attempts != 1 {
		t.Fatalf("expected one failed attempt, got %d attempts, err=%v", attempts, err)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyRemote(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"canceled", context.Canceled, ErrorClassification{}},
		{"bad gateway", &HTTPStatusError{StatusCode: http.StatusBadGateway}, ErrorClassification{Retryable: true, RecordFailure: true}},
		{"bad request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, ErrorClassification{}},
		{"net", fmt.Errorf("post: %w", timeoutErr{}), ErrorClassification{Retryable: true, RecordFailure: true}},
		{"other", errors.New("boom"), ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := ClassifyRemote(tc.err); got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestWrapTemporary(t *testing.T) {
	transient := WrapTemporary("upload", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, nil)
	if !domain.IsKind(transient, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", transient)
	}
	permanent := WrapTemporary("upload", &HTTPStatusError{StatusCode: http.StatusForbidden}, nil)
	if domain.IsKind(permanent, domain.ErrTemporary) {
		t.Fatalf("4xx must not be temporary")
	}
	if WrapTemporary("upload", nil, nil) != nil {
		t.Fatalf("nil stays nil")
	}
}
