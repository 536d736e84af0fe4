package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		want Driver
	}{
		{"default fs", Config{FSRoot: t.TempDir()}, DriverFilesystem},
		{"explicit fs", Config{Driver: DriverFilesystem, FSRoot: t.TempDir()}, DriverFilesystem},
		{"memory", Config{Driver: DriverMemory}, DriverMemory},
		{"s3", Config{Driver: DriverS3, S3: S3Config{Bucket: "archive", Region: "eu-west-1", AccessKeyID: "k", SecretAccessKey: "s"}}, DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if s.Driver() != tc.want {
				t.Fatalf("driver = %s, want %s", s.Driver(), tc.want)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Config{Driver: "tape"}); err == nil || !strings.Contains(err.Error(), "tape") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

// Every backend honours the same create-only contract.
func TestBackendsShareContract(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for _, s := range []Store{NewMemory(), fsStore, NewMockS3ForTests()} {
		t.Run(string(s.Driver()), func(t *testing.T) {
			key := "provenance/batch_1/ledger-1.json"
			if _, err := s.Head(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := s.Put(ctx, key, strings.NewReader(`{"n":1}`), PutOptions{ContentType: "application/json"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := s.Put(ctx, key, strings.NewReader(`{"n":2}`), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
			_, rc, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, _ := io.ReadAll(rc)
			_ = rc.Close()
			if string(body) != `{"n":1}` {
				t.Fatalf("body = %q", body)
			}
			list, err := s.List(ctx, "provenance/batch_1/")
			if err != nil || len(list) != 1 {
				t.Fatalf("list = %+v %v", list, err)
			}
		})
	}
}
