package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shubh1021/AgriTrace/internal/blob/core"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Bucket: " "}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 || s.Bucket() != mockBucket {
		t.Fatalf("unexpected store %s %s", s.Driver(), s.Bucket())
	}
	payload := `{"batchId":"batch_1","ledgerLength":2}`
	info, err := s.Put(ctx, "provenance/batch_1/ledger-2.json", strings.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"batch-id": "batch_1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "provenance/batch_1/ledger-2.json" || info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Metadata["batch-id"] != "batch_1" {
		t.Fatalf("metadata not round-tripped: %+v", info.Metadata)
	}
	got, rc, err := s.Get(ctx, "provenance/batch_1/ledger-2.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != payload || got.ContentType != "application/json" {
		t.Fatalf("unexpected object %q %+v", body, got)
	}
}

func TestMockStoreCreateOnlyAndMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if _, err := s.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := s.Put(ctx, "k.json", bytes.NewReader([]byte("one")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "k.json", bytes.NewReader([]byte("two")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestMockStoreListPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("provenance/batch_1/ledger-%d.json", i)
		if _, err := s.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if _, err := s.Put(ctx, "provenance/batch_2/ledger-0.json", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := s.List(ctx, "provenance/batch_1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 objects across pages, got %d", len(list))
	}
	for i, inf := range list {
		if want := fmt.Sprintf("provenance/batch_1/ledger-%d.json", i); inf.Key != want {
			t.Fatalf("list[%d] = %s, want %s", i, inf.Key, want)
		}
	}
}

func TestPrefixIsTransparent(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, Config{
		Bucket:          mockBucket,
		Prefix:          "/agritrace/",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIAMOCK",
		SecretAccessKey: "mock-secret",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: newMockTransport()},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Put(ctx, "provenance/b/ledger-0.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := s.List(ctx, "provenance/")
	if err != nil || len(list) != 1 || list[0].Key != "provenance/b/ledger-0.json" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
}

func TestPresignURL(t *testing.T) {
	s := NewMockForTests()
	u, err := s.PresignURL(context.Background(), "provenance/b/ledger-0.json", core.SignedURLOptions{Expiry: time.Minute})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(u, "/mock-bucket/provenance/b/ledger-0.json") || !strings.Contains(u, "X-Amz-Expires=60") {
		t.Fatalf("unexpected url %s", u)
	}
}

func TestDecodeAWSChunked(t *testing.T) {
	body := []byte("5\r\nhello\r\n6\r\n world\r\n0\r\nx-amz-checksum-crc32:abc=\r\n\r\n")
	got, ok := decodeAWSChunked(body)
	if !ok || string(got) != "hello world" {
		t.Fatalf("decode = %q %v", got, ok)
	}
	if _, ok := decodeAWSChunked([]byte(`{"plain":true}`)); ok {
		t.Fatalf("plain body must not decode")
	}
	if _, ok := decodeAWSChunked([]byte("zz\r\nabc")); ok {
		t.Fatalf("bad size must not decode")
	}
}
