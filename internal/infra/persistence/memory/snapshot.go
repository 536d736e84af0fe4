package memory

import (
	"encoding/json"
	"fmt"
)

// Snapshot bucket names, in the order durable stores write them.
const (
	BucketBatches      = "batches"
	BucketTransfers    = "transfers"
	BucketCertificates = "certificates"
)

// SnapshotBuckets lists every bucket a durable store persists.
var SnapshotBuckets = []string{BucketBatches, BucketTransfers, BucketCertificates}

// EncodeBucket marshals one bucket of the snapshot.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketBatches:
		return json.Marshal(nonNil(s.Batches))
	case BucketTransfers:
		return json.Marshal(nonNil(s.Transfers))
	case BucketCertificates:
		return json.Marshal(nonNil(s.Certificates))
	default:
		return nil, fmt.Errorf("unknown snapshot bucket %q", bucket)
	}
}

// DecodeBucket unmarshals payload into the named bucket. Unknown buckets are
// ignored so that older binaries can read newer databases.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case BucketBatches:
		target = &s.Batches
	case BucketTransfers:
		target = &s.Transfers
	case BucketCertificates:
		target = &s.Certificates
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func nonNil[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
