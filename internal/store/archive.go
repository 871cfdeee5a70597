package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/montage-ui/guideflow/pkg/api"
)

type (
	// Archiver writes completed-flow records to a blob bucket. The bucket
	// URL selects the backing store: S3, GCS, Azure, local files, or
	// memory for tests.
	Archiver struct {
		bucket *blob.Bucket
		prefix string
	}

	// ArchiveRecord is the durable record of one completed flow execution
	ArchiveRecord struct {
		FlowID      api.FlowID                 `json:"flow_id"`
		ExecID      string                     `json:"exec_id,omitempty"`
		StepData    map[api.StepID]api.Payload `json:"step_data"`
		CompletedAt time.Time                  `json:"completed_at"`
	}
)

var ErrRecordNotFound = errors.New("archive record not found")

// NewArchiver opens the bucket at the given URL
func NewArchiver(
	ctx context.Context, bucketURL, prefix string,
) (*Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Archiver{bucket: bucket, prefix: prefix}, nil
}

// Put writes the record, keyed by flow id and execution id
func (a *Archiver) Put(ctx context.Context, rec *ArchiveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(rec), data, nil)
}

// Get retrieves a previously archived record
func (a *Archiver) Get(
	ctx context.Context, flowID api.FlowID, execID string,
) (*ArchiveRecord, error) {
	key := a.prefix + string(flowID) + "/" + execID + ".json"
	data, err := a.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var rec ArchiveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close releases the bucket
func (a *Archiver) Close() error {
	return a.bucket.Close()
}

func (a *Archiver) keyFor(rec *ArchiveRecord) string {
	return a.prefix + string(rec.FlowID) + "/" + rec.ExecID + ".json"
}
