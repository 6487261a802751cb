package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/netx"
	"github.com/klauspost/compress/zstd"
)

const snapshotVersion = 1

// Snapshot is the document stored by Backup.
type Snapshot struct {
	Version        int                    `json:"version"`
	UserID         string                 `json:"userId"`
	CreatedAt      time.Time              `json:"createdAt"`
	Objects        []models.Object        `json:"objects"`
	ScheduledItems []models.ScheduledItem `json:"scheduledItems"`
}

// BackupResult describes an uploaded snapshot.
type BackupResult struct {
	Key        string `json:"key"`
	Size       int    `json:"size"`
	Compressed int    `json:"compressed"`
}

type uploadFunc func(ctx context.Context, url string, data []byte, contentType string) error

var defaultUpload uploadFunc = netx.UploadToPresignedURL

// zstd encoders and decoders are safe for concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("syncer: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("syncer: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeSnapshot returns the zstd-compressed JSON of s and its raw size.
func EncodeSnapshot(s Snapshot) ([]byte, int, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, 0, fmt.Errorf("encode snapshot: %w", err)
	}
	return encoder.EncodeAll(raw, nil), len(raw), nil
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("zstd decompress: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}

// Backup compresses the current model and uploads it to a presigned
// object-storage URL issued by the server.
func (e *Engine) Backup(ctx context.Context) (BackupResult, error) {
	snap := Snapshot{
		Version:        snapshotVersion,
		UserID:         e.model.UserID(),
		CreatedAt:      time.Now().UTC(),
		Objects:        e.model.Objects(),
		ScheduledItems: e.model.ScheduledItems(),
	}
	data, size, err := EncodeSnapshot(snap)
	if err != nil {
		return BackupResult{}, err
	}

	target, err := e.remote.PresignBackup(ctx)
	if err != nil {
		return BackupResult{}, fmt.Errorf("presign backup: %w", err)
	}
	if err := e.upload(ctx, target.URL, data, netx.ContentTypeZstd); err != nil {
		return BackupResult{}, fmt.Errorf("upload backup: %w", err)
	}

	e.logger.Info(ctx, "backup uploaded", "key", target.Key, "size", size, "compressed", len(data))
	return BackupResult{Key: target.Key, Size: size, Compressed: len(data)}, nil
}
