package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"gazeta/internal/logging"
	"gazeta/internal/media"
	"gazeta/internal/metrics"
)

const Prefix = "backups/"

// Snapshotter writes a consistent copy of the database.
type Snapshotter interface {
	WriteTo(w io.Writer) (int64, error)
}

// Objects is the part of the media client a backup needs.
type Objects interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]media.Object, error)
	Delete(ctx context.Context, key string) error
}

// Job uploads gzip-compressed database snapshots and keeps the newest Keep of them.
type Job struct {
	db      Snapshotter
	objects Objects
	keep    int
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewJob(db Snapshotter, objects Objects, keep int, log *zap.Logger, m *metrics.Metrics) *Job {
	if keep < 1 {
		keep = 1
	}
	return &Job{
		db:      db,
		objects: objects,
		keep:    keep,
		now:     time.Now,
		log:     logging.OrNop(log).Named("backup"),
		metrics: m,
	}
}

// Key names the backup object taken at t.
func Key(t time.Time) string {
	return fmt.Sprintf("%sgazeta-%s.db.gz", Prefix, t.UTC().Format("2006-01-02T15-04-05Z"))
}

// Run takes one backup and rotates old ones. It returns the new object key.
func (j *Job) Run(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	n, err := j.db.WriteTo(gz)
	if err != nil {
		j.metrics.Backup(false)
		return "", fmt.Errorf("backup: snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		j.metrics.Backup(false)
		return "", fmt.Errorf("backup: compress: %w", err)
	}

	key := Key(j.now())
	if err := j.objects.Put(ctx, key, buf.Bytes(), "application/gzip"); err != nil {
		j.metrics.Backup(false)
		return "", err
	}
	j.metrics.Backup(true)
	j.log.Info("backup uploaded", zap.String("key", key), zap.Int64("raw_bytes", n), zap.Int("gzip_bytes", buf.Len()))

	if err := j.rotate(ctx); err != nil {
		j.log.Warn("backup rotation failed", zap.Error(err))
	}
	return key, nil
}

func (j *Job) rotate(ctx context.Context) error {
	objs, err := j.objects.List(ctx, Prefix)
	if err != nil {
		return err
	}
	if len(objs) <= j.keep {
		return nil
	}
	for _, o := range objs[j.keep:] {
		if err := j.objects.Delete(ctx, o.Key); err != nil {
			j.log.Warn("delete old backup", zap.String("key", o.Key), zap.Error(err))
			continue
		}
		j.log.Info("old backup deleted", zap.String("key", o.Key))
	}
	return nil
}
