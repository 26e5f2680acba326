// Package unitstore loads ad unit mappings from an S3 compatible bucket of
// JSON files and keeps the host's unit table in sync with it.
package unitstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/pkg/jsonx"
	"github.com/echoface/admediation/pkg/logger"
)

// Source is the unit source name the loader reports to the host.
const Source = "unit_store"

// ObjectStore is the part of the bucket API the loader needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// minioStore S3 对象存储实现
type minioStore struct {
	client     *minio.Client
	bucketName string
}

func (s *minioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects error: %w", object.Err)
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

func (s *minioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// Loader 广告位配置加载器
type Loader struct {
	store    ObjectStore
	prefix   string
	interval time.Duration
	log      logger.Logger
}

// New 创建基于 minio 的加载器
func New(cfg config.UnitStoreConfig, l logger.Logger) (*Loader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return NewWithStore(&minioStore{client: client, bucketName: cfg.BucketName}, cfg.Prefix, cfg.ScanInterval, l), nil
}

// NewWithStore builds a loader over any ObjectStore.
func NewWithStore(store ObjectStore, prefix string, interval time.Duration, l logger.Logger) *Loader {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Loader{
		store:    store,
		prefix:   prefix,
		interval: interval,
		log:      logger.Component(l, "unitstore"),
	}
}

// ListUnitFiles 列出所有广告位配置文件
func (s *Loader) ListUnitFiles(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, key := range keys {
		// 只处理 .json 文件
		if strings.HasSuffix(key, ".json") {
			files = append(files, key)
		}
	}

	// 按文件路径排序，确保一致性
	sort.Strings(files)
	return files, nil
}

// ReadUnitFile reads one file holding a unit object or an array of them.
func (s *Loader) ReadUnitFile(ctx context.Context, key string) ([]config.AdUnit, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	var units []config.AdUnit
	if len(data) > 0 && data[0] == '[' {
		err = jsonx.Unmarshal(data, &units)
	} else {
		var u config.AdUnit
		err = jsonx.Unmarshal(data, &u)
		units = []config.AdUnit{u}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal ad units from %s: %w", key, err)
	}
	return units, nil
}

// ReadAll 读取所有广告位. Unreadable or invalid files are skipped and
// logged; a unit id seen twice keeps the first file's unit.
func (s *Loader) ReadAll(ctx context.Context) ([]config.AdUnit, error) {
	keys, err := s.ListUnitFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit files: %w", err)
	}

	seen := make(map[string]string)
	var units []config.AdUnit
	for _, key := range keys {
		fileUnits, err := s.ReadUnitFile(ctx, key)
		if err != nil {
			// 记录错误但继续处理其他文件
			s.log.Warn("skipping unit file", "key", key, "err", err)
			continue
		}
		for _, u := range fileUnits {
			if err := u.Validate(); err != nil {
				s.log.Warn("skipping invalid unit", "key", key, "err", err)
				continue
			}
			if first, dup := seen[u.ID]; dup {
				s.log.Warn("duplicate unit id", "unit", u.ID, "key", key, "first", first)
				continue
			}
			seen[u.ID] = key
			units = append(units, u)
		}
	}
	return units, nil
}

// Watch 监控广告位配置变化. The first successful scan is always sent;
// later scans only when the unit set changed. The channel closes with ctx.
func (s *Loader) Watch(ctx context.Context) <-chan []config.AdUnit {
	changeCh := make(chan []config.AdUnit, 1)

	go func() {
		defer close(changeCh)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		var last []config.AdUnit
		sent := false
		scan := func() {
			units, err := s.ReadAll(ctx)
			if err != nil {
				s.log.Warn("unit scan failed", "err", err)
				return
			}
			if sent && reflect.DeepEqual(units, last) {
				return
			}
			select {
			case changeCh <- units:
				last, sent = units, true
			case <-ctx.Done():
			}
		}

		// 初始加载
		scan()
		for {
			select {
			case <-ticker.C:
				scan()
			case <-ctx.Done():
				return
			}
		}
	}()

	return changeCh
}

// Sync feeds every change seen by Watch to apply until ctx is done.
func (s *Loader) Sync(ctx context.Context, apply func([]config.AdUnit) error) {
	for units := range s.Watch(ctx) {
		if err := apply(units); err != nil {
			s.log.Error("failed to apply ad units", "err", err)
			continue
		}
		s.log.Info("ad units updated", "count", len(units))
	}
}
