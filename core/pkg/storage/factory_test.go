package storage_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/storage"
)

// stubBackend satisfies Backend for factory tests; it never stores anything
type stubBackend struct {
	storage.Counters
	name      string
	keyPrefix string
}

func (s *stubBackend) Get(context.Context, string) (storage.Object, error) {
	return storage.Object{}, nil
}

func (s *stubBackend) List(context.Context, storage.Filter) ([]storage.Object, error) {
	return nil, nil
}

func (s *stubBackend) Create(_ context.Context, obj storage.Object) (storage.Object, error) {
	return obj, nil
}

func (s *stubBackend) Update(_ context.Context, obj storage.Object) (storage.Object, error) {
	return obj, nil
}

func (s *stubBackend) Delete(context.Context, string) (storage.Object, error) {
	return storage.Object{}, nil
}

func (s *stubBackend) Name() string                { return s.name }
func (s *stubBackend) Close() error                { return nil }
func (s *stubBackend) Ping(context.Context) error  { return nil }
func (s *stubBackend) Metrics() storage.BackendMetrics {
	return s.Snapshot(s.name)
}
func (s *stubBackend) Count(context.Context, storage.Filter) (int64, error) {
	return 0, nil
}

var _ = Describe("Factory", func() {
	var (
		factory *storage.Factory
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		factory = storage.NewFactory()
		factory.Register(storage.StorageTypeMemory,
			func(_ context.Context, _ *storage.FactoryConfig, config storage.Config) (storage.Backend, error) {
				return &stubBackend{name: "memory", keyPrefix: config.KeyPrefix}, nil
			})
	})

	It("should create a registered backend", func() {
		backend, err := factory.Create(ctx, storage.MemoryFactoryConfig(), storage.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Name()).To(Equal("memory"))
	})

	It("should pass the configured key prefix", func() {
		cfg := storage.MemoryFactoryConfig()
		cfg.KeyPrefix = "tenant-a"

		backend, err := factory.Create(ctx, cfg, storage.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.(*stubBackend).keyPrefix).To(Equal("tenant-a"))
	})

	It("should reject an invalid configuration", func() {
		_, err := factory.Create(ctx, &storage.FactoryConfig{}, storage.Config{})
		Expect(err).To(MatchError(ContainSubstring("invalid storage configuration")))

		_, err = factory.Create(ctx, nil, storage.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("should reject an unregistered type", func() {
		_, err := factory.Create(ctx, storage.PebbleFactoryConfig("/tmp/x"), storage.Config{})
		Expect(err).To(MatchError(ContainSubstring("no backend registered for storage type pebble")))
	})

	It("should wrap constructor errors", func() {
		factory.Register(storage.StorageTypeMemory,
			func(context.Context, *storage.FactoryConfig, storage.Config) (storage.Backend, error) {
				return nil, errors.New("boom")
			})

		_, err := factory.Create(ctx, storage.MemoryFactoryConfig(), storage.Config{})
		Expect(err).To(MatchError("failed to create memory storage: boom"))
	})

	It("should list supported backends", func() {
		Expect(factory.SupportedBackends()).To(Equal([]string{"memory"}))
	})
})
