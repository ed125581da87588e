package client_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
	memory "github.com/dtomasi/yangtze/storage/memory/pkg/storage"
)

var _ = Describe("UpdateIfChanged", func() {
	var (
		ctx     context.Context
		fabrics *client.LocalClient[v1alpha1.Fabric, *v1alpha1.Fabric]
		created *v1alpha1.Fabric
	)

	BeforeEach(func() {
		ctx = context.Background()
		store := memory.NewMemoryStorage(storage.Config{})
		DeferCleanup(store.Close)

		var err error
		fabrics, err = client.NewLocal[v1alpha1.Fabric](store, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())
		created, err = fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should skip the write when nothing changed", func() {
		out, written, err := client.UpdateIfChanged[v1alpha1.Fabric](ctx, fabrics, created, func(f *v1alpha1.Fabric) {
			f.Status.State = v1alpha1.FabricInitializing
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(BeFalse())
		Expect(out.Metadata.Version).To(BeZero())
	})

	It("should write a changed copy and leave the input alone", func() {
		out, written, err := client.UpdateIfChanged[v1alpha1.Fabric](ctx, fabrics, created, func(f *v1alpha1.Fabric) {
			f.Status.State = v1alpha1.FabricReady
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(BeTrue())
		Expect(out.Metadata.Version).To(BeEquivalentTo(1))
		Expect(out.Status.State).To(Equal(v1alpha1.FabricReady))
		Expect(created.Status.State).To(Equal(v1alpha1.FabricInitializing))
	})
})
