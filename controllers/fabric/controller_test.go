package fabric_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/controllers/fabric"
	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
	memory "github.com/dtomasi/yangtze/storage/memory/pkg/storage"
)

var _ = Describe("Controller", func() {
	var (
		ctx      context.Context
		store    storage.Backend
		fabrics  *client.LocalClient[v1alpha1.Fabric, *v1alpha1.Fabric]
		switches *client.LocalClient[v1alpha1.Switch, *v1alpha1.Switch]
		ctrl     *fabric.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewMemoryStorage(storage.Config{Logger: GinkgoLogr})
		DeferCleanup(store.Close)

		var err error
		fabrics, err = client.NewLocal[v1alpha1.Fabric](store, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())
		switches, err = client.NewLocal[v1alpha1.Switch](store, v1alpha1.SwitchVersionKind)
		Expect(err).NotTo(HaveOccurred())
		ctrl = fabric.New(switches)
	})

	addSwitch := func(namespace, name, fabricName string, state v1alpha1.SwitchState) {
		created, err := switches.Create(ctx, v1alpha1.NewSwitch(namespace, name, fabricName))
		Expect(err).NotTo(HaveOccurred())
		created.Status = &v1alpha1.SwitchStatus{State: state}
		_, err = switches.Update(ctx, created)
		Expect(err).NotTo(HaveOccurred())
	}

	It("should move an initializing fabric to ready and count its switches", func() {
		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())

		addSwitch("default", "leaf-1", "fabric-a", v1alpha1.SwitchReady)
		addSwitch("default", "leaf-2", "fabric-a", v1alpha1.SwitchError)
		addSwitch("default", "leaf-3", "fabric-b", v1alpha1.SwitchReady)
		addSwitch("lab", "leaf-4", "fabric-a", v1alpha1.SwitchReady)

		Expect(ctrl.Execute(ctx, fabrics, created)).To(Succeed())

		got, err := fabrics.Get(ctx, created.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Metadata.Version).To(BeEquivalentTo(1))
		Expect(got.Status).To(Equal(&v1alpha1.FabricStatus{State: v1alpha1.FabricReady, Total: 2, Available: 1}))
	})

	It("should not write when the status is already current", func() {
		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())

		Expect(ctrl.Execute(ctx, fabrics, created)).To(Succeed())
		Expect(ctrl.Execute(ctx, fabrics, created)).To(Succeed())

		got, err := fabrics.Get(ctx, created.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Metadata.Version).To(BeEquivalentTo(1))
	})

	It("should initialize a fabric stored without status", func() {
		obj, err := store.Create(ctx, storage.Object{
			Metadata: v1alpha1.NewFabric("default", "bare", "").Metadata,
			Spec:     []byte(`{"selector":""}`),
		})
		Expect(err).NotTo(HaveOccurred())
		bare, err := fabrics.Get(ctx, obj.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(bare.Status).To(BeNil())

		Expect(ctrl.Execute(ctx, fabrics, bare)).To(Succeed())

		got, err := fabrics.Get(ctx, obj.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status.State).To(Equal(v1alpha1.FabricInitializing))
	})

	It("should fail for a fabric that no longer exists", func() {
		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())
		_, err = fabrics.Delete(ctx, created.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())

		Expect(ctrl.Execute(ctx, fabrics, created)).NotTo(Succeed())
	})
})
