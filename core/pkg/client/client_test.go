package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/defaulting"
	"github.com/dtomasi/yangtze/core/pkg/server"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
	memory "github.com/dtomasi/yangtze/storage/memory/pkg/storage"
)

var _ = Describe("New", func() {
	DescribeTable("should reject unusable addresses",
		func(address string) {
			_, err := client.New(client.Config{Address: address})
			Expect(v1.IsConfigError(err)).To(BeTrue())
		},
		Entry("empty", ""),
		Entry("unparsable", "http://[::1"),
		Entry("unsupported scheme", "ftp://localhost:8080"),
		Entry("missing host", "http://"),
	)

	It("should reject an invalid version/kind", func() {
		c, err := client.New(client.Config{Address: client.DefaultAddress})
		Expect(err).NotTo(HaveOccurred())

		_, err = client.For[v1alpha1.Fabric](c, v1.VersionKind{Version: "v1alpha1"})
		Expect(v1.IsConfigError(err)).To(BeTrue())
	})
})

// runResourceSpecs describes the behaviour shared by the remote and the local
// client.
func runResourceSpecs(newClient func(store storage.Backend) client.ResourceInterface[v1alpha1.Fabric]) {
	var (
		ctx     context.Context
		store   storage.Backend
		fabrics client.ResourceInterface[v1alpha1.Fabric]
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewMemoryStorage(storage.Config{Logger: GinkgoLogr})
		DeferCleanup(store.Close)
		fabrics = newClient(store)
	})

	It("should run the fabric lifecycle", func() {
		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", "role=leaf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Metadata.ID).NotTo(BeEmpty())
		Expect(created.Metadata.Version).To(BeZero())
		Expect(created.Status.State).To(Equal(v1alpha1.FabricInitializing))

		ready := *created
		ready.Status = &v1alpha1.FabricStatus{State: v1alpha1.FabricReady}
		updated, err := fabrics.Update(ctx, &ready)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Metadata.Version).To(BeEquivalentTo(1))
		Expect(updated.Status.State).To(Equal(v1alpha1.FabricReady))

		_, err = fabrics.Update(ctx, &ready)
		Expect(v1.IsConflict(err)).To(BeTrue())

		fetched, err := fabrics.Get(ctx, created.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fetched.Metadata.Version).To(BeEquivalentTo(1))
		Expect(fetched.Status.State).To(Equal(v1alpha1.FabricReady))
	})

	It("should not modify the caller's object on create", func() {
		in := v1alpha1.NewFabric("default", "fabric-a", "role=leaf")
		_, err := fabrics.Create(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Metadata.ID).To(BeEmpty())
		Expect(in.Status).To(BeNil())
	})

	It("should filter lists by namespace and name", func() {
		for _, f := range []*v1alpha1.Fabric{
			v1alpha1.NewFabric("default", "fabric-a", ""),
			v1alpha1.NewFabric("default", "fabric-b", ""),
			v1alpha1.NewFabric("lab", "fabric-a", ""),
		} {
			_, err := fabrics.Create(ctx, f)
			Expect(err).NotTo(HaveOccurred())
		}

		all, err := fabrics.List(ctx, v1.All)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))

		inDefault, err := fabrics.List(ctx, v1.InNamespace("default"))
		Expect(err).NotTo(HaveOccurred())
		Expect(inDefault).To(HaveLen(2))

		named, err := fabrics.List(ctx, v1.Named("lab", "fabric-a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(named).To(HaveLen(1))
		Expect(named[0].Metadata.Namespace).To(Equal("lab"))

		none, err := fabrics.List(ctx, v1.InNamespace("nowhere"))
		Expect(err).NotTo(HaveOccurred())
		Expect(none).NotTo(BeNil())
		Expect(none).To(BeEmpty())
	})

	It("should report missing objects as NotFound", func() {
		_, err := fabrics.Get(ctx, uuid.NewString())
		Expect(v1.IsNotFound(err)).To(BeTrue())

		_, err = fabrics.Delete(ctx, uuid.NewString())
		Expect(v1.IsNotFound(err)).To(BeTrue())
	})

	It("should hide objects of another kind", func() {
		sw, err := store.Create(ctx, storage.Object{Metadata: v1.Metadata{Kind: "switch", Name: "leaf-1"}})
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.Get(ctx, sw.Metadata.ID)
		Expect(v1.IsNotFound(err)).To(BeTrue())
	})

	It("should reject an object of another kind", func() {
		in := v1alpha1.NewFabric("default", "fabric-a", "")
		in.Metadata.Kind = "switch"

		_, err := fabrics.Create(ctx, in)
		Expect(v1.IsBadRequest(err)).To(BeTrue())
	})

	It("should report undecodable stored data as a decode error", func() {
		broken, err := store.Create(ctx, storage.Object{
			Metadata: v1.Metadata{Kind: "fabric", Namespace: "default", Name: "broken"},
			Spec:     []byte(`{"selector":42}`),
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.Get(ctx, broken.Metadata.ID)
		Expect(v1.IsDecodeError(err)).To(BeTrue())

		_, err = fabrics.List(ctx, v1.All)
		Expect(v1.IsDecodeError(err)).To(BeTrue())
	})

	It("should leave undecodable stored data in place on delete", func() {
		legacy, err := store.Create(ctx, storage.Object{
			Metadata: v1.Metadata{Kind: "fabric", Namespace: "default", Name: "legacy"},
			Spec:     []byte(`{"legacyField":1}`),
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.Delete(ctx, legacy.Metadata.ID)
		Expect(v1.IsDecodeError(err)).To(BeTrue())

		kept, err := store.Get(ctx, legacy.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(kept.Spec).To(MatchJSON(`{"legacyField":1}`))
	})

	It("should delete and return the prior value", func() {
		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())

		deleted, err := fabrics.Delete(ctx, created.Metadata.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(created))

		_, err = fabrics.Get(ctx, created.Metadata.ID)
		Expect(v1.IsNotFound(err)).To(BeTrue())
	})
}

var _ = Describe("ResourceClient", func() {
	runResourceSpecs(func(store storage.Backend) client.ResourceInterface[v1alpha1.Fabric] {
		srv, err := server.New(server.Config{Storage: store, Logger: GinkgoLogr})
		Expect(err).NotTo(HaveOccurred())
		Expect(server.Register[v1alpha1.Fabric](srv, v1alpha1.FabricVersionKind)).To(Succeed())

		ts := httptest.NewServer(srv.Handler())
		DeferCleanup(ts.Close)

		c, err := client.New(client.Config{Address: ts.URL, Logger: GinkgoLogr})
		Expect(err).NotTo(HaveOccurred())
		fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())
		return fabrics
	})

	It("should wrap server errors in a RemoteError", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream gone"))
		}))
		DeferCleanup(ts.Close)

		c, err := client.New(client.Config{Address: ts.URL})
		Expect(err).NotTo(HaveOccurred())
		fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.Get(context.Background(), uuid.NewString())
		var re *v1.RemoteError
		Expect(err).To(BeAssignableToTypeOf(re))
		re = err.(*v1.RemoteError)
		Expect(re.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(re.Error()).To(ContainSubstring("upstream gone"))
	})

	It("should report an unparsable response as a decode error", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"metadata":`))
		}))
		DeferCleanup(ts.Close)

		c, err := client.New(client.Config{Address: ts.URL})
		Expect(err).NotTo(HaveOccurred())
		fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.Get(context.Background(), uuid.NewString())
		Expect(v1.IsDecodeError(err)).To(BeTrue())
	})

	It("should report an unreachable server as a RemoteError without status", func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		address := ts.URL
		ts.Close()

		c, err := client.New(client.Config{Address: address})
		Expect(err).NotTo(HaveOccurred())
		fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())

		_, err = fabrics.List(context.Background(), v1.All)
		Expect(v1.IsRemoteError(err)).To(BeTrue())
		Expect(err.(*v1.RemoteError).StatusCode).To(BeZero())
	})
})

var _ = Describe("LocalClient", func() {
	runResourceSpecs(func(store storage.Backend) client.ResourceInterface[v1alpha1.Fabric] {
		fabrics, err := client.NewLocal[v1alpha1.Fabric](store, v1alpha1.FabricVersionKind)
		Expect(err).NotTo(HaveOccurred())
		return fabrics
	})

	It("should require a store", func() {
		_, err := client.NewLocal[v1alpha1.Fabric](nil, v1alpha1.FabricVersionKind)
		Expect(v1.IsConfigError(err)).To(BeTrue())
	})

	It("should apply declared defaults on create only", func() {
		ctx := context.Background()
		store := memory.NewMemoryStorage(storage.Config{Logger: GinkgoLogr})
		DeferCleanup(store.Close)

		defaulter, err := defaulting.ForRegistry(v1alpha1.NewRegistry())
		Expect(err).NotTo(HaveOccurred())
		fabrics, err := client.NewLocal[v1alpha1.Fabric](store, v1alpha1.FabricVersionKind,
			client.WithDefaulter(defaulter))
		Expect(err).NotTo(HaveOccurred())

		created, err := fabrics.Create(ctx, v1alpha1.NewFabric("", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Metadata.Namespace).To(Equal(v1alpha1.DefaultNamespace))
		Expect(created.Spec.Selector).To(Equal("*"))

		cleared := *created
		cleared.Spec.Selector = ""
		updated, err := fabrics.Update(ctx, &cleared)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Spec.Selector).To(BeEmpty())
	})
})
