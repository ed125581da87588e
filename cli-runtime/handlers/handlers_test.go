package handlers_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/cli-runtime/handlers"
	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/pkg/validation"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
	memory "github.com/dtomasi/yangtze/storage/memory/pkg/storage"
)

const manifests = `
metadata: {kind: fabric, namespace: default, name: core}
spec: {selector: leaf-*}
---
metadata: {kind: switch, namespace: default, name: leaf-1}
spec: {fabric: core}
---
metadata: {kind: switch, namespace: lab, name: leaf-2}
spec: {fabric: core}
`

var _ = Describe("Handlers", func() {
	var (
		ctx      context.Context
		set      *handlers.Set
		factory  *handlers.HandlerFactory
		registry *v1.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		registry = v1alpha1.NewRegistry()
		validator, err := validation.ForRegistry(registry)
		Expect(err).NotTo(HaveOccurred())

		store := memory.NewMemoryStorage(storage.Config{Logger: GinkgoLogr})
		fabrics, err := client.NewLocal[v1alpha1.Fabric](store, v1alpha1.FabricVersionKind, client.WithValidator(validator))
		Expect(err).NotTo(HaveOccurred())
		switches, err := client.NewLocal[v1alpha1.Switch](store, v1alpha1.SwitchVersionKind, client.WithValidator(validator))
		Expect(err).NotTo(HaveOccurred())

		set = handlers.NewSet(registry)
		Expect(set.Add(handlers.For[v1alpha1.Fabric](v1alpha1.FabricInfo, fabrics))).To(Succeed())
		Expect(set.Add(handlers.For[v1alpha1.Switch](v1alpha1.SwitchInfo, switches))).To(Succeed())
		factory = handlers.NewHandlerFactory(set)
	})

	createAll := func() []any {
		objs, err := codec.DecodeManifests([]byte(manifests))
		Expect(err).NotTo(HaveOccurred())
		resp, err := factory.Create().Handle(ctx, &handlers.CreateRequest{Manifests: objs})
		Expect(err).NotTo(HaveOccurred())
		return resp.Created
	}

	Describe("Set", func() {
		It("should resolve every registered name", func() {
			for _, name := range []string{"fabric", "fabrics", "fab", "SW"} {
				_, err := set.Lookup(name)
				Expect(err).NotTo(HaveOccurred(), name)
			}
		})

		It("should reject unknown and duplicate resources", func() {
			_, err := set.Lookup("router")
			Expect(err).To(MatchError(ContainSubstring(`unknown resource type "router"`)))

			Expect(set.Add(handlers.For[v1alpha1.Fabric](v1alpha1.FabricInfo, nil))).
				To(MatchError(ContainSubstring("already added")))

			other := v1.ResourceInfo{VersionKind: v1.VersionKind{Version: "v1", Kind: "router"}}
			Expect(set.Add(handlers.For[v1alpha1.Fabric](other, nil))).
				To(MatchError(ContainSubstring("not registered")))
		})

		It("should report registered but unserved resources", func() {
			_, err := handlers.NewSet(registry).Lookup("fabric")
			Expect(err).To(MatchError(ContainSubstring("not served")))
		})
	})

	Describe("Create", func() {
		It("should create every manifest with its typed resource", func() {
			created := createAll()
			Expect(created).To(HaveLen(3))

			f, ok := created[0].(*v1alpha1.Fabric)
			Expect(ok).To(BeTrue())
			Expect(f.Metadata.ID).NotTo(BeEmpty())
			Expect(f.Status).To(HaveValue(HaveField("State", v1alpha1.FabricInitializing)))

			sw, ok := created[2].(*v1alpha1.Switch)
			Expect(ok).To(BeTrue())
			Expect(sw.Metadata.Namespace).To(Equal("lab"))
		})

		It("should stop at the first failure and return what was created", func() {
			objs, err := codec.DecodeManifests([]byte(`
metadata: {kind: fabric, namespace: default, name: core}
---
metadata: {kind: fabric, namespace: default, name: Not_Valid}
---
metadata: {kind: fabric, namespace: default, name: never}
`))
			Expect(err).NotTo(HaveOccurred())

			resp, err := factory.Create().Handle(ctx, &handlers.CreateRequest{Manifests: objs})
			Expect(v1.IsInvalid(err)).To(BeTrue())
			Expect(resp.Created).To(HaveLen(1))
		})

		It("should reject unknown fields and kinds", func() {
			bad, err := codec.DecodeManifest([]byte("metadata: {kind: fabric, name: core}\nspec: {color: red}\n"))
			Expect(err).NotTo(HaveOccurred())
			_, err = factory.Create().Handle(ctx, &handlers.CreateRequest{Manifests: []storage.Object{bad}})
			Expect(v1.IsDecodeError(err)).To(BeTrue())

			unknown, err := codec.DecodeManifest([]byte("metadata: {kind: router, name: r1}\n"))
			Expect(err).NotTo(HaveOccurred())
			_, err = factory.Create().Handle(ctx, &handlers.CreateRequest{Manifests: []storage.Object{unknown}})
			Expect(err).To(MatchError(ContainSubstring("unknown resource type")))
		})
	})

	Describe("Get", func() {
		var created []any

		BeforeEach(func() {
			created = createAll()
		})

		It("should get a single object by id", func() {
			id := created[0].(*v1alpha1.Fabric).Metadata.ID
			resp, err := factory.Get().Handle(ctx, &handlers.GetRequest{Resource: "fab", ID: id})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsCollection).To(BeFalse())
			Expect(resp.Info.VersionKind).To(Equal(v1alpha1.FabricVersionKind))
			Expect(resp.Items()).To(HaveLen(1))
		})

		It("should wrap NotFound", func() {
			_, err := factory.Get().Handle(ctx, &handlers.GetRequest{Resource: "fabric", ID: "missing"})
			Expect(v1.IsNotFound(err)).To(BeTrue())
		})

		It("should list by selector and filter", func() {
			resp, err := factory.Get().Handle(ctx, &handlers.GetRequest{Resource: "switches", Selector: v1.All})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsCollection).To(BeTrue())
			Expect(resp.Items()).To(HaveLen(2))

			resp, err = factory.Get().Handle(ctx, &handlers.GetRequest{Resource: "switches", Selector: v1.InNamespace("lab")})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Objects).To(HaveLen(1))

			resp, err = factory.Get().Handle(ctx, &handlers.GetRequest{
				Resource: "switches",
				Where:    "self.metadata.name == 'leaf-1'",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Objects).To(HaveLen(1))
			Expect(resp.Objects[0].(*v1alpha1.Switch).Metadata.Name).To(Equal("leaf-1"))
		})

		It("should reject invalid filters", func() {
			_, err := factory.Get().Handle(ctx, &handlers.GetRequest{Resource: "switches", Where: "self =="})
			Expect(err).To(MatchError(ContainSubstring("invalid filter")))
		})
	})

	Describe("Delete", func() {
		It("should delete every id and aggregate failures", func() {
			created := createAll()
			leaf1 := created[1].(*v1alpha1.Switch).Metadata.ID
			leaf2 := created[2].(*v1alpha1.Switch).Metadata.ID

			resp, err := factory.Delete().Handle(ctx, &handlers.DeleteRequest{
				Resource: "sw",
				IDs:      []string{leaf1, "missing", leaf2},
			})
			Expect(err).To(MatchError(ContainSubstring("failed to delete switch missing")))
			Expect(resp.Deleted).To(HaveLen(2))
		})

		It("should skip missing ids on request", func() {
			resp, err := factory.Delete().Handle(ctx, &handlers.DeleteRequest{
				Resource:       "fabric",
				IDs:            []string{"missing"},
				IgnoreNotFound: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Deleted).To(BeEmpty())
		})

		It("should require ids", func() {
			_, err := factory.Delete().Handle(ctx, &handlers.DeleteRequest{Resource: "fabric"})
			Expect(err).To(HaveOccurred())
		})
	})
})
