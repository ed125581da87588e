package defaulting_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/defaulting"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

var _ = Describe("Manager", func() {
	var manager *defaulting.Manager

	BeforeEach(func() {
		var err error
		manager, err = defaulting.ForRegistry(v1alpha1.NewRegistry())
		Expect(err).NotTo(HaveOccurred())
	})

	fabric := func(namespace, spec string) storage.Object {
		obj := storage.Object{Metadata: v1.Metadata{Kind: "fabric", Namespace: namespace, Name: "core"}}
		if spec != "" {
			obj.Spec = json.RawMessage(spec)
		}
		return obj
	}

	It("should know which kinds declare defaults", func() {
		Expect(manager.HasDefaultsFor("fabric")).To(BeTrue())
		Expect(manager.HasDefaultsFor("switch")).To(BeTrue())
		Expect(manager.HasDefaultsFor("router")).To(BeFalse())
	})

	It("should fill in missing and empty fields", func() {
		out, err := manager.Default(fabric("", `{"selector":""}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Metadata.Namespace).To(Equal(v1alpha1.DefaultNamespace))
		Expect(out.Spec).To(MatchJSON(`{"selector":"*"}`))
		Expect(out.Status).To(BeNil())
	})

	It("should create missing parent objects", func() {
		out, err := manager.Default(fabric("lab", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Spec).To(MatchJSON(`{"selector":"*"}`))
	})

	It("should keep values that are already set", func() {
		in := fabric("lab", `{"selector":"role=leaf"}`)
		out, err := manager.Default(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Metadata.Namespace).To(Equal("lab"))
		Expect(out.Spec).To(MatchJSON(in.Spec))
	})

	It("should leave kinds without defaults untouched", func() {
		in := storage.Object{Metadata: v1.Metadata{Kind: "router", Name: "r1"}}
		out, err := manager.Default(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})

	It("should fail when a parent is not an object", func() {
		_, err := manager.Default(fabric("lab", `"scalar"`))
		Expect(err).To(MatchError(ContainSubstring("spec is not an object")))
	})

	DescribeTable("Register should reject invalid fields",
		func(field string) {
			err := defaulting.NewManager().Register(v1.ResourceInfo{
				VersionKind: v1.VersionKind{Version: "v1alpha1", Kind: "router"},
				Defaults:    []v1.DefaultValue{{Field: field, Value: "x"}},
			})
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("leading dot", ".spec"),
		Entry("trailing dot", "spec."),
		Entry("identity", "metadata.id"),
		Entry("kind", "metadata.kind"),
	)
})
