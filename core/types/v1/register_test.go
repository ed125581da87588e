package v1_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

var _ = Describe("Registry", func() {
	var registry *v1.Registry

	fabricInfo := v1.ResourceInfo{
		VersionKind: v1.VersionKind{Version: "v1alpha1", Kind: testKind},
		Singular:    "fabric",
		Plural:      "fabrics",
		ShortNames:  []string{"fab"},
	}

	BeforeEach(func() {
		registry = v1.NewRegistry()
		Expect(registry.Register(fabricInfo)).To(Succeed())
	})

	It("should resolve every name case-insensitively", func() {
		for _, name := range []string{"fabric", "fabrics", "fab", "FAB"} {
			info, ok := registry.Lookup(name)
			Expect(ok).To(BeTrue(), name)
			Expect(info.VersionKind.Kind).To(Equal(testKind))
		}

		_, ok := registry.Lookup("switch")
		Expect(ok).To(BeFalse())
	})

	It("should reject duplicate kinds and taken names", func() {
		Expect(registry.Register(fabricInfo)).NotTo(Succeed())

		err := registry.Register(v1.ResourceInfo{
			VersionKind: v1.VersionKind{Version: "v1alpha1", Kind: "fabricset"},
			ShortNames:  []string{"fab"},
		})
		Expect(err).To(MatchError(ContainSubstring(`"fab" already used`)))
	})

	It("should reject an invalid version kind", func() {
		err := registry.Register(v1.ResourceInfo{VersionKind: v1.VersionKind{Kind: "x"}})
		Expect(v1.IsConfigError(err)).To(BeTrue())
	})

	It("should list resources by kind", func() {
		Expect(registry.Register(v1.ResourceInfo{
			VersionKind: v1.VersionKind{Version: "v1alpha1", Kind: "aardvark"},
		})).To(Succeed())

		infos := registry.List()
		Expect(infos).To(HaveLen(2))
		Expect(infos[0].VersionKind.Kind).To(Equal("aardvark"))
	})
})
