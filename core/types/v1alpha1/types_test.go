package v1alpha1_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

var _ = Describe("Fabric", func() {
	It("should serialize state in lowercase and display it capitalized", func() {
		f := v1alpha1.NewFabric("default", "fabric-a", "role=leaf")
		f.InitStatus()

		data, err := json.Marshal(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"state":"initializing"`))
		Expect(f.Status.State.String()).To(Equal("Initializing"))
		Expect(v1alpha1.FabricReady.String()).To(Equal("Ready"))
	})

	It("should omit a nil status", func() {
		data, err := json.Marshal(v1alpha1.NewFabric("default", "fabric-a", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring("status"))
	})

	It("should expose its metadata by reference", func() {
		f := v1alpha1.NewFabric("default", "fabric-a", "")
		f.GetMetadata().Version = 3
		Expect(f.Metadata.Version).To(BeEquivalentTo(3))
		Expect(f.Metadata.Kind).To(Equal("fabric"))
	})
})

var _ = Describe("Switch", func() {
	It("should start initializing", func() {
		s := v1alpha1.NewSwitch("default", "leaf-1", "fabric-a")
		s.InitStatus()
		Expect(s.Status.State).To(Equal(v1alpha1.SwitchInitializing))
		Expect(s.Metadata.Kind).To(Equal("switch"))
	})
})

var _ = Describe("Registry", func() {
	It("should resolve fabric and switch names", func() {
		r := v1alpha1.NewRegistry()

		info, ok := r.Lookup("fab")
		Expect(ok).To(BeTrue())
		Expect(info.VersionKind).To(Equal(v1alpha1.FabricVersionKind))

		info, ok = r.Lookup("switches")
		Expect(ok).To(BeTrue())
		Expect(info.VersionKind).To(Equal(v1alpha1.SwitchVersionKind))
	})
})
