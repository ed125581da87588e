package v1_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const (
	testKind      = "fabric"
	testNamespace = "default"
	testName      = "fabric-a"
)

var _ = Describe("Types", func() {
	Describe("Metadata", func() {
		It("should render the display form", func() {
			m := v1.Metadata{Kind: testKind, Namespace: testNamespace, Name: testName}
			Expect(m.String()).To(Equal("fabric/default/fabric-a"))
		})

		It("should deep copy labels", func() {
			m := &v1.Metadata{Name: testName, Labels: []string{"a"}}
			c := m.DeepCopy()
			c.Labels[0] = "b"
			Expect(m.Labels).To(Equal([]string{"a"}))
		})

		It("should deep copy nil as nil", func() {
			var m *v1.Metadata
			Expect(m.DeepCopy()).To(BeNil())
		})
	})

	Describe("VersionKind", func() {
		It("should render version/kind", func() {
			Expect(v1.VersionKind{Version: "v1alpha1", Kind: testKind}.String()).To(Equal("v1alpha1/fabric"))
		})

		It("should reject empty halves with a ConfigError", func() {
			err := v1.VersionKind{Kind: testKind}.Validate()
			Expect(v1.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("version"))

			err = v1.VersionKind{Version: "v1alpha1"}.Validate()
			Expect(v1.IsConfigError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("kind"))

			Expect(v1.VersionKind{Version: "v1alpha1", Kind: testKind}.Validate()).To(Succeed())
		})
	})

	Describe("NamespaceName", func() {
		m := v1.Metadata{Kind: testKind, Namespace: testNamespace, Name: testName}

		It("should match everything with All", func() {
			Expect(v1.All.IsAll()).To(BeTrue())
			Expect(v1.All.Matches(m)).To(BeTrue())
			Expect(v1.All.Matches(v1.Metadata{})).To(BeTrue())
		})

		It("should constrain by namespace", func() {
			Expect(v1.InNamespace(testNamespace).Matches(m)).To(BeTrue())
			Expect(v1.InNamespace("other").Matches(m)).To(BeFalse())
		})

		It("should constrain by namespace and name", func() {
			Expect(v1.Named(testNamespace, testName).Matches(m)).To(BeTrue())
			Expect(v1.Named(testNamespace, "other").Matches(m)).To(BeFalse())
			Expect(v1.Named(testNamespace, testName).IsAll()).To(BeFalse())
		})

		It("should render wildcards for unset fields", func() {
			Expect(v1.All.String()).To(Equal("*/*"))
			Expect(v1.InNamespace(testNamespace).String()).To(Equal("default/*"))
		})
	})
})
