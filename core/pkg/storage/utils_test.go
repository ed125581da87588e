package storage_test

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

var _ = Describe("Storage Utils", func() {
	Describe("BuildKey", func() {
		DescribeTable("key construction",
			func(components []string, expected string) {
				Expect(storage.BuildKey(components...)).To(Equal(expected))
			},
			Entry("no components", []string{}, ""),
			Entry("single component", []string{"objects"}, "objects"),
			Entry("skips empty components", []string{"", "objects", "", "id"}, "objects/id"),
		)

		It("should build object keys", func() {
			Expect(storage.ObjectKey("", "abc")).To(Equal("objects/abc"))
			Expect(storage.ObjectKey("tenant", "abc")).To(Equal("tenant/objects/abc"))
		})
	})

	Describe("PrepareCreate", func() {
		It("should assign an id and reset the version", func() {
			out, err := storage.PrepareCreate(storage.Object{
				Metadata: v1.Metadata{Kind: "fabric", Name: "a", Version: 7},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Version).To(BeZero())
			_, err = uuid.Parse(out.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep a supplied UUID", func() {
			id := uuid.NewString()
			out, err := storage.PrepareCreate(storage.Object{Metadata: v1.Metadata{ID: id, Kind: "fabric"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.ID).To(Equal(id))
		})

		It("should store a supplied UUID in canonical form", func() {
			id := uuid.New()
			out, err := storage.PrepareCreate(storage.Object{
				Metadata: v1.Metadata{ID: strings.ToUpper(id.String()), Kind: "fabric"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.ID).To(Equal(id.String()))
		})

		It("should reject a malformed id or a missing kind", func() {
			_, err := storage.PrepareCreate(storage.Object{Metadata: v1.Metadata{ID: "nope", Kind: "fabric"}})
			Expect(v1.IsBadRequest(err)).To(BeTrue())

			_, err = storage.PrepareCreate(storage.Object{})
			Expect(v1.IsBadRequest(err)).To(BeTrue())
		})
	})

	Describe("ApplyUpdate", func() {
		stored := storage.Object{
			Metadata: v1.Metadata{ID: "id", Kind: "fabric", Namespace: "default", Name: "a", Version: 1},
			Spec:     json.RawMessage(`{"selector":"old"}`),
		}

		It("should accept the current version and increment by one", func() {
			in := stored.DeepCopy()
			in.Spec = json.RawMessage(`{"selector":"new"}`)

			out, err := storage.ApplyUpdate(stored, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Version).To(BeEquivalentTo(2))
			Expect(string(out.Spec)).To(Equal(`{"selector":"new"}`))
		})

		It("should accept a supplied version ahead of the stored one", func() {
			in := stored.DeepCopy()
			in.Metadata.Version = 10

			out, err := storage.ApplyUpdate(stored, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Version).To(BeEquivalentTo(2))
		})

		It("should reject a stale version", func() {
			in := stored.DeepCopy()
			in.Metadata.Version = 0

			_, err := storage.ApplyUpdate(stored, in)
			Expect(v1.IsConflict(err)).To(BeTrue())
		})

		It("should keep identity fields", func() {
			in := stored.DeepCopy()
			in.Metadata.Kind = "switch"
			in.Metadata.Name = "renamed"
			in.Metadata.Labels = []string{"edge"}

			out, err := storage.ApplyUpdate(stored, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Kind).To(Equal("fabric"))
			Expect(out.Metadata.Name).To(Equal("a"))
			Expect(out.Metadata.Labels).To(Equal([]string{"edge"}))
		})
	})

	Describe("Storage types", func() {
		It("should parse supported types", func() {
			for _, t := range storage.GetAllStorageTypes() {
				parsed, err := storage.StorageTypeFromString(string(t))
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(t))
			}

			_, err := storage.StorageTypeFromString("badger")
			Expect(err).To(HaveOccurred())
		})

		It("should list the supported types for help texts", func() {
			Expect(storage.StorageTypeNames(", ")).To(Equal("memory, pebble, postgres"))
		})

		It("should only require a path for pebble", func() {
			Expect(storage.StorageTypeRequiresPath(storage.StorageTypePebble)).To(BeTrue())
			Expect(storage.StorageTypeRequiresPath(storage.StorageTypePostgres)).To(BeFalse())
		})
	})

	Describe("SortObjects", func() {
		It("should order by namespace then name", func() {
			objs := []storage.Object{
				{Metadata: v1.Metadata{Namespace: "b", Name: "a"}},
				{Metadata: v1.Metadata{Namespace: "a", Name: "z"}},
				{Metadata: v1.Metadata{Namespace: "a", Name: "b"}},
			}
			storage.SortObjects(objs)
			Expect(objs[0].Metadata.Name).To(Equal("b"))
			Expect(objs[1].Metadata.Name).To(Equal("z"))
			Expect(objs[2].Metadata.Namespace).To(Equal("b"))
		})
	})
})
