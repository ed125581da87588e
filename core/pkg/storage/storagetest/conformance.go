// Package storagetest holds the behaviour every storage backend must show.
// Backend test suites call DescribeConformance from a container node.
package storagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// NewObject returns an object of kind in namespace with the given name and a
// small spec payload.
func NewObject(kind, namespace, name string) storage.Object {
	return storage.Object{
		Metadata: v1.Metadata{Kind: kind, Namespace: namespace, Name: name},
		Spec:     json.RawMessage(fmt.Sprintf(`{"selector":%q}`, name)),
		Status:   json.RawMessage(`{"state":"initializing"}`),
	}
}

// DescribeConformance registers the shared backend specs. newBackend is
// called before every spec and the backend is closed after it.
func DescribeConformance(newBackend func() storage.Backend) {
	var (
		backend storage.Backend
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newBackend()
		DeferCleanup(func() {
			Expect(backend.Close()).To(Succeed())
		})
	})

	Describe("Create", func() {
		It("should assign an id and version 0", func() {
			in := NewObject("fabric", "default", "fabric-a")
			in.Metadata.Version = 42

			out, err := backend.Create(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.ID).NotTo(BeEmpty())
			Expect(out.Metadata.Version).To(BeZero())
			Expect(out.Spec).To(MatchJSON(in.Spec))
			Expect(out.Status).To(MatchJSON(in.Status))
		})

		It("should keep a caller supplied id", func() {
			in := NewObject("fabric", "default", "fabric-a")
			in.Metadata.ID = uuid.NewString()

			out, err := backend.Create(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.ID).To(Equal(in.Metadata.ID))

			_, err = backend.Create(ctx, in)
			Expect(v1.IsAlreadyExists(err)).To(BeTrue())
		})

		It("should return a supplied id in canonical form", func() {
			id := uuid.New()
			in := NewObject("fabric", "default", "fabric-a")
			in.Metadata.ID = strings.ToUpper(id.String())

			out, err := backend.Create(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.ID).To(Equal(id.String()))

			got, err := backend.Get(ctx, id.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata.ID).To(Equal(id.String()))
		})

		It("should store labels and empty payloads", func() {
			in := storage.Object{Metadata: v1.Metadata{Kind: "fabric", Name: "bare", Labels: []string{"edge"}}}

			out, err := backend.Create(ctx, in)
			Expect(err).NotTo(HaveOccurred())

			got, err := backend.Get(ctx, out.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata.Labels).To(Equal([]string{"edge"}))
		})
	})

	Describe("Get", func() {
		It("should return the stored object", func() {
			created, err := backend.Create(ctx, NewObject("fabric", "default", "fabric-a"))
			Expect(err).NotTo(HaveOccurred())

			got, err := backend.Get(ctx, created.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata).To(Equal(created.Metadata))
			Expect(got.Spec).To(MatchJSON(created.Spec))
		})

		It("should report NotFound for a missing id", func() {
			_, err := backend.Get(ctx, uuid.NewString())
			Expect(v1.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var created storage.Object

		BeforeEach(func() {
			var err error
			created, err = backend.Create(ctx, NewObject("fabric", "default", "fabric-a"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should increment the version by exactly one", func() {
			in := created.DeepCopy()
			in.Status = json.RawMessage(`{"state":"ready"}`)

			out, err := backend.Update(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Version).To(BeEquivalentTo(1))
			Expect(out.Status).To(MatchJSON(`{"state":"ready"}`))

			got, err := backend.Get(ctx, created.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata.Version).To(BeEquivalentTo(1))
			Expect(got.Status).To(MatchJSON(`{"state":"ready"}`))
		})

		It("should reject a stale version without changing the object", func() {
			first := created.DeepCopy()
			_, err := backend.Update(ctx, first)
			Expect(err).NotTo(HaveOccurred())

			stale := created.DeepCopy()
			stale.Status = json.RawMessage(`{"state":"error"}`)
			_, err = backend.Update(ctx, stale)
			Expect(v1.IsConflict(err)).To(BeTrue())

			got, err := backend.Get(ctx, created.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata.Version).To(BeEquivalentTo(1))
			Expect(got.Status).To(MatchJSON(created.Status))
		})

		It("should never decrease the version", func() {
			current := created
			for i := 0; i < 5; i++ {
				next, err := backend.Update(ctx, current)
				Expect(err).NotTo(HaveOccurred())
				Expect(next.Metadata.Version).To(Equal(current.Metadata.Version + 1))
				current = next
			}
		})

		It("should keep identity fields", func() {
			in := created.DeepCopy()
			in.Metadata.Name = "renamed"
			in.Metadata.Kind = "switch"

			out, err := backend.Update(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Metadata.Name).To(Equal("fabric-a"))
			Expect(out.Metadata.Kind).To(Equal("fabric"))
		})

		It("should report NotFound for a missing id", func() {
			in := created.DeepCopy()
			in.Metadata.ID = uuid.NewString()

			_, err := backend.Update(ctx, in)
			Expect(v1.IsNotFound(err)).To(BeTrue())
		})

		It("should let exactly one of two racing writers win", func() {
			const writers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()

					in := created.DeepCopy()
					in.Status = json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i))
					_, err := backend.Update(ctx, in)

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case v1.IsConflict(err):
						conflicts++
					default:
						Fail(fmt.Sprintf("unexpected error: %v", err))
					}
				}(i)
			}
			wg.Wait()

			Expect(successes).To(Equal(1))
			Expect(conflicts).To(Equal(writers - 1))

			got, err := backend.Get(ctx, created.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Metadata.Version).To(BeEquivalentTo(1))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, o := range []storage.Object{
				NewObject("fabric", "default", "fabric-a"),
				NewObject("fabric", "default", "fabric-b"),
				NewObject("fabric", "lab", "fabric-a"),
				NewObject("switch", "default", "leaf-1"),
			} {
				_, err := backend.Create(ctx, o)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		names := func(objs []storage.Object) []string {
			out := make([]string, 0, len(objs))
			for _, o := range objs {
				out = append(out, o.String())
			}
			return out
		}

		It("should return everything for an empty filter", func() {
			objs, err := backend.List(ctx, storage.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(objs).To(HaveLen(4))
		})

		It("should filter by kind", func() {
			objs, err := backend.List(ctx, storage.Filter{Kind: "fabric"})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(objs)).To(ConsistOf("fabric/default/fabric-a", "fabric/default/fabric-b", "fabric/lab/fabric-a"))
		})

		It("should filter by every non-empty field", func() {
			objs, err := backend.List(ctx, storage.Filter{Kind: "fabric", Namespace: "default", Name: "fabric-a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(objs)).To(ConsistOf("fabric/default/fabric-a"))

			byID, err := backend.List(ctx, storage.Filter{ID: objs[0].Metadata.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(byID).To(HaveLen(1))
		})

		It("should return an empty result without error when nothing matches", func() {
			objs, err := backend.List(ctx, storage.Filter{Kind: "router"})
			Expect(err).NotTo(HaveOccurred())
			Expect(objs).To(BeEmpty())
		})

		It("should count matching objects", func() {
			n, err := backend.Count(ctx, storage.Filter{Namespace: "default"})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(3))
		})
	})

	Describe("Delete", func() {
		It("should return the prior value and remove the object", func() {
			created, err := backend.Create(ctx, NewObject("fabric", "default", "fabric-a"))
			Expect(err).NotTo(HaveOccurred())

			deleted, err := backend.Delete(ctx, created.Metadata.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.Metadata).To(Equal(created.Metadata))

			_, err = backend.Get(ctx, created.Metadata.ID)
			Expect(v1.IsNotFound(err)).To(BeTrue())

			_, err = backend.Delete(ctx, created.Metadata.ID)
			Expect(v1.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Lifecycle", func() {
		It("should answer pings and expose metrics", func() {
			Expect(backend.Ping(ctx)).To(Succeed())

			_, _ = backend.Get(ctx, uuid.NewString())
			m := backend.Metrics()
			Expect(m.Name).To(Equal(backend.Name()))
			Expect(m.Errors).To(BeNumerically(">=", 1))
		})

		It("should refuse work on a cancelled context", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := backend.Create(cancelled, NewObject("fabric", "default", "fabric-a"))
			Expect(storage.IsContextCancelled(err)).To(BeTrue())
		})
	})
}
