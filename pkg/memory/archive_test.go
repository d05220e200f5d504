package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/store/inmemory"
)

var _ = Describe("Context archive", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
		svc    *memory.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		svc = memory.NewService(driver, nil)
	})

	Describe("ArchiveContext", func() {
		It("stores one archived item per message, preserving order", func() {
			msgs := []string{"hello there", "how are you today", "fine"}
			n, err := svc.ArchiveContext(ctx, "conv-1", msgs, []string{"greeting"}, "claude", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))

			items, err := driver.FindContext(ctx, memory.ContextFilter{ConversationID: "conv-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))

			byIndex := make(map[int]*memory.ContextItem, len(items))
			for _, item := range items {
				byIndex[item.MessageIndex] = item
			}
			Expect(byIndex[0].Memories).To(Equal([]string{"hello there"}))
			Expect(byIndex[1].Memories).To(Equal([]string{"how are you today"}))
			Expect(byIndex[2].Memories).To(Equal([]string{"fine"}))

			for _, item := range items {
				Expect(item.Type).To(Equal(memory.TypeArchived))
				Expect(item.Tags).To(Equal([]string{"greeting"}))
				Expect(item.ConversationID).To(Equal("conv-1"))
				Expect(item.Scored()).To(BeFalse())
			}
			Expect(byIndex[1].WordCount).To(Equal(5))
		})

		It("accepts an empty batch and writes nothing", func() {
			n, err := svc.ArchiveContext(ctx, "conv-1", []string{}, []string{}, "claude", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			Expect(driver.CountContext()).To(BeZero())
		})

		It("writes nothing when validation fails", func() {
			_, err := svc.ArchiveContext(ctx, "", []string{"msg"}, []string{}, "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
			Expect(driver.CountContext()).To(BeZero())

			_, err = svc.ArchiveContext(ctx, "conv-1", nil, []string{}, "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
			Expect(driver.CountContext()).To(BeZero())

			_, err = svc.ArchiveContext(ctx, "conv-1", []string{"msg"}, nil, "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
			Expect(driver.CountContext()).To(BeZero())

			_, err = svc.ArchiveContext(ctx, "conv-1", []string{"msg"}, []string{}, "", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
			Expect(driver.CountContext()).To(BeZero())
		})
	})

	Describe("RetrieveContext", func() {
		// Seeds one conversation with three scored fragments and one
		// never-scored fragment.
		seedScored := func() {
			_, err := svc.ArchiveContext(ctx, "conv-1",
				[]string{"highly relevant", "somewhat relevant", "barely relevant", "never scored"},
				[]string{"topic"}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			items, err := driver.FindContext(ctx, memory.ContextFilter{ConversationID: "conv-1"})
			Expect(err).NotTo(HaveOccurred())

			scores := map[int]float64{0: 0.9, 1: 0.5, 2: 0.05}
			for _, item := range items {
				score, ok := scores[item.MessageIndex]
				if !ok {
					continue
				}
				Expect(driver.UpdateRelevanceScore(ctx, item.ID, score)).To(Succeed())
			}
		}

		It("returns fragments at or above the threshold, highest score first", func() {
			seedScored()

			items, err := svc.RetrieveContext(ctx, "conv-1", nil, 0.1, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Memories).To(Equal([]string{"highly relevant"}))
			Expect(items[1].Memories).To(Equal([]string{"somewhat relevant"}))
		})

		It("excludes never-scored fragments even at threshold zero", func() {
			seedScored()

			items, err := svc.RetrieveContext(ctx, "conv-1", nil, 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))
			for _, item := range items {
				Expect(item.Scored()).To(BeTrue())
			}
		})

		It("truncates results to the limit", func() {
			seedScored()

			items, err := svc.RetrieveContext(ctx, "conv-1", nil, 0, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(*items[0].RelevanceScore).To(BeNumerically(">=", *items[1].RelevanceScore))
		})

		It("narrows by tags when given", func() {
			seedScored()
			_, err := svc.ArchiveContext(ctx, "conv-1", []string{"other topic"}, []string{"elsewhere"}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			items, err := svc.RetrieveContext(ctx, "conv-1", []string{"topic"}, 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))
			for _, item := range items {
				Expect(item.HasTag("topic")).To(BeTrue())
			}
		})

		It("returns an empty slice for an unknown conversation", func() {
			items, err := svc.RetrieveContext(ctx, "conv-none", nil, 0.1, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("rejects out-of-range arguments", func() {
			_, err := svc.RetrieveContext(ctx, "", nil, 0.1, 10)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.RetrieveContext(ctx, "conv-1", nil, -0.1, 10)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.RetrieveContext(ctx, "conv-1", nil, 1.1, 10)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.RetrieveContext(ctx, "conv-1", nil, 0.1, 0)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.RetrieveContext(ctx, "conv-1", nil, 0.1, memory.MaxRetrieveLimit+1)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
		})
	})

	Describe("SearchContextByTags", func() {
		It("matches items sharing at least one tag across conversations and types", func() {
			_, err := svc.ArchiveContext(ctx, "conv-1", []string{"about go"}, []string{"go", "lang"}, "claude", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.ArchiveContext(ctx, "conv-2", []string{"about rust"}, []string{"rust"}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			items, err := svc.SearchContextByTags(ctx, []string{"go", "python"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Memories).To(Equal([]string{"about go"}))
		})

		It("returns an empty slice when nothing matches", func() {
			_, err := svc.ArchiveContext(ctx, "conv-1", []string{"msg"}, []string{"a"}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			items, err := svc.SearchContextByTags(ctx, []string{"zzz"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("rejects an empty tag set", func() {
			_, err := svc.SearchContextByTags(ctx, nil)
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.SearchContextByTags(ctx, []string{})
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
		})
	})
})
