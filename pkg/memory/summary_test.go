package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/store/inmemory"
)

var _ = Describe("Conversation summaries", func() {
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

	archived := func(conversationID string) []*memory.ContextItem {
		items, err := driver.FindContext(ctx, memory.ContextFilter{
			ConversationID: conversationID,
			Types:          []memory.ContextType{memory.TypeArchived},
		})
		Expect(err).NotTo(HaveOccurred())
		return items
	}

	Describe("CreateSummary", func() {
		It("inserts a summary item and relinks its sources", func() {
			_, err := svc.ArchiveContext(ctx, "conv-1",
				[]string{"first message", "second message"}, []string{}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			sources := archived("conv-1")
			Expect(sources).To(HaveLen(2))

			summaryID, err := svc.CreateSummary(ctx, "conv-1", sources,
				"both messages condensed", "claude", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaryID).NotTo(BeEmpty())

			for _, item := range archived("conv-1") {
				Expect(item.Type).To(Equal(memory.TypeArchived))
				Expect(item.ParentContextID).To(Equal(summaryID))
			}

			summaries, err := svc.GetConversationSummaries(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].ID).To(Equal(summaryID))
			Expect(summaries[0].Type).To(Equal(memory.TypeSummary))
			Expect(summaries[0].SummaryText).To(Equal("both messages condensed"))
			Expect(summaries[0].Memories).To(Equal([]string{"both messages condensed"}))
			Expect(summaries[0].WordCount).To(Equal(3))
		})

		It("skips source items without an id", func() {
			_, err := svc.ArchiveContext(ctx, "conv-1", []string{"kept"}, []string{}, "claude", "")
			Expect(err).NotTo(HaveOccurred())
			sources := archived("conv-1")

			withBlank := append([]*memory.ContextItem{{}, nil}, sources...)
			summaryID, err := svc.CreateSummary(ctx, "conv-1", withBlank, "condensed", "claude", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(archived("conv-1")[0].ParentContextID).To(Equal(summaryID))
		})

		It("accepts an empty source list", func() {
			summaryID, err := svc.CreateSummary(ctx, "conv-1",
				[]*memory.ContextItem{}, "nothing to fold in", "claude", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaryID).NotTo(BeEmpty())

			summaries, err := svc.GetConversationSummaries(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
		})

		It("validates its arguments without writing", func() {
			_, err := svc.CreateSummary(ctx, "", []*memory.ContextItem{}, "text", "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.CreateSummary(ctx, "conv-1", nil, "text", "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.CreateSummary(ctx, "conv-1", []*memory.ContextItem{}, "", "claude", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			_, err = svc.CreateSummary(ctx, "conv-1", []*memory.ContextItem{}, "text", "", "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

			Expect(driver.CountContext()).To(BeZero())
		})
	})

	Describe("GetConversationSummaries", func() {
		It("returns only summaries of the requested conversation", func() {
			_, err := svc.CreateSummary(ctx, "conv-1", []*memory.ContextItem{}, "one", "claude", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateSummary(ctx, "conv-2", []*memory.ContextItem{}, "two", "claude", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.ArchiveContext(ctx, "conv-1", []string{"raw"}, []string{}, "claude", "")
			Expect(err).NotTo(HaveOccurred())

			summaries, err := svc.GetConversationSummaries(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].SummaryText).To(Equal("one"))
		})

		It("returns an empty slice when there are none", func() {
			summaries, err := svc.GetConversationSummaries(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).NotTo(BeNil())
			Expect(summaries).To(BeEmpty())
		})

		It("requires a conversation id", func() {
			_, err := svc.GetConversationSummaries(ctx, "")
			Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
		})
	})
})
