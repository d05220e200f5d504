package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/store/inmemory"
)

var _ = Describe("Relevance scoring", func() {
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

	findByIndex := func(conversationID string, idx int) *memory.ContextItem {
		items, err := driver.FindContext(ctx, memory.ContextFilter{ConversationID: conversationID})
		Expect(err).NotTo(HaveOccurred())
		for _, item := range items {
			if item.MessageIndex == idx {
				return item
			}
		}
		Fail("no item at message index")
		return nil
	}

	It("persists the word-overlap ratio on every archived fragment", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1",
			[]string{"alpha gamma", "delta epsilon"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		n, err := svc.ScoreRelevance(ctx, "conv-1", "alpha beta", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		// {alpha, beta} vs {alpha, gamma}: 1 shared of 3 distinct words.
		first := findByIndex("conv-1", 0)
		Expect(first.Scored()).To(BeTrue())
		Expect(*first.RelevanceScore).To(BeNumerically("~", 1.0/3.0, 1e-9))

		// No overlap at all.
		second := findByIndex("conv-1", 1)
		Expect(second.Scored()).To(BeTrue())
		Expect(*second.RelevanceScore).To(BeZero())
	})

	It("scores identical text as 1", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1", []string{"same exact words"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.ScoreRelevance(ctx, "conv-1", "same exact words", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(*findByIndex("conv-1", 0).RelevanceScore).To(BeNumerically("==", 1))
	})

	It("ignores case and repeated words", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1", []string{"Alpha ALPHA beta"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.ScoreRelevance(ctx, "conv-1", "alpha beta beta", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(*findByIndex("conv-1", 0).RelevanceScore).To(BeNumerically("==", 1))
	})

	It("pins empty-against-empty to 0 rather than NaN", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1", []string{""}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		n, err := svc.ScoreRelevance(ctx, "conv-1", "", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))

		item := findByIndex("conv-1", 0)
		Expect(item.Scored()).To(BeTrue())
		Expect(*item.RelevanceScore).To(BeZero())
	})

	It("returns 0 when the conversation has no archived fragments", func() {
		n, err := svc.ScoreRelevance(ctx, "conv-none", "anything", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("leaves other conversations untouched", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1", []string{"alpha"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.ArchiveContext(ctx, "conv-2", []string{"alpha"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		n, err := svc.ScoreRelevance(ctx, "conv-1", "alpha", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))

		Expect(findByIndex("conv-2", 0).Scored()).To(BeFalse())
	})

	It("rescores on every call", func() {
		_, err := svc.ArchiveContext(ctx, "conv-1", []string{"alpha"}, []string{}, "claude", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.ScoreRelevance(ctx, "conv-1", "alpha", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(*findByIndex("conv-1", 0).RelevanceScore).To(BeNumerically("==", 1))

		_, err = svc.ScoreRelevance(ctx, "conv-1", "unrelated", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(*findByIndex("conv-1", 0).RelevanceScore).To(BeZero())
	})

	It("validates its arguments", func() {
		_, err := svc.ScoreRelevance(ctx, "", "text", "claude")
		Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))

		_, err = svc.ScoreRelevance(ctx, "conv-1", "text", "")
		Expect(err).To(BeAssignableToTypeOf(memory.ValidationError{}))
	})
})
