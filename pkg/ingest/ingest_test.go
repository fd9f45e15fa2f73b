package ingest_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/chunker"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/embeddings"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/ingest"
	testutils "github.com/docentlabs/docent/pkg/utils/test"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

var _ = Describe("Pipeline", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		logger   *zap.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		logger = zap.NewNop()
	})

	newPipeline := func(workers, batchSize int) *ingest.Pipeline {
		chk, err := chunker.New(50, 10, nil)
		Expect(err).NotTo(HaveOccurred())
		return ingest.NewPipeline(ingest.Config{
			Chunker:    chk,
			Embedder:   embedder,
			NumWorkers: workers,
			BatchSize:  batchSize,
			Logger:     logger,
		})
	}

	It("fails with an empty corpus error when documents yield no fragments", func() {
		p := newPipeline(2, 4)
		_, err := p.Build(ctx, []corpus.Document{
			{ID: "d1", RawText: ""},
		})
		Expect(err).To(MatchError(index.ErrEmptyCorpus))

		_, err = p.Build(ctx, nil)
		Expect(err).To(MatchError(index.ErrEmptyCorpus))
	})

	It("builds an index over every fragment of every document", func() {
		p := newPipeline(2, 4)

		docs := []corpus.Document{
			{ID: "d1", SourceURI: "a.md", RawText: strings.Repeat("alpha ", 40)},
			{ID: "d2", SourceURI: "b.md", RawText: strings.Repeat("beta ", 40)},
		}

		idx, err := p.Build(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.Len()).To(BeNumerically(">", 2))
		Expect(idx.Dimensions()).To(Equal(3))
		Expect(embedder.Calls).To(Equal(idx.Len()))
	})

	It("preserves fragment order across the worker pool", func() {
		// Distinct per-text vectors expose any ordering mix-up.
		embedder.Embeddings = map[string][]float32{}
		p := newPipeline(4, 1)

		var docs []corpus.Document
		texts := []string{"one", "two", "three", "four", "five", "six", "seven"}
		for _, t := range texts {
			docs = append(docs, corpus.Document{ID: t, SourceURI: t + ".md", RawText: t})
			embedder.Embeddings[t] = []float32{float32(len(t)), 1, 0}
		}

		idx, err := p.Build(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.Len()).To(Equal(len(texts)))

		out := idx.Export()
		for i, t := range texts {
			Expect(out[i].Fragment.DocumentID).To(Equal(t))
			Expect(out[i].Vector).To(Equal([]float32{float32(len(t)), 1, 0}))
		}
	})

	It("surfaces an embedding failure instead of a partial index", func() {
		embedder.FailOn = "poison"
		p := newPipeline(2, 1)

		docs := []corpus.Document{
			{ID: "d1", SourceURI: "a.md", RawText: "fine"},
			{ID: "d2", SourceURI: "b.md", RawText: "poison"},
			{ID: "d3", SourceURI: "c.md", RawText: "also fine"},
		}

		_, err := p.Build(ctx, docs)
		Expect(err).To(MatchError(embeddings.ErrUnavailable))
	})

	It("stops on context cancellation", func() {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		p := newPipeline(2, 1)
		_, err := p.Build(cancelCtx, []corpus.Document{
			{ID: "d1", SourceURI: "a.md", RawText: "text"},
		})
		Expect(err).To(HaveOccurred())
	})
})
