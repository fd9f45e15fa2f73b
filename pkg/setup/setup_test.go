package setup_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/setup"
	"github.com/docentlabs/docent/pkg/tokens"
)

func TestSetup(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Setup Suite")
}

var _ = Describe("Setup", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
	})

	Describe("Counter", func() {
		It("builds the heuristic counter by default", func() {
			counter, err := setup.Counter(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(counter).To(BeAssignableToTypeOf(tokens.HeuristicCounter{}))
		})
	})

	Describe("Chunker", func() {
		It("builds from the configured parameters", func() {
			chk, err := setup.Chunker(cfg, tokens.HeuristicCounter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chk).NotTo(BeNil())
		})

		It("rejects invalid chunking parameters", func() {
			cfg.Chunking.Overlap = cfg.Chunking.MaxSize
			_, err := setup.Chunker(cfg, tokens.HeuristicCounter{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Embedder", func() {
		It("builds the ollama embedder by default", func() {
			e, err := setup.Embedder(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).NotTo(BeNil())
			Expect(e.Close()).To(Succeed())
		})

		It("rejects an openai embedder without an API key", func() {
			cfg.Embedding.Provider = "openai"
			_, err := setup.Embedder(cfg)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown provider", func() {
			cfg.Embedding.Provider = "mystery"
			_, err := setup.Embedder(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Generator", func() {
		It("builds the ollama generator by default", func() {
			g, err := setup.Generator(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(g).NotTo(BeNil())
			Expect(g.Close()).To(Succeed())
		})

		It("rejects an unknown provider", func() {
			cfg.Generator.Provider = "mystery"
			_, err := setup.Generator(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Searcher", func() {
		It("fails for the local provider when no index has been persisted", func() {
			cfg.Index.Dir = GinkgoT().TempDir() + "/absent"
			_, _, err := setup.Searcher(cfg, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown provider", func() {
			cfg.Index.Provider = "mystery"
			_, _, err := setup.Searcher(cfg, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})

		It("rejects a qdrant provider without a URL", func() {
			cfg.Index.Provider = "qdrant"
			_, _, err := setup.Searcher(cfg, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})
})
