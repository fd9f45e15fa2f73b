package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/chunker"
	"github.com/docentlabs/docent/pkg/fetcher"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/ingest"
	testutils "github.com/docentlabs/docent/pkg/utils/test"
)

var _ = Describe("Watcher", func() {
	var (
		dir      string
		handle   *index.Handle
		pipeline *ingest.Pipeline
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		handle = index.NewHandle(nil)

		chk, err := chunker.New(200, 20, nil)
		Expect(err).NotTo(HaveOccurred())
		pipeline = ingest.NewPipeline(ingest.Config{
			Chunker:  chk,
			Embedder: testutils.NewMockEmbedder(),
			Logger:   zap.NewNop(),
		})
	})

	It("fails on a missing directory", func() {
		_, err := ingest.NewWatcher(ingest.WatcherConfig{
			Dir:      filepath.Join(dir, "absent"),
			Pipeline: pipeline,
			Handle:   handle,
			Logger:   zap.NewNop(),
		})
		Expect(err).To(HaveOccurred())
	})

	It("publishes a rebuilt index after corpus changes settle", func() {
		watcher, err := ingest.NewWatcher(ingest.WatcherConfig{
			Dir:      dir,
			Pipeline: pipeline,
			Handle:   handle,
			Debounce: 50 * time.Millisecond,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer watcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = watcher.Run(ctx)
		}()

		Expect(os.WriteFile(filepath.Join(dir, "new.md"), []byte("fresh corpus content"), 0o644)).To(Succeed())

		Eventually(func() *index.Index {
			return handle.Current()
		}, 5*time.Second, 20*time.Millisecond).ShouldNot(BeNil())
		Expect(handle.Current().Len()).To(BeNumerically(">", 0))

		cancel()
		Eventually(done).Should(BeClosed())
	})

	It("keeps the serving index when a rebuild fails", func() {
		Expect(os.WriteFile(filepath.Join(dir, "seed.md"), []byte("seed content"), 0o644)).To(Succeed())
		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())

		initial, err := pipeline.Build(context.Background(), docs)
		Expect(err).NotTo(HaveOccurred())
		handle.Swap(initial)

		watcher, err := ingest.NewWatcher(ingest.WatcherConfig{
			Dir:      dir,
			Pipeline: pipeline,
			Handle:   handle,
			Debounce: 50 * time.Millisecond,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer watcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = watcher.Run(ctx) }()

		// Removing the only corpus file makes the next rebuild fail with an
		// empty corpus; the old index must keep serving.
		Expect(os.Remove(filepath.Join(dir, "seed.md"))).To(Succeed())

		Consistently(func() *index.Index {
			return handle.Current()
		}, 300*time.Millisecond, 50*time.Millisecond).Should(BeIdenticalTo(initial))
	})
})
