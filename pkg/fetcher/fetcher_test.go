package fetcher_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docentlabs/docent/pkg/fetcher"
)

func TestFetcher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fetcher Suite")
}

var _ = Describe("FromDir", func() {
	var dir string

	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("loads text files recursively in sorted path order", func() {
		write("b.md", "beta content")
		write("a.md", "alpha content")
		write("nested/c.txt", "gamma content")

		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(3))
		Expect(docs[0].RawText).To(Equal("alpha content"))
		Expect(docs[1].RawText).To(Equal("beta content"))
		Expect(docs[2].RawText).To(Equal("gamma content"))
		Expect(docs[2].SourceURI).To(Equal(filepath.Join(dir, "nested/c.txt")))
	})

	It("ignores non-text files", func() {
		write("doc.md", "kept")
		write("binary.png", "not text")
		write("code.go", "package main")

		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].RawText).To(Equal("kept"))
	})

	It("skips blank files", func() {
		write("empty.md", "")
		write("whitespace.txt", "  \n\t ")
		write("real.md", "content")

		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
	})

	It("assigns each document a fresh identifier and fetch time", func() {
		write("a.md", "alpha")
		write("b.md", "beta")

		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs[0].ID).NotTo(BeEmpty())
		Expect(docs[0].ID).NotTo(Equal(docs[1].ID))
		Expect(docs[0].FetchedAt).NotTo(BeZero())
	})

	It("fails on a missing directory", func() {
		_, err := fetcher.FromDir(filepath.Join(dir, "absent"))
		Expect(err).To(HaveOccurred())
	})

	It("returns no documents for an empty directory", func() {
		docs, err := fetcher.FromDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(BeEmpty())
	})
})
