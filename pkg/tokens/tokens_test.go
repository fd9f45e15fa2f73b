package tokens_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docentlabs/docent/pkg/tokens"
)

func TestTokens(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tokens Suite")
}

var _ = Describe("HeuristicCounter", func() {
	var counter tokens.HeuristicCounter

	It("counts blank text as zero", func() {
		Expect(counter.Count("")).To(Equal(0))
		Expect(counter.Count("   \n\t ")).To(Equal(0))
	})

	It("never counts fewer tokens than words", func() {
		Expect(counter.Count("a b c d e")).To(Equal(5))
	})

	It("approximates four characters per token for long runs", func() {
		Expect(counter.Count(strings.Repeat("x", 400))).To(Equal(100))
	})

	It("is deterministic", func() {
		text := "the quick brown fox jumps over the lazy dog"
		Expect(counter.Count(text)).To(Equal(counter.Count(text)))
	})

	It("grows with input size", func() {
		short := counter.Count("one two three")
		long := counter.Count(strings.Repeat("one two three ", 50))
		Expect(long).To(BeNumerically(">", short))
	})
})
