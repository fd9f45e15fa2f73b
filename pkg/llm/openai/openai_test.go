package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docentlabs/docent/pkg/llm"
	"github.com/docentlabs/docent/pkg/llm/openai"
)

func TestOpenAIGenerator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAI Generator Suite")
}

var _ = Describe("Generator", func() {
	var (
		ctx    context.Context
		prompt *llm.Prompt
	)

	BeforeEach(func() {
		ctx = context.Background()
		prompt = &llm.Prompt{
			SystemInstruction: "Answer only from the provided context.",
			Context:           "Snowpark runs code next to your data.",
			Question:          "What is Snowpark?",
		}
	})

	It("requires an API key", func() {
		_, err := openai.NewGenerator(openai.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("returns the first choice's message", func() {
		var gotAuth string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			Expect(r.URL.Path).To(Equal("/chat/completions"))
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "A developer framework."}},
				},
			})
		}))
		defer server.Close()

		g, err := openai.NewGenerator(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		answer, err := g.Generate(ctx, prompt)
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("A developer framework."))
		Expect(gotAuth).To(Equal("Bearer sk-test"))
	})

	It("fails on an empty choice list", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		g, err := openai.NewGenerator(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = g.Generate(ctx, prompt)
		Expect(err).To(MatchError(llm.ErrGenerationFailed))
	})

	It("surfaces API errors as generation failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		g, err := openai.NewGenerator(openai.Config{APIKey: "sk-bad", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = g.Generate(ctx, prompt)
		Expect(err).To(MatchError(llm.ErrGenerationFailed))
	})
})
