package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/assembler"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/retriever"
	testutils "github.com/docentlabs/docent/pkg/utils/test"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		embedder  *testutils.MockEmbedder
		searcher  *testutils.MockSearcher
		generator *testutils.MockGenerator
		server    *Server
	)

	evidence := func(id, text string, score float32) index.Result {
		return index.Result{
			Fragment: corpus.Fragment{
				ID:         id,
				DocumentID: "doc-1",
				SourceURI:  "docs/snowpark.md",
				Text:       text,
				Span:       corpus.Span{Start: 0, End: len(text)},
				TokenCount: 4,
			},
			Score: score,
		}
	}

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		searcher = testutils.NewMockSearcher()
		generator = testutils.NewMockGenerator("A developer framework.")
		logger := zap.NewNop()

		rtr := retriever.New(retriever.Config{
			Embedder: embedder,
			Searcher: searcher,
			Logger:   logger,
		})
		server = NewServer(Config{
			ListenAddr: ":0",
			Retriever:  rtr,
			Assembler:  assembler.New(assembler.Config{}),
			Generator:  generator,
		}, logger)
	})

	getJSON := func(resp *http.Response, out any) {
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, out)).To(Succeed())
	}

	Describe("GET /ping", func() {
		It("responds ok", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /v1/search", func() {
		It("requires a query parameter", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns scored fragments with source spans", func() {
			searcher.Results = []index.Result{
				evidence("f1", "Snowpark lets you run code next to your data.", 0.93),
			}

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=snowpark", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out searchOutput
			getJSON(resp, &out)
			Expect(out.Query).To(Equal("snowpark"))
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].Score).To(BeNumerically("~", 0.93, 1e-6))
			Expect(out.Results[0].SourceURI).To(Equal("docs/snowpark.md"))
			Expect(out.Results[0].Span.End).To(BeNumerically(">", 0))
		})

		It("returns an empty result list when nothing clears the floor", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=offtopic", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out searchOutput
			getJSON(resp, &out)
			Expect(out.Count).To(Equal(0))
		})

		It("maps retrieval failures to 502", func() {
			embedder.FailOn = "broken"

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=broken", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			var out errorResponse
			getJSON(resp, &out)
			Expect(out.Code).To(Equal("retrieval_failed"))
		})
	})

	Describe("POST /v1/chat", func() {
		postChat := func(body any) *http.Response {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())

			req, err := http.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("requires a message", func() {
			resp := postChat(map[string]string{})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("answers with citations and a session ID", func() {
			searcher.Results = []index.Result{
				evidence("f1", "Snowpark lets you run code next to your data.", 0.93),
			}

			resp := postChat(map[string]string{"message": "What is Snowpark?"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out chatResponse
			getJSON(resp, &out)
			Expect(out.SessionID).NotTo(BeEmpty())
			Expect(out.Text).To(Equal("A developer framework."))
			Expect(out.Declined).To(BeFalse())
			Expect(out.Citations).To(HaveLen(1))
		})

		It("continues the same session when a session ID is supplied", func() {
			searcher.Results = []index.Result{
				evidence("f1", "Snowpark lets you run code next to your data.", 0.93),
			}

			var first chatResponse
			getJSON(postChat(map[string]string{"message": "first"}), &first)

			resp := postChat(map[string]string{
				"session_id": first.SessionID,
				"message":    "second",
			})
			var second chatResponse
			getJSON(resp, &second)
			Expect(second.SessionID).To(Equal(first.SessionID))

			// The second turn's prompt carries the first turn's history.
			last := generator.Prompts[len(generator.Prompts)-1]
			Expect(last.History).To(HaveLen(2))
		})

		It("declines when no evidence clears the floor, without generating", func() {
			resp := postChat(map[string]string{"message": "Who won the 1986 world cup?"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out chatResponse
			getJSON(resp, &out)
			Expect(out.Declined).To(BeTrue())
			Expect(out.Citations).To(BeEmpty())
			Expect(generator.CallCount()).To(BeZero())
		})

		It("maps retrieval failures to 502 with a structured code", func() {
			embedder.FailuresLeft = 100

			resp := postChat(map[string]string{"message": "anything"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			var out errorResponse
			getJSON(resp, &out)
			Expect(out.Code).To(Equal("retrieval_failed"))
		})

		It("maps generation failures to 502 with a structured code", func() {
			searcher.Results = []index.Result{
				evidence("f1", "Snowpark lets you run code next to your data.", 0.93),
			}
			generator.FailuresLeft = 100

			resp := postChat(map[string]string{"message": "What is Snowpark?"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			var out errorResponse
			getJSON(resp, &out)
			Expect(out.Code).To(Equal("generation_failed"))
		})
	})

	Describe("DELETE /v1/sessions/:id", func() {
		It("tears the session down so the ID no longer resumes it", func() {
			searcher.Results = []index.Result{
				evidence("f1", "Snowpark lets you run code next to your data.", 0.93),
			}

			raw, _ := json.Marshal(map[string]string{"message": "first"})
			req, err := http.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())

			var first chatResponse
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &first)).To(Succeed())

			del, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("/v1/sessions/%s", first.SessionID), nil)
			Expect(err).NotTo(HaveOccurred())
			delResp, err := server.app.Test(del)
			Expect(err).NotTo(HaveOccurred())
			Expect(delResp.StatusCode).To(Equal(http.StatusNoContent))

			// A follow-up with the old ID gets a fresh session.
			raw, _ = json.Marshal(map[string]string{"session_id": first.SessionID, "message": "second"})
			req, err = http.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			resp, err = server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())

			var second chatResponse
			body, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &second)).To(Succeed())
			Expect(second.SessionID).NotTo(Equal(first.SessionID))
		})
	})

	Describe("unconfigured chat", func() {
		It("responds 503 when the generator is missing", func() {
			bare := NewServer(Config{ListenAddr: ":0"}, zap.NewNop())

			raw, _ := json.Marshal(map[string]string{"message": "hello"})
			req, err := http.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := bare.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
