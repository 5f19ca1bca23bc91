package scanner_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/printdrain/internal/scanner"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

var _ = Describe("Scanner", func() {
	var (
		testDir    string
		testLogger *logger.Logger
		ctx        context.Context
	)

	touch := func(parts ...string) {
		path := filepath.Join(append([]string{testDir}, parts...)...)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("dummy content"), 0644)).To(Succeed())
	}

	rels := func(batches []models.DirectoryBatch) []string {
		var out []string
		for _, b := range batches {
			out = append(out, scanner.Describe(b))
		}
		return out
	}

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "scanner-test-*")
		Expect(err).NotTo(HaveOccurred())

		testLogger = logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[test] "))
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	Context("when scanning an empty directory", func() {
		It("should return no batches", func() {
			s := scanner.New(testLogger)
			batches, err := s.FindBatches(ctx, testDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(batches).To(BeEmpty())
		})
	})

	Context("when scanning a flat directory", func() {
		BeforeEach(func() {
			touch("b.pdf")
			touch("a.xlsx")
			touch("notes.txt")
			touch("~$a.xlsx")
		})

		It("should find only printable files in name order", func() {
			s := scanner.New(testLogger)
			batches, err := s.FindBatches(ctx, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(batches).To(HaveLen(1))
			Expect(batches[0].Rel).To(Equal("."))
			Expect(batches[0].Depth).To(Equal(0))

			var names []string
			for _, job := range batches[0].Jobs {
				names = append(names, job.Name)
				Expect(filepath.Dir(job.Path)).To(Equal(batches[0].Dir))
			}
			Expect(names).To(Equal([]string{"a.xlsx", "b.pdf"}))
		})
	})

	Context("when scanning nested directories", func() {
		BeforeEach(func() {
			touch("root.pdf")
			touch("a", "a.pdf")
			touch("a", "deep", "deeper", "d.pdf")
			touch("a", "deep", "x.xls")
			touch("b", "b.pdf")
			Expect(os.MkdirAll(filepath.Join(testDir, "empty"), 0755)).To(Succeed())
		})

		It("should return batches in post-order", func() {
			s := scanner.New(testLogger)
			batches, err := s.FindBatches(ctx, testDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(rels(batches)).To(Equal([]string{
				"a/deep/deeper",
				"a/deep",
				"a",
				"b",
				".",
			}))
			Expect(scanner.CountJobs(batches)).To(Equal(5))
		})

		It("should list every descendant before its ancestor", func() {
			s := scanner.New(testLogger)
			batches, err := s.FindBatches(ctx, testDir)
			Expect(err).NotTo(HaveOccurred())

			seen := map[string]int{}
			for i, b := range batches {
				seen[b.Dir] = i
			}
			for i, b := range batches {
				for parent := filepath.Dir(b.Dir); len(parent) >= len(testDir); parent = filepath.Dir(parent) {
					if j, ok := seen[parent]; ok {
						Expect(j).To(BeNumerically(">", i), "%s must come after %s", parent, b.Dir)
					}
					if parent == filepath.Dir(parent) {
						break
					}
				}
			}
		})
	})

	Context("ListJobs", func() {
		It("should re-enumerate a single directory without recursion", func() {
			touch("jan", "x.pdf")
			touch("jan", "sub", "y.pdf")

			s := scanner.New(testLogger)
			jobs, err := s.ListJobs(filepath.Join(testDir, "jan"))
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Name).To(Equal("x.pdf"))
		})
	})

	Context("when the root is missing", func() {
		It("should return an error", func() {
			s := scanner.New(testLogger)
			_, err := s.FindBatches(ctx, filepath.Join(testDir, "missing"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("error accessing path"))
		})
	})

	Context("when the root is a file", func() {
		It("should refuse to scan it", func() {
			touch("x.pdf")
			s := scanner.New(testLogger)
			_, err := s.FindBatches(ctx, filepath.Join(testDir, "x.pdf"))
			Expect(err).To(MatchError(ContainSubstring("is not a directory")))
		})
	})

	Context("when context is cancelled", func() {
		It("should stop scanning", func() {
			deepDir := filepath.Join(testDir, "deep", "deeper", "deepest")
			err := os.MkdirAll(deepDir, 0755)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			s := scanner.New(testLogger)
			_, err = s.FindBatches(ctx, testDir)

			Expect(err).To(Equal(context.Canceled))
		})
	})
})
