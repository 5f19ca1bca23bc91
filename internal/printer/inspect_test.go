package printer_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/printdrain/internal/printer"
)

var _ = Describe("PDFCPUInspector", func() {
	var testDir string

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "inspect-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	It("should wrap the reader error for a file that is not a PDF", func() {
		path := filepath.Join(testDir, "notes.pdf")
		Expect(os.WriteFile(path, []byte("plain text, no PDF header"), 0644)).To(Succeed())

		_, err := printer.NewPDFCPUInspector().Inspect(path)
		Expect(err).To(MatchError(ContainSubstring("failed to read page dimensions")))
	})

	It("should fail for a missing file", func() {
		_, err := printer.NewPDFCPUInspector().Inspect(filepath.Join(testDir, "missing.pdf"))
		Expect(err).To(HaveOccurred())
	})
})
