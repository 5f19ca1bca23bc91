package classifier_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/printdrain/internal/classifier"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

var _ = Describe("Classifier", func() {
	DescribeTable("document kind by extension",
		func(name string, expected models.DocumentKind) {
			job, ok := classifier.Classify(name)
			Expect(ok).To(BeTrue())
			Expect(job.Kind).To(Equal(expected))
			Expect(job.Name).To(Equal(name))
		},
		Entry("lowercase pdf", "invoice.pdf", models.KindPDF),
		Entry("uppercase pdf", "INVOICE.PDF", models.KindPDF),
		Entry("mixed case pdf", "scan.Pdf", models.KindPDF),
		Entry("xls", "ledger.xls", models.KindSpreadsheet),
		Entry("xlsx", "ledger.xlsx", models.KindSpreadsheet),
		Entry("uppercase xlsx", "LEDGER.XLSX", models.KindSpreadsheet),
		Entry("dotted name", "report.2024.q1.xlsx", models.KindSpreadsheet),
	)

	DescribeTable("unsupported files",
		func(name string) {
			_, ok := classifier.Classify(name)
			Expect(ok).To(BeFalse())
		},
		Entry("text file", "notes.txt"),
		Entry("word document", "letter.docx"),
		Entry("csv", "export.csv"),
		Entry("no extension", "README"),
		Entry("pdf in the middle", "file.pdf.bak"),
		Entry("xlsm macro workbook", "macro.xlsm"),
	)

	DescribeTable("lock files never become jobs",
		func(name string) {
			Expect(classifier.IsLockFile(name)).To(BeTrue())
			_, ok := classifier.Classify(name)
			Expect(ok).To(BeFalse())
		},
		Entry("excel owner file", "~$ledger.xlsx"),
		Entry("legacy excel owner file", "~$ledger.xls"),
		Entry("pdf with lock prefix", "~$invoice.pdf"),
		Entry("monthly with lock prefix", "~$月结单-march.xlsx"),
	)

	DescribeTable("routing class",
		func(name string, expected models.RoutingClass) {
			job, ok := classifier.Classify(name)
			Expect(ok).To(BeTrue())
			Expect(job.Class).To(Equal(expected))
		},
		Entry("plain pdf is standard", "x.pdf", models.ClassStandard),
		Entry("marker prefix pdf", "月结单-y.pdf", models.ClassMonthly),
		Entry("marker suffix xlsx", "客户A月结单.xlsx", models.ClassMonthly),
		Entry("marker with uppercase extension", "月结单.XLS", models.ClassMonthly),
		Entry("partial marker is standard", "月结.xlsx", models.ClassStandard),
	)

	Context("ClassifyPath", func() {
		It("should classify by base name and keep an absolute path", func() {
			job, ok := classifier.ClassifyPath(filepath.Join("invoices", "jan", "月结单-y.xlsx"))
			Expect(ok).To(BeTrue())
			Expect(filepath.IsAbs(job.Path)).To(BeTrue())
			Expect(job.Path).To(HaveSuffix(filepath.Join("invoices", "jan", "月结单-y.xlsx")))
			Expect(job.Kind).To(Equal(models.KindSpreadsheet))
			Expect(job.Class).To(Equal(models.ClassMonthly))
		})

		It("should not treat a directory name as a marker", func() {
			job, ok := classifier.ClassifyPath(filepath.Join("月结单", "x.pdf"))
			Expect(ok).To(BeTrue())
			Expect(job.Class).To(Equal(models.ClassStandard))
		})

		It("should skip unsupported paths", func() {
			_, ok := classifier.ClassifyPath(filepath.Join("a", "b.txt"))
			Expect(ok).To(BeFalse())
		})
	})
})
