package archive_test

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/printdrain/internal/archive"
	"github.com/kpauljoseph/printdrain/pkg/logger"
)

func archiveTestLogger() *logger.Logger {
	return logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[archive-test] "),
		logger.WithFlags(0),
	)
}

var _ = Describe("Archiver", func() {
	var (
		testDir  string
		source   string
		dest     string
		archiver *archive.Archiver
	)

	touch := func(parts ...string) string {
		path := filepath.Join(append([]string{source}, parts...)...)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "archive-test-*")
		Expect(err).NotTo(HaveOccurred())
		source = filepath.Join(testDir, "source")
		dest = filepath.Join(testDir, "dest")
		Expect(os.MkdirAll(source, 0755)).To(Succeed())

		archiver, err = archive.New(source, dest, archiveTestLogger())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.Chmod(source, 0755)
		os.RemoveAll(testDir)
	})

	Context("when the file is the last one in its tree", func() {
		It("should mirror the path and prune every emptied ancestor but the root", func() {
			file := touch("a", "b", "c.pdf")

			result, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Destination).To(Equal(filepath.Join(dest, "a", "b", "c.pdf")))
			Expect(result.Destination).To(BeAnExistingFile())
			data, err := os.ReadFile(result.Destination)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("content of c.pdf"))

			Expect(result.Pruned).To(Equal([]string{
				filepath.Join(source, "a", "b"),
				filepath.Join(source, "a"),
			}))
			Expect(filepath.Join(source, "a")).NotTo(BeADirectory())
			Expect(source).To(BeADirectory())
		})
	})

	Context("when siblings remain", func() {
		It("should stop pruning at the first non-empty ancestor", func() {
			file := touch("a", "b", "c.pdf")
			touch("a", "other.pdf")

			result, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Pruned).To(Equal([]string{filepath.Join(source, "a", "b")}))
			Expect(filepath.Join(source, "a")).To(BeADirectory())
		})

		It("should not prune a directory holding a subdirectory", func() {
			file := touch("a", "c.pdf")
			Expect(os.MkdirAll(filepath.Join(source, "a", "pending"), 0755)).To(Succeed())

			result, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Pruned).To(BeEmpty())
			Expect(filepath.Join(source, "a")).To(BeADirectory())
		})
	})

	Context("when only lock files remain", func() {
		It("should treat the directory as empty and remove the lock files", func() {
			file := touch("jan", "ledger.xlsx")
			touch("jan", "~$ledger.xlsx")

			result, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Pruned).To(ConsistOf(filepath.Join(source, "jan")))
			Expect(filepath.Join(source, "jan")).NotTo(BeADirectory())
		})
	})

	Context("when the file sits in the source root", func() {
		It("should archive it and keep the root", func() {
			file := touch("top.pdf")

			result, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Destination).To(Equal(filepath.Join(dest, "top.pdf")))
			Expect(result.Pruned).To(BeEmpty())
			Expect(source).To(BeADirectory())
		})
	})

	Context("when the archive already holds the file", func() {
		It("should replace the archived copy", func() {
			Expect(os.MkdirAll(filepath.Join(dest, "a"), 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dest, "a", "x.pdf"), []byte("old"), 0644)).To(Succeed())
			file := touch("a", "x.pdf")

			_, err := archiver.Archive(file)
			Expect(err).NotTo(HaveOccurred())
			data, _ := os.ReadFile(filepath.Join(dest, "a", "x.pdf"))
			Expect(string(data)).To(Equal("content of x.pdf"))
		})
	})

	Context("when the move fails", func() {
		It("should report ErrMove for files that vanished", func() {
			_, err := archiver.Archive(filepath.Join(source, "missing.pdf"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, archive.ErrMove)).To(BeTrue())
		})

		It("should report ErrMove for files outside the source root", func() {
			outside := filepath.Join(testDir, "elsewhere.pdf")
			Expect(os.WriteFile(outside, []byte("x"), 0644)).To(Succeed())

			_, err := archiver.Archive(outside)
			Expect(errors.Is(err, archive.ErrMove)).To(BeTrue())
			Expect(outside).To(BeAnExistingFile())
		})
	})

	Context("Prune", func() {
		It("should never remove the source root", func() {
			pruned, err := archiver.Prune(source)
			Expect(err).NotTo(HaveOccurred())
			Expect(pruned).To(BeEmpty())
			Expect(source).To(BeADirectory())
		})

		It("should report failures without removing anything else", func() {
			if runtime.GOOS == "windows" || os.Geteuid() == 0 {
				Skip("permission bits are not enforced")
			}
			empty := filepath.Join(source, "locked", "inner")
			Expect(os.MkdirAll(empty, 0755)).To(Succeed())
			Expect(os.Chmod(filepath.Join(source, "locked"), 0555)).To(Succeed())
			defer os.Chmod(filepath.Join(source, "locked"), 0755)

			_, err := archiver.Prune(empty)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, archive.ErrPruneFailed)).To(BeTrue())
			Expect(empty).To(BeADirectory())
		})
	})

	It("should compute mirrored destinations", func() {
		d, err := archiver.Destination(filepath.Join(source, "x", "y.pdf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(filepath.Join(dest, "x", "y.pdf")))

		_, err = archiver.Destination(source)
		Expect(err).To(HaveOccurred())
	})
	Context("when copying across devices", func() {
		It("should copy the content and modification time, then remove the source", func() {
			file := touch("jan", "x.pdf")
			stamp := time.Date(2024, 12, 31, 8, 30, 0, 0, time.UTC)
			Expect(os.Chtimes(file, stamp, stamp)).To(Succeed())

			target := filepath.Join(testDir, "copy.pdf")
			Expect(os.WriteFile(target, []byte("older and longer content"), 0644)).To(Succeed())

			Expect(archiver.CopyAndRemove(file, target)).To(Succeed())

			Expect(file).NotTo(BeAnExistingFile())
			data, err := os.ReadFile(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("content of x.pdf"))

			info, err := os.Stat(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.ModTime()).To(BeTemporally("==", stamp))
		})

		It("should keep the source when the copy cannot be written", func() {
			file := touch("jan", "y.pdf")

			err := archiver.CopyAndRemove(file, filepath.Join(testDir, "missing", "y.pdf"))
			Expect(err).To(HaveOccurred())
			Expect(file).To(BeAnExistingFile())
		})
	})
})
