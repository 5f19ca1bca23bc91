//go:build !windows

package main

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
)

var _ = Describe("batchprint", func() {
	var (
		testDir    string
		sourceDir  string
		archiveDir string
		out        *gbytes.Buffer
	)

	// spooler writes a stand-in lp that exits with code.
	spooler := func(code int) string {
		path := filepath.Join(testDir, fmt.Sprintf("lp-%d", code))
		script := fmt.Sprintf("#!/bin/sh\necho \"lp exited %d\" >&2\nexit %d\n", code, code)
		Expect(os.WriteFile(path, []byte(script), 0755)).To(Succeed())
		return path
	}

	settings := func(lp string) string {
		path := filepath.Join(testDir, "config.ini")
		body := fmt.Sprintf(`[settings]
source_dir = %s
target_dir = %s
delay_seconds = 0
enable_wait_prompt = false
log_dir = %s
lp_binary = %s
`, sourceDir, archiveDir, filepath.Join(testDir, "logs"), lp)
		Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "batchprint-test-*")
		Expect(err).NotTo(HaveOccurred())

		sourceDir = filepath.Join(testDir, "inbox")
		archiveDir = filepath.Join(testDir, "done")
		Expect(os.MkdirAll(filepath.Join(sourceDir, "jan"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(sourceDir, "jan", "x.pdf"), []byte("dummy content"), 0644)).To(Succeed())
		out = gbytes.NewBuffer()
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	It("should print version information", func() {
		Expect(run([]string{"-version"}, out)).To(Equal(0))
		Expect(out).To(gbytes.Say("printdrain"))
	})

	It("should exit 1 when the settings file is missing", func() {
		code := run([]string{"-config", filepath.Join(testDir, "missing.ini")}, out)
		Expect(code).To(Equal(1))
		Expect(out).To(gbytes.Say("Error loading settings"))
	})

	It("should exit 1 when the source directory is missing", func() {
		code := run([]string{filepath.Join(testDir, "nowhere"), archiveDir}, out)
		Expect(code).To(Equal(1))
		Expect(out).To(gbytes.Say("Source directory does not exist"))
	})

	It("should exit 1 for a single positional argument", func() {
		Expect(run([]string{sourceDir}, out)).To(Equal(1))
	})

	It("should exit 1 for an unknown flag", func() {
		Expect(run([]string{"-bogus"}, out)).To(Equal(1))
	})

	It("should exit 0 and archive when every job prints", func() {
		code := run([]string{"-config", settings(spooler(0))}, out)
		Expect(code).To(Equal(0))
		Expect(filepath.Join(archiveDir, "jan", "x.pdf")).To(BeAnExistingFile())
		Expect(filepath.Join(sourceDir, "jan")).NotTo(BeAnExistingFile())
		Expect(sourceDir).To(BeADirectory())
	})

	It("should exit 1 and keep the file when a job fails", func() {
		code := run([]string{"-config", settings(spooler(1))}, out)
		Expect(code).To(Equal(1))
		Expect(filepath.Join(sourceDir, "jan", "x.pdf")).To(BeAnExistingFile())
		Expect(out).To(gbytes.Say("Print failed"))
	})

	It("should leave files in place on a dry run", func() {
		code := run([]string{"-config", settings(spooler(1)), "-dry-run"}, out)
		Expect(code).To(Equal(0))
		Expect(filepath.Join(sourceDir, "jan", "x.pdf")).To(BeAnExistingFile())
	})

	It("should write a run log", func() {
		Expect(run([]string{"-config", settings(spooler(0))}, out)).To(Equal(0))
		logs, err := filepath.Glob(filepath.Join(testDir, "logs", "log_*.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).NotTo(BeEmpty())
	})
})
