package filing_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"notefiler/internal/config"
	"notefiler/internal/filing"
	"notefiler/internal/notedate"
	"notefiler/internal/scans"
)

var _ = Describe("Post", func() {
	var (
		cfg  *config.Config
		scan scans.Scan
	)

	newScan := func(id, payload string) scans.Scan {
		s := scans.Scan{ID: id}
		Expect(os.MkdirAll(s.Dir(cfg.Paths), 0755)).To(Succeed())
		Expect(os.WriteFile(s.PayloadPath(cfg.Paths, cfg.PayloadName), []byte(payload), 0644)).To(Succeed())
		return s
	}

	listNames := func(dir string) []string {
		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names
	}

	BeforeEach(func() {
		cfg = &config.Config{
			Paths: config.Paths{
				ScansPath: GinkgoT().TempDir(),
				NotesPath: GinkgoT().TempDir(),
			},
			PayloadName: config.DefaultPayloadName,
			Transfer:    config.TransferCopy,
		}
		scan = newScan("scan-0001", "jpeg bytes")
	})

	Context("with a full date", func() {
		It("moves the payload into the first numbered folder", func() {
			note, err := filing.Post(scan, notedate.FullDate(2021, 3, 4), cfg)
			Expect(err).NotTo(HaveOccurred())

			dateDir := filepath.Join(cfg.NotesPath, "2021", "03", "04")
			Expect(note.Number).To(Equal("000"))
			Expect(note.Dir).To(Equal(filepath.Join(dateDir, "000")))
			Expect(listNames(dateDir)).To(ConsistOf("000"))
			Expect(listNames(note.Dir)).To(ConsistOf("result.jpg"))

			data, err := os.ReadFile(note.PayloadPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg bytes"))

			_, err = os.Stat(scan.Dir(cfg.Paths))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("numbers later notes after the existing ones", func() {
			date := notedate.FullDate(2021, 3, 4)
			_, err := filing.Post(scan, date, cfg)
			Expect(err).NotTo(HaveOccurred())

			second := newScan("scan-0002", "more bytes")
			note, err := filing.Post(second, date, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(note.Number).To(Equal("001"))
		})

		It("continues after a gap", func() {
			dateDir := filepath.Join(cfg.NotesPath, "2021", "03", "04")
			Expect(os.MkdirAll(filepath.Join(dateDir, "000"), 0755)).To(Succeed())
			Expect(os.MkdirAll(filepath.Join(dateDir, "002"), 0755)).To(Succeed())

			note, err := filing.Post(scan, notedate.FullDate(2021, 3, 4), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(note.Number).To(Equal("003"))
		})
	})

	Context("with partial dates", func() {
		It("files a year-month date under unclassified", func() {
			note, err := filing.Post(scan, notedate.YearMonth(2020, 12), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(note.Dir).To(Equal(filepath.Join(cfg.NotesPath, "2020", "12", "unclassified", "000")))
		})

		It("files a year-only date under unclassified", func() {
			note, err := filing.Post(scan, notedate.YearOnly(2019), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(note.Dir).To(Equal(filepath.Join(cfg.NotesPath, "2019", "unclassified", "000")))
		})
	})

	Context("with the rename transfer", func() {
		It("files the scan the same way", func() {
			cfg.Transfer = config.TransferRename

			note, err := filing.Post(scan, notedate.FullDate(2021, 1, 1), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(note.PayloadPath).To(BeAnExistingFile())
			Expect(scan.Dir(cfg.Paths)).NotTo(BeADirectory())
		})
	})

	Context("when a step fails", func() {
		It("reports a missing payload as a transfer failure and keeps the scan", func() {
			Expect(os.Remove(scan.PayloadPath(cfg.Paths, cfg.PayloadName))).To(Succeed())

			_, err := filing.Post(scan, notedate.FullDate(2021, 1, 1), cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(Equal("Error posting scan"))

			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepTransfer))
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())

			Expect(scan.Dir(cfg.Paths)).To(BeADirectory())
			// no cleanup of the allocated folder
			Expect(filepath.Join(cfg.NotesPath, "2021", "01", "01", "000")).To(BeADirectory())
		})

		It("reports a blocked date folder as a prepare failure", func() {
			Expect(os.WriteFile(filepath.Join(cfg.NotesPath, "2021"), []byte("in the way"), 0644)).To(Succeed())

			_, err := filing.Post(scan, notedate.FullDate(2021, 1, 1), cfg)
			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepPrepare))
			Expect(scan.PayloadPath(cfg.Paths, cfg.PayloadName)).To(BeAnExistingFile())
		})

		It("reports an unreadable date folder as an allocation failure", func() {
			DeferCleanup(filing.SetReadDir(func(string) ([]os.DirEntry, error) {
				return nil, os.ErrPermission
			}))

			_, err := filing.Post(scan, notedate.FullDate(2021, 1, 1), cfg)
			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepAllocate))
			Expect(errors.Is(err, os.ErrPermission)).To(BeTrue())

			// the date folder from the earlier step stays, empty
			dateDir := filepath.Join(cfg.NotesPath, "2021", "01", "01")
			Expect(dateDir).To(BeADirectory())
			Expect(listNames(dateDir)).To(BeEmpty())
			Expect(scan.PayloadPath(cfg.Paths, cfg.PayloadName)).To(BeAnExistingFile())
		})

		It("reports a failed note folder creation and leaves the payload alone", func() {
			DeferCleanup(filing.SetMkdir(func(string, os.FileMode) error {
				return os.ErrExist
			}))

			_, err := filing.Post(scan, notedate.YearMonth(2021, 1), cfg)
			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepCreate))
			Expect(errors.Is(err, os.ErrExist)).To(BeTrue())
			Expect(scan.PayloadPath(cfg.Paths, cfg.PayloadName)).To(BeAnExistingFile())
		})

		It("leaves the filed payload in place when the scan cannot be removed", func() {
			DeferCleanup(filing.SetRemoveScan(func(s scans.Scan, _ config.Paths) error {
				return &scans.DeleteError{ID: s.ID, Err: os.ErrPermission}
			}))

			_, err := filing.Post(scan, notedate.FullDate(2021, 3, 4), cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(Equal("Error posting scan"))

			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepCleanup))
			// the delete wrapper is peeled off, only the cause remains
			Expect(pe.Err).To(MatchError(os.ErrPermission))
			var de *scans.DeleteError
			Expect(errors.As(err, &de)).To(BeFalse())

			noteDir := filepath.Join(cfg.NotesPath, "2021", "03", "04", "000")
			data, err := os.ReadFile(filepath.Join(noteDir, cfg.PayloadName))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg bytes"))
			Expect(scan.Dir(cfg.Paths)).To(BeADirectory())
		})

		It("keeps a renamed payload in the archive when cleanup fails", func() {
			cfg.Transfer = config.TransferRename
			DeferCleanup(filing.SetRemoveScan(func(s scans.Scan, _ config.Paths) error {
				return os.ErrPermission
			}))

			_, err := filing.Post(scan, notedate.YearOnly(2021), cfg)
			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Step).To(Equal(filing.StepCleanup))
			Expect(filepath.Join(cfg.NotesPath, "2021", "unclassified", "000", cfg.PayloadName)).To(BeAnExistingFile())
			Expect(scan.PayloadPath(cfg.Paths, cfg.PayloadName)).NotTo(BeAnExistingFile())
		})

		It("reports a scan whose directory vanished as a transfer failure", func() {
			gone := scans.Scan{ID: "never-there"}

			_, err := filing.Post(gone, notedate.YearOnly(2000), cfg)
			var pe *filing.PostError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.ScanID).To(Equal("never-there"))
			Expect(pe.Step).To(Equal(filing.StepTransfer))
		})
	})
})

var _ = Describe("Preview", func() {
	It("returns the next note folder without creating it", func() {
		cfg := &config.Config{Paths: config.Paths{NotesPath: GinkgoT().TempDir()}}
		date := notedate.FullDate(2022, 5, 6)
		dateDir := filepath.Join(cfg.NotesPath, "2022", "05", "06")
		Expect(os.MkdirAll(filepath.Join(dateDir, "000"), 0755)).To(Succeed())

		p, err := filing.Preview(date, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(dateDir, "001")))
		Expect(p).NotTo(BeADirectory())
	})

	It("treats a missing date folder as empty", func() {
		cfg := &config.Config{Paths: config.Paths{NotesPath: GinkgoT().TempDir()}}

		p, err := filing.Preview(notedate.YearOnly(1990), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(cfg.NotesPath, "1990", "unclassified", "000")))
		Expect(filepath.Join(cfg.NotesPath, "1990")).NotTo(BeADirectory())
	})
})

var _ = Describe("DateDir", func() {
	It("is deterministic", func() {
		d := notedate.FullDate(2000, 1, 1)
		Expect(filing.DateDir("/n", d)).To(Equal(filing.DateDir("/n", d)))
		Expect(filing.DateDir("/n", d)).To(Equal(filepath.Join("/n", "2000", "01", "01")))
	})
})
