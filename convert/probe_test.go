package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drummonds/pdf2png/internal/samplepdf"
)

func TestCountPages(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected PageCount
	}{
		{name: "Single page", data: samplepdf.Build(1), expected: PageCount{Pages: 1, Known: true}},
		{name: "Many pages", data: samplepdf.Build(60), expected: PageCount{Pages: 60, Known: true}},
		{name: "Empty page tree", data: samplepdf.Build(0), expected: PageCount{Pages: 0, Known: true}},
		{name: "Not a PDF", data: samplepdf.Corrupt(), expected: PageCount{Pages: FallbackPageCount, Known: false}},
		{name: "No bytes", data: nil, expected: PageCount{Pages: FallbackPageCount, Known: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountPages(tt.data))
		})
	}
}

func TestCountPagesTruncated(t *testing.T) {
	data := samplepdf.Build(3)
	count := CountPages(data[:len(data)/2])
	assert.False(t, count.Known)
	assert.Equal(t, FallbackPageCount, count.Pages)
}

func TestEffectiveDPI(t *testing.T) {
	for _, pages := range []int{0, 1, 49, 50, 51, 60, FallbackPageCount, 1000} {
		for _, dpi := range []int{150, 300, 600} {
			expected := dpi
			if pages > MaxSafePages && dpi > MaxSafeDPI {
				expected = MaxSafeDPI
			}
			assert.Equal(t, expected, EffectiveDPI(pages, dpi), "pages=%d dpi=%d", pages, dpi)
		}
	}
	assert.Equal(t, 300, EffectiveDPI(50, 300), "boundary is exclusive")
	assert.Equal(t, 150, EffectiveDPI(51, 300))
	assert.Equal(t, 100, EffectiveDPI(500, 100), "low resolutions are never raised")
}

func TestApplyWarning(t *testing.T) {
	decision := Apply(PageCount{Pages: 60, Known: true}, 600)
	assert.True(t, decision.Downgraded())
	assert.Equal(t, 150, decision.EffectiveDPI)
	assert.Contains(t, decision.Warning(), "60 pages")
	assert.Contains(t, decision.Warning(), "from 600 to 150")

	small := Apply(PageCount{Pages: 10, Known: true}, 600)
	assert.False(t, small.Downgraded())
	assert.Empty(t, small.Warning())
}

func TestApplyUnknownCount(t *testing.T) {
	decision := Apply(unknownPageCount(), 300)
	assert.Equal(t, MaxSafeDPI, decision.EffectiveDPI)
	assert.Contains(t, decision.Warning(), "unreadable")

	low := Apply(unknownPageCount(), 150)
	assert.False(t, low.Downgraded())
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "page_001.png", PageName(1))
	assert.Equal(t, "page_120.png", PageName(120))
	assert.Equal(t, "report_page_007.png", DownloadName("report", 7))
	assert.Equal(t, "report_all_pages.zip", ArchiveName("report"))
	assert.Equal(t, "annual.report", Stem("annual.report.pdf"))
	assert.Equal(t, "scan", Stem("/uploads/scan.PDF"))
	assert.Equal(t, "document", Stem(""))
	assert.Equal(t, "report", Stem(`C:\dir\report.pdf`))
	assert.Equal(t, "q3 summary", Stem(`C:\Users\me\Desktop\q3 summary.PDF`))
	assert.Equal(t, "report_page_002.png", DownloadName(Stem(`D:\scans\report.pdf`), 2))
	assert.Len(t, Digest([]byte("x")), 64)
}
