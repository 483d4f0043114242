package convert

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"
)

// archiveWriter builds a deflated ZIP in memory. Entries carry no timestamps so
// the same pages always produce the same bytes.
type archiveWriter struct {
	buf bytes.Buffer
	zw  *zip.Writer
}

func newArchiveWriter() *archiveWriter {
	a := &archiveWriter{}
	a.zw = zip.NewWriter(&a.buf)
	return a
}

func (a *archiveWriter) add(page Page) error {
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:   PageName(page.Number),
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", PageName(page.Number), err)
	}
	if _, err := w.Write(page.PNG); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", PageName(page.Number), err)
	}
	return nil
}

func (a *archiveWriter) bytes() ([]byte, error) {
	if err := a.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return a.buf.Bytes(), nil
}

// BuildArchive packs pages into a ZIP in page order
func BuildArchive(pages []Page) ([]byte, error) {
	archive := newArchiveWriter()
	for _, page := range pages {
		if err := archive.add(page); err != nil {
			return nil, err
		}
	}
	return archive.bytes()
}
