// Package samplepdf builds small, well-formed PDF documents.
package samplepdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Build returns a PDF with the given number of pages. Every page is 2in x 1in and
// carries its page number as text, so renders of different pages differ.
// Cross-reference offsets are exact, which strict parsers require.
func Build(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObject := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 page tree, 3 font, then a page and its content stream per page
	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	writeObject("<< /Type /Catalog /Pages 2 0 R >>")
	writeObject(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	writeObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i := 0; i < pages; i++ {
		contentObj := 5 + 2*i
		writeObject(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 144 72] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", contentObj))
		stream := fmt.Sprintf("BT /F1 12 Tf 10 30 Td (Page %d) Tj ET", i+1)
		writeObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

// Corrupt returns bytes that no PDF parser accepts
func Corrupt() []byte {
	return []byte("this is not a PDF document, just some text that is long enough to be read from both ends of the buffer without trouble")
}

// WriteFile writes a generated PDF to path
func WriteFile(path string, pages int) error {
	return os.WriteFile(path, Build(pages), 0644)
}
