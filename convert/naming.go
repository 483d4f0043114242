package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// PageName is the archive entry name of a page, numbered from 1
func PageName(number int) string {
	return fmt.Sprintf("page_%03d.png", number)
}

// DownloadName is the file name offered when a single page is downloaded
func DownloadName(stem string, number int) string {
	return fmt.Sprintf("%s_page_%03d.png", stem, number)
}

// ArchiveName is the file name offered for the ZIP of all pages
func ArchiveName(stem string) string {
	return stem + "_all_pages.zip"
}

// Stem strips directories and the final extension from an uploaded file name.
// Browsers on Windows may send backslash separated paths, so both separators count.
func Stem(fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		return "document"
	}
	return stem
}

// Digest is the content identity of a document
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
