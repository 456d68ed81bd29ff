package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// macMetadataDir holds the resource forks macOS adds when it compresses a folder.
const macMetadataDir = "__MACOSX"

// Upload is one file of a bulk upload request.
type Upload struct {
	Name string
	Data []byte
}

// Extract turns the uploaded files into CSV documents. ZIP archives contribute every CSV entry
// they contain, CSV files contribute themselves, anything else is ignored. A corrupt archive
// fails the whole extraction.
func Extract(uploads []Upload) ([]string, error) {
	var documents []string
	for _, upload := range uploads {
		name := strings.ToLower(upload.Name)
		switch {
		case strings.HasSuffix(name, ".zip"):
			texts, err := extractArchive(upload)
			if err != nil {
				return nil, err
			}
			documents = append(documents, texts...)
		case strings.HasSuffix(name, ".csv"):
			documents = append(documents, decodeText(upload.Data))
		}
	}
	return documents, nil
}

func extractArchive(upload Upload) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(upload.Data), int64(len(upload.Data)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", upload.Name, err)
	}

	var texts []string
	for _, entry := range archive.File {
		if !isCSVEntry(entry) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", entry.Name, upload.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", entry.Name, upload.Name, err)
		}
		texts = append(texts, decodeText(data))
	}
	return texts, nil
}

func isCSVEntry(entry *zip.File) bool {
	if entry.FileInfo().IsDir() {
		return false
	}
	if strings.HasPrefix(entry.Name, macMetadataDir) {
		return false
	}
	return strings.HasSuffix(strings.ToLower(entry.Name), ".csv")
}

// decodeText reads bytes as UTF-8. A byte order mark is dropped and invalid sequences become
// U+FFFD instead of failing the import.
func decodeText(data []byte) string {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(text)
}
