package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"lexscribe/deposition-service/internal/transcription"
)

// The docx serializer writes a minimal OOXML package by hand: the content
// types manifest, the package relationships, and word/document.xml.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func exportDocx(words []transcription.Word, speakers []transcription.Speaker, details CaseDetails, opts Options) (File, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	header := opts.CustomHeader
	if header == "" {
		header = details.Styling
		if details.CauseNumber != "" {
			header += "\nCause No. " + details.CauseNumber
		}
	}
	writeHeaderParagraph(&doc, header)

	for _, word := range words {
		doc.WriteString(`<w:p>`)
		if opts.SpeakerLabels && word.Speaker != nil {
			writeRun(&doc, SpeakerName(speakers, *word.Speaker)+": ", true, 0)
		}
		writeRun(&doc, word.Text+" ", false, 0)
		doc.WriteString(`</w:p>`)
	}

	doc.WriteString(`<w:p>`)
	writeRun(&doc, opts.CustomFooter, false, 20)
	doc.WriteString(`</w:p>`)
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", doc.String()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return File{}, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return File{}, err
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, err
	}

	return File{
		Name:        filename(details, "docx"),
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        buf.Bytes(),
	}, nil
}

// writeHeaderParagraph emits the bolded header, one run per line with line
// breaks between them.
func writeHeaderParagraph(doc *strings.Builder, header string) {
	doc.WriteString(`<w:p>`)
	lines := strings.Split(header, "\n")
	for i, line := range lines {
		if i > 0 {
			doc.WriteString(`<w:r><w:br/></w:r>`)
		}
		writeRun(doc, line, true, 24)
	}
	doc.WriteString(`</w:p>`)
}

// writeRun emits a single text run. size is in half-points; zero means the
// document default.
func writeRun(doc *strings.Builder, text string, bold bool, size int) {
	doc.WriteString(`<w:r>`)
	if bold || size > 0 {
		doc.WriteString(`<w:rPr>`)
		if bold {
			doc.WriteString(`<w:b/>`)
		}
		if size > 0 {
			doc.WriteString(`<w:sz w:val="` + strconv.Itoa(size) + `"/>`)
		}
		doc.WriteString(`</w:rPr>`)
	}
	doc.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&xmlWriter{doc}, []byte(text))
	doc.WriteString(`</w:t></w:r>`)
}

type xmlWriter struct {
	b *strings.Builder
}

func (w *xmlWriter) Write(p []byte) (int, error) {
	return w.b.Write(p)
}
