package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const drawingMLNamespace = "http://schemas.openxmlformats.org/drawingml/2006/main"

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Convert turns raw PPTX bytes into the canonical per-slide text form all
// analysis strategies consume:
//
//	[slide 1]
//	  - first run
//	  - second run
//
//	[slide 2]
//	  (no text)
//
// Slides keep their deck order and empty slides are marked, never dropped,
// so findings can still reference them by number. Pure function: identical
// input always yields identical output. Any malformed input fails the whole
// conversion with a ConversionError.
func Convert(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &ConversionError{Cause: fmt.Errorf("open archive: %w", err)}
	}

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	hasPresentation := false
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if name == "ppt/presentation.xml" {
			hasPresentation = true
		}
		if m := slidePathRe.FindStringSubmatch(name); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				continue
			}
			slides = append(slides, slide{number: n, file: f})
		}
	}
	if !hasPresentation {
		return "", &ConversionError{Cause: fmt.Errorf("ppt/presentation.xml missing: not a pptx archive")}
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var out []string
	for i, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", &ConversionError{Cause: fmt.Errorf("open slide %d: %w", s.number, err)}
		}
		runs, err := extractRuns(rc)
		rc.Close()
		if err != nil {
			return "", &ConversionError{Cause: fmt.Errorf("parse slide %d: %w", s.number, err)}
		}

		// Slide numbering follows position in the deck, not the file
		// name, so a deck with gaps still counts 1..N.
		lines := []string{fmt.Sprintf("[slide %d]", i+1)}
		if len(runs) == 0 {
			lines = append(lines, "  (no text)")
		}
		for _, r := range runs {
			lines = append(lines, "  - "+r)
		}
		out = append(out, strings.Join(lines, "\n"))
	}

	return strings.Join(out, "\n\n"), nil
}

// extractRuns pulls the text of every <a:t> element in document order.
func extractRuns(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var runs []string
	depth := 0 // nesting inside <a:t>
	var buf strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" && t.Name.Space == drawingMLNamespace {
				depth++
				buf.Reset()
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" && t.Name.Space == drawingMLNamespace && depth > 0 {
				depth--
				if s := strings.TrimSpace(buf.String()); s != "" {
					runs = append(runs, s)
				}
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unterminated text run")
	}
	return runs, nil
}
