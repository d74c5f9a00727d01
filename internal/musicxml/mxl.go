package musicxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scorekit/internal/score"
)

// container.xml shape inside an .mxl archive.
type mxlContainer struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// DecodeMXL reads a compressed MusicXML container. The score entry is
// located through META-INF/container.xml; when that is missing, the first
// top-level .xml or .musicxml entry is used.
func DecodeMXL(r io.ReaderAt, size int64) (*score.Score, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open mxl: %w", err)
	}

	rootPath := ""
	for _, f := range zr.File {
		if f.Name == "META-INF/container.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open container.xml: %w", err)
			}
			var c mxlContainer
			err = xml.NewDecoder(rc).Decode(&c)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("parse container.xml: %w", err)
			}
			if len(c.Rootfiles.Rootfile) > 0 {
				rootPath = c.Rootfiles.Rootfile[0].FullPath
			}
			break
		}
	}
	if rootPath == "" {
		for _, f := range zr.File {
			if strings.Contains(f.Name, "/") {
				continue
			}
			ext := strings.ToLower(filepath.Ext(f.Name))
			if ext == ".xml" || ext == ".musicxml" {
				rootPath = f.Name
				break
			}
		}
	}
	if rootPath == "" {
		return nil, fmt.Errorf("mxl: no score entry found")
	}

	for _, f := range zr.File {
		if f.Name == rootPath {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", rootPath, err)
			}
			defer rc.Close()
			return Decode(rc)
		}
	}
	return nil, fmt.Errorf("mxl: rootfile %s missing from archive", rootPath)
}

// EncodeMXL writes the score as a compressed container with a single
// score.xml rootfile.
func EncodeMXL(w io.Writer, s *score.Score) error {
	zw := zip.NewWriter(w)

	cw, err := zw.Create("META-INF/container.xml")
	if err != nil {
		return err
	}
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container>
  <rootfiles>
    <rootfile full-path="score.xml" media-type="application/vnd.recordare.musicxml+xml"/>
  </rootfiles>
</container>
`
	if _, err := io.WriteString(cw, container); err != nil {
		return err
	}

	sw, err := zw.Create("score.xml")
	if err != nil {
		return err
	}
	if err := Encode(sw, s); err != nil {
		return err
	}
	return zw.Close()
}

// DecodeFile dispatches on the file extension: .mxl goes through the zip
// container, anything else is parsed as plain MusicXML. SourcePath is
// recorded on the score's metadata.
func DecodeFile(path string) (*score.Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s *score.Score
	if strings.EqualFold(filepath.Ext(path), ".mxl") {
		s, err = DecodeMXL(bytes.NewReader(data), int64(len(data)))
	} else {
		s, err = Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	s.Metadata.SourcePath = path
	return s, nil
}

// EncodeFile dispatches on the output extension.
func EncodeFile(path string, s *score.Score) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".mxl") {
		return EncodeMXL(f, s)
	}
	return Encode(f, s)
}
