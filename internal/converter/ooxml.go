package converter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// maxPartSize caps any single XML part read from an office package.
const maxPartSize = 32 << 20

// ooxmlPackage is an opened Office Open XML zip package.
type ooxmlPackage struct {
	files map[string]*zip.File
}

func openPackage(doc *Document) (*ooxmlPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Content), doc.Size())
	if err != nil {
		return nil, fmt.Errorf("opening %s: not an Office Open XML package: %w", doc.Name, err)
	}
	p := &ooxmlPackage{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}
	return p, nil
}

func (p *ooxmlPackage) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

func (p *ooxmlPackage) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("package part %s not found", name)
	}
	return readZipFile(f, maxPartSize)
}

func (p *ooxmlPackage) unmarshal(name string, v any) error {
	data, err := p.read(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// relations maps relationship ids of part to package paths.
func (p *ooxmlPackage) relations(part string) (map[string]string, error) {
	dir, file := path.Split(part)
	relsName := dir + "_rels/" + file + ".rels"

	var rels relationships
	if err := p.unmarshal(relsName, &rels); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join(dir, target)
		}
		out[r.ID] = target
	}
	return out, nil
}

// rejectLegacy returns ErrLegacyFormat for the pre-2007 binary formats.
func rejectLegacy(doc *Document, legacyExt string) error {
	if doc.Ext == legacyExt {
		return fmt.Errorf("%w: legacy .%s files are not supported, save as .%sx", ErrLegacyFormat, legacyExt, legacyExt)
	}
	return nil
}
