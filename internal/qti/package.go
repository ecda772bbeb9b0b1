// Package qti imports single-choice items from an IMS QTI content package
// (a zip with imsmanifest.xml) as question bank entries.
package qti

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

const maxEntrySize = 8 << 20

var ErrNoManifest = errors.New("qti: imsmanifest.xml not found")

type Manifest struct {
	Resources []ManifestResource
}

type ManifestResource struct {
	Identifier string
	Href       string
	Type       string
	Files      []string
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

// Package is an opened content package; files are read lazily from the zip.
type Package struct {
	files    map[string]*zip.File
	Manifest Manifest
	// item files named by the manifest, in manifest order
	Items []string
}

func Open(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "qti: open zip")
	}
	p := &Package{files: map[string]*zip.File{}}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := cleanName(f.Name)
		if !ok {
			continue
		}
		p.files[name] = f
	}

	var raw []byte
	for _, n := range []string{"imsmanifest.xml", "manifest.xml"} {
		if _, ok := p.files[n]; ok {
			if raw, err = p.ReadFile(n); err != nil {
				return nil, err
			}
			break
		}
	}
	if raw == nil {
		return nil, ErrNoManifest
	}
	var mf imsManifest
	if err := xml.Unmarshal(raw, &mf); err != nil {
		return nil, errors.Wrap(err, "qti: parse manifest")
	}
	for _, r := range mf.Resources {
		res := ManifestResource{Identifier: r.Identifier, Href: r.Href, Type: r.Type}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		p.Manifest.Resources = append(p.Manifest.Resources, res)
		href := strings.ToLower(r.Href)
		if strings.HasSuffix(href, ".xml") && !strings.Contains(href, "manifest") {
			if name, ok := cleanName(r.Href); ok {
				p.Items = append(p.Items, name)
			}
		}
	}
	return p, nil
}

// ReadFile returns the content of a package file by its slash path.
func (p *Package) ReadFile(name string) ([]byte, error) {
	name, ok := cleanName(name)
	if !ok {
		return nil, errors.Errorf("qti: bad path %q", name)
	}
	f, found := p.files[name]
	if !found {
		return nil, errors.Errorf("qti: %s not in package", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "qti: open %s", name)
	}
	defer rc.Close()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "qti: read %s", name)
	}
	if n > maxEntrySize {
		return nil, errors.Errorf("qti: %s is too large", name)
	}
	return buf.Bytes(), nil
}

// cleanName normalises a zip entry path and rejects ones escaping the root.
func cleanName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "../") {
		return "", false
	}
	return strings.TrimPrefix(clean, "/"), true
}
