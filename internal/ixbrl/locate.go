package ixbrl

import (
	"bytes"
	"context"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// SourceKind is the format of a located instance document.
type SourceKind string

const (
	SourceInline SourceKind = "ixbrl"
	SourceXML    SourceKind = "xbrl"
)

// headProbe is how many leading bytes are checked for inline markers.
const headProbe = 5000

var (
	exhibitPattern  = regexp.MustCompile(`(?i)((^|[-_.x])ex-?\d|exhibit|^r\d+\.html?$)`)
	linkbaseMarkers = []string{"_cal", "_def", "_lab", "_pre", "_ref", "filingsummary"}
)

// Source is a located instance document.
type Source struct {
	URL  string
	Name string
	Size int64
	Kind SourceKind
}

// Locate finds the instance document of a filing directory. The largest
// non-exhibit HTML file with ix:nonFraction near its head wins, then the
// largest HTML file, then the largest non-linkbase XML file. Returns nil
// when nothing qualifies.
func Locate(ctx context.Context, fs afs.Service, dir string) (*Source, error) {
	objects, err := fs.List(ctx, dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ixbrl: list %s", dir)
	}

	var htmls, xmls []storage.Object
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		name := strings.ToLower(obj.Name())
		switch path.Ext(name) {
		case ".htm", ".html":
			if !IsExhibit(name) {
				htmls = append(htmls, obj)
			}
		case ".xml":
			if !IsLinkbase(name) {
				xmls = append(xmls, obj)
			}
		}
	}

	if len(htmls) > 0 {
		sortBySize(htmls)
		for _, obj := range htmls {
			ok, err := hasInlineMarker(ctx, fs, obj.URL())
			if err != nil {
				return nil, err
			}
			if ok {
				return newSource(obj, SourceInline), nil
			}
		}
		return newSource(htmls[0], SourceInline), nil
	}
	if len(xmls) > 0 {
		sortBySize(xmls)
		return newSource(xmls[0], SourceXML), nil
	}
	return nil, nil
}

// IsExhibit reports whether a file name looks like a filing exhibit or a
// rendered report page.
func IsExhibit(name string) bool {
	return exhibitPattern.MatchString(name)
}

// IsLinkbase reports whether a file name looks like a linkbase or filing
// summary rather than an instance.
func IsLinkbase(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range linkbaseMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func hasInlineMarker(ctx context.Context, fs afs.Service, url string) (bool, error) {
	rc, err := fs.OpenURL(ctx, url)
	if err != nil {
		return false, eris.Wrapf(err, "ixbrl: open %s", url)
	}
	defer rc.Close() //nolint:errcheck

	head, err := io.ReadAll(io.LimitReader(rc, headProbe))
	if err != nil {
		return false, eris.Wrapf(err, "ixbrl: read head %s", url)
	}
	return bytes.Contains(bytes.ToLower(head), []byte("ix:nonfraction")), nil
}

func sortBySize(objs []storage.Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].Size() > objs[j].Size()
	})
}

func newSource(obj storage.Object, kind SourceKind) *Source {
	return &Source{URL: obj.URL(), Name: obj.Name(), Size: obj.Size(), Kind: kind}
}
