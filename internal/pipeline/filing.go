package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/rotisserie/eris"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// Sidecar file names read from a filing directory.
const (
	ParsedFile   = "parsed.json"
	MappedFile   = "mapped.json"
	MetadataFile = "filing.yaml"
)

var fingerprintKey = []byte("ratiocheck:filing-source:v1:0000")

// Filing is one filing directory with its optional sidecar sources.
type Filing struct {
	Dir    string
	Meta   model.FilingMeta
	Parsed *model.ParsedFiling
	Mapped *model.MappedFiling
	// Fingerprint hashes every sidecar plus the directory listing.
	Fingerprint string
}

// LoadFiling reads the sidecars of dir. Missing sidecars are not an error;
// a malformed one is.
func LoadFiling(ctx context.Context, fs afs.Service, dir string) (*Filing, error) {
	if fs == nil {
		fs = afs.New()
	}
	f := &Filing{Dir: dir}

	hasher, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: init fingerprint")
	}

	read := func(name string) ([]byte, error) {
		u := url.Join(dir, name)
		ok, err := fs.Exists(ctx, u)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: stat %s", u)
		}
		if !ok {
			return nil, nil
		}
		data, err := fs.DownloadWithURL(ctx, u)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: read %s", u)
		}
		_, _ = hasher.Write([]byte(name))
		_, _ = hasher.Write(data)
		return data, nil
	}

	if data, err := read(MetadataFile); err != nil {
		return nil, err
	} else if data != nil {
		if err := yaml.Unmarshal(data, &f.Meta); err != nil {
			return nil, eris.Wrapf(err, "pipeline: parse %s", MetadataFile)
		}
	}
	if data, err := read(ParsedFile); err != nil {
		return nil, err
	} else if data != nil {
		if f.Parsed, err = model.DecodeParsed(data); err != nil {
			return nil, eris.Wrapf(err, "pipeline: decode %s", ParsedFile)
		}
	}
	if data, err := read(MappedFile); err != nil {
		return nil, err
	} else if data != nil {
		if f.Mapped, err = model.DecodeMapped(data); err != nil {
			return nil, eris.Wrapf(err, "pipeline: decode %s", MappedFile)
		}
	}

	objects, err := fs.List(ctx, dir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list %s", dir)
	}
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		fmt.Fprintf(hasher, "%s:%d;", obj.Name(), obj.Size())
	}
	f.Fingerprint = fmt.Sprintf("%016x", hasher.Sum64())

	f.applyDefaults()
	zap.L().Debug("pipeline: filing loaded",
		zap.String("dir", dir),
		zap.String("company", f.Meta.Company),
		zap.Bool("parsed", f.Parsed != nil),
		zap.Bool("mapped", f.Mapped != nil),
	)
	return f, nil
}

// applyDefaults names the filing after its directory when no metadata
// says otherwise.
func (f *Filing) applyDefaults() {
	base := path.Base(strings.TrimRight(f.Dir, "/"))
	if f.Meta.Company == "" {
		f.Meta.Company = base
	}
	if f.Meta.FilingID == "" {
		f.Meta.FilingID = base
	}
	f.Meta.Market = model.Market(strings.ToLower(string(f.Meta.Market)))
}

// Fingerprint returns the source hash of dir.
func Fingerprint(ctx context.Context, fs afs.Service, dir string) (string, error) {
	f, err := LoadFiling(ctx, fs, dir)
	if err != nil {
		return "", err
	}
	return f.Fingerprint, nil
}
