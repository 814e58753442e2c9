package ixbrl

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

type xmlFrame struct {
	tag     string
	fact    *VerifiedFact
	context *ContextInfo
	text    strings.Builder
}

// ExtractXML scans a plain XBRL instance document. Every element carrying
// both contextRef and unitRef is a numeric fact; values are canonical so
// sign and scale stay at their identity defaults.
func ExtractXML(data []byte) (*Result, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "ixbrl: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var (
		stack    []*xmlFrame
		facts    []VerifiedFact
		contexts []ContextInfo
		current  *ContextInfo
		dropped  int
	)

	for {
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ixbrl: read xml token")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			frame := &xmlFrame{tag: strings.ToLower(t.Name.Local)}
			switch {
			case frame.tag == "context":
				current = &ContextInfo{ID: attr(t, "id")}
				frame.context = current
			case current != nil && (frame.tag == "segment" || frame.tag == "scenario"):
				current.HasDimensions = true
			case attr(t, "contextRef") != "" && attr(t, "unitRef") != "":
				frame.fact = &VerifiedFact{
					Concept:    qualified(t.Name),
					Sign:       1,
					Decimals:   attr(t, "decimals"),
					UnitRef:    attr(t, "unitRef"),
					ContextRef: attr(t, "contextRef"),
					FactID:     attr(t, "id"),
				}
			}
			stack = append(stack, frame)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			text := strings.TrimSpace(frame.text.String())

			switch {
			case frame.fact != nil:
				d, err := decimal.NewFromString(text)
				if err != nil {
					dropped++
					continue
				}
				frame.fact.Exact = d
				frame.fact.Value = d.InexactFloat64()
				frame.fact.DisplayedText = text
				facts = append(facts, *frame.fact)
			case frame.context != nil:
				switch {
				case current.Instant != "":
					current.PeriodType = PeriodInstant
				case current.Start != "" && current.End != "":
					current.PeriodType = PeriodDuration
				}
				contexts = append(contexts, *current)
				current = nil
			case current != nil:
				switch frame.tag {
				case "instant":
					current.Instant = text
				case "startdate":
					current.Start = text
				case "enddate":
					current.End = text
				}
			}
		}
	}

	zap.L().Info("ixbrl: extracted xml instance facts",
		zap.Int("facts", len(facts)),
		zap.Int("contexts", len(contexts)),
		zap.Int("dropped", dropped),
	)
	return &Result{Kind: SourceXML, Facts: facts, Contexts: NewContextSet(contexts)}, nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// qualified renders a raw element name as prefix:local.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
