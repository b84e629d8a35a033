package report

import (
	"encoding/json"
	"fmt"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/fxamacker/cbor/v2"
)

const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

type Encoder struct {
	format string
	cbor   cbor.EncMode
}

func NewEncoder(format string) (*Encoder, error) {
	switch format {
	case FormatJSON:
		return &Encoder{format: format}, nil
	case FormatCBOR:
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return nil, fmt.Errorf("cbor enc mode: %w", err)
		}
		return &Encoder{format: format, cbor: em}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

func (e *Encoder) Encode(r entity.CutReport) ([]byte, string, string, error) {
	if r.Cuts == nil {
		r.Cuts = []entity.CutReportRow{}
	}
	switch e.format {
	case FormatCBOR:
		data, err := e.cbor.Marshal(r)
		if err != nil {
			return nil, "", "", fmt.Errorf("marshal cbor report: %w", err)
		}
		return data, "application/cbor", "cbor", nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, "", "", fmt.Errorf("marshal json report: %w", err)
		}
		return data, "application/json", "json", nil
	}
}

// Decode is the inverse of Encode for the given format.
func Decode(format string, data []byte) (entity.CutReport, error) {
	var r entity.CutReport
	var err error
	switch format {
	case FormatCBOR:
		err = cbor.Unmarshal(data, &r)
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	default:
		err = fmt.Errorf("unknown report format %q", format)
	}
	return r, err
}
