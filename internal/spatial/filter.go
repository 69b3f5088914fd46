package spatial

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReferenceSRID is the coordinate system bounding boxes are expressed in (Swiss LV95).
const ReferenceSRID = 2056

const (
	// TimestampDepth is the depth of a prefix ending with the timestamp segment.
	TimestampDepth = 4
	// SRIDDepth is the depth of a prefix pinning one coordinate system.
	SRIDDepth = 5
)

// SupportedSRIDs lists the coordinate systems tiles are published in.
var SupportedSRIDs = []int{21781, 2056, 4326, 3857}


// Envelope is the plausibility envelope of a bounding box in ReferenceSRID.
var Envelope = BBox{MinX: 1e6, MinY: 1e6, MaxX: 3e6, MaxY: 3e6}

type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// ParseBBox parses "minx,miny,maxx,maxy" and checks it lies inside Envelope.
func ParseBBox(raw string) (BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, errors.Errorf("bbox '%s' must contain 4 comma separated numbers", raw)
	}
	values := make([]float64, 4)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, errors.Wrapf(err, "bbox '%s' contains an invalid number", raw)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return BBox{}, errors.Errorf("bbox '%s' contains a non finite number", raw)
		}
		values[i] = value
	}
	bbox := BBox{MinX: values[0], MinY: values[1], MaxX: values[2], MaxY: values[3]}
	return bbox, bbox.Validate()
}

func (bbox BBox) Validate() error {
	if bbox.MinX >= bbox.MaxX || bbox.MinY >= bbox.MaxY {
		return errors.Errorf("bbox %s is empty or inverted", bbox)
	}
	if bbox.MinX < Envelope.MinX || bbox.MinY < Envelope.MinY ||
		bbox.MaxX > Envelope.MaxX || bbox.MaxY > Envelope.MaxY {
		return errors.Errorf("bbox %s lies outside of the EPSG:%d envelope %s", bbox, ReferenceSRID, Envelope)
	}
	return nil
}

func (bbox BBox) String() string {
	format := func(value float64) string {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return format(bbox.MinX) + "," + format(bbox.MinY) + "," + format(bbox.MaxX) + "," + format(bbox.MaxY)
}

func IsSupportedSRID(srid int) bool {
	for _, supported := range SupportedSRIDs {
		if supported == srid {
			return true
		}
	}
	return false
}

// Segments splits a prefix into its non-empty path segments.
func Segments(prefix string) []string {
	var segments []string
	for _, segment := range strings.Split(prefix, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// ResolveSRIDs returns the coordinate systems a tile prefix covers.
// A prefix ending at the timestamp covers every supported system, a deeper one pins exactly one.
func ResolveSRIDs(prefix string) ([]int, error) {
	segments := Segments(prefix)
	switch len(segments) {
	case TimestampDepth:
		srids := make([]int, len(SupportedSRIDs))
		copy(srids, SupportedSRIDs)
		return srids, nil
	case SRIDDepth:
		srid, err := strconv.Atoi(segments[SRIDDepth-1])
		if err != nil || !IsSupportedSRID(srid) {
			return nil, errors.Errorf("'%s' is not a supported srid, expected one of %v",
				segments[SRIDDepth-1], SupportedSRIDs)
		}
		return []int{srid}, nil
	default:
		return nil, errors.Errorf("prefix '%s' has %d segments, a bbox requires "+
			"<version>/<layer>/<style>/<time>[/<srid>]", prefix, len(segments))
	}
}

// Filter restricts a deletion to the coordinate systems of a tile prefix.
type Filter struct {
	BBox  BBox
	SRIDs []int
}

// Prefixes returns one listing prefix per coordinate system of the filter.
func (filter *Filter) Prefixes(prefix string) []string {
	segments := Segments(prefix)
	if len(segments) == SRIDDepth {
		return []string{prefix}
	}
	prefixes := make([]string, 0, len(filter.SRIDs))
	for _, srid := range filter.SRIDs {
		prefixes = append(prefixes, path.Join(prefix, strconv.Itoa(srid))+"/")
	}
	return prefixes
}

func (filter *Filter) String() string {
	return fmt.Sprintf("bbox %s (EPSG:%d), srids %v", filter.BBox, ReferenceSRID, filter.SRIDs)
}
