// File: melshare/layout.go
// Author: momentics <momentics@gmail.com>

package melshare

import (
	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
)

// DataType tags the contents of the data sub-region.
type DataType uint32

const (
	TypeNone DataType = iota
	TypeFloat64
	TypeBytes
)

func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeFloat64:
		return "float64"
	case TypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

const (
	dataLenOffset  = 0
	dataTypeOffset = 4
	dataOffset     = 8
	minRegionSize  = 16
)

// Layout gives the sub-region offsets for a region size.
type Layout struct {
	Size         int
	DataCap      int
	MsgLenOffset int
	MsgOffset    int
	MsgCap       int
}

// LayoutFor computes the layout of a region of size bytes.
func LayoutFor(size int) (Layout, error) {
	if size < minRegionSize {
		return Layout{}, errors.Wrapf(api.ErrInvalidArgument, "melshare: region of %d bytes is too small", size)
	}
	msgCap := size / 4
	dataCap := (size - 12 - msgCap) / 8 * 8
	return Layout{
		Size:         size,
		DataCap:      dataCap,
		MsgLenOffset: dataOffset + dataCap,
		MsgOffset:    dataOffset + dataCap + 4,
		MsgCap:       msgCap,
	}, nil
}

// MaxValues returns how many float64 values fit the data sub-region.
func (l Layout) MaxValues() int { return l.DataCap / 8 }
