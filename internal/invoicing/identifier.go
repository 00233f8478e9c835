package invoicing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rezonia/afip-invoicer/internal/model"
)

// Identifier locates an authorized receipt.
type Identifier struct {
	PointOfSale int
	Type        int
	Number      int64
}

func (id Identifier) String() string {
	return fmt.Sprintf("%d:%d:%d", id.PointOfSale, id.Type, id.Number)
}

// Prefix locates a receipt sequence: one invoice type at one point of sale.
type Prefix struct {
	PointOfSale int
	Type        int
}

func (p Prefix) String() string {
	return fmt.Sprintf("%d:%d", p.PointOfSale, p.Type)
}

// ParseIdentifier parses "pos:type:number".
func ParseIdentifier(s string) (Identifier, error) {
	parts, err := splitInts(s, 3)
	if err != nil {
		return Identifier{}, model.NewMalformedIdentifierError(s, err)
	}
	return Identifier{PointOfSale: int(parts[0]), Type: int(parts[1]), Number: parts[2]}, nil
}

// ParsePrefix parses "pos:type".
func ParsePrefix(s string) (Prefix, error) {
	parts, err := splitInts(s, 2)
	if err != nil {
		return Prefix{}, model.NewMalformedIdentifierError(s, err)
	}
	return Prefix{PointOfSale: int(parts[0]), Type: int(parts[1])}, nil
}

func splitInts(s string, n int) ([]int64, error) {
	fields := strings.Split(s, ":")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d colon separated fields, got %d", n, len(fields))
	}

	out := make([]int64, n)
	for i, f := range fields {
		if f == "" || strings.TrimSpace(f) != f || strings.HasPrefix(f, "+") || strings.HasPrefix(f, "-") {
			return nil, errors.New("fields must be plain base-10 integers")
		}
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
