// Package fiscalcode builds the numeric code printed under the barcode of an
// authorized receipt: issuer CUIT, type, point of sale, CAE and issue date,
// followed by a check digit.
package fiscalcode

import (
	"errors"
	"fmt"

	"github.com/rezonia/afip-invoicer/internal/model"
)

const dateLayout = "20060102"

// ErrNotCommitted is returned for receipts without a CAE.
var ErrNotCommitted = errors.New("fiscalcode: receipt has no CAE")

// Assemble concatenates the fields of the code, without check digit.
func Assemble(r *model.Receipt) (string, error) {
	if !r.IsCommitted() {
		return "", ErrNotCommitted
	}
	if r.Company == nil {
		return "", errors.New("fiscalcode: receipt has no issuer")
	}
	return fmt.Sprintf("%s%03d%05d%s%s",
		r.Company.CUIT,
		r.Type,
		r.PointOfSale,
		r.CAE,
		r.Date.Format(dateLayout),
	), nil
}

// CheckDigit computes the modulo 10 digit. Positions are counted from zero;
// digits at odd positions weigh 3, digits at even positions weigh 1.
func CheckDigit(code string) (int, error) {
	if code == "" {
		return 0, errors.New("fiscalcode: empty code")
	}

	var odd, even int
	for i, c := range code {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("fiscalcode: non-digit %q at position %d", c, i+1)
		}
		d := int(c - '0')
		if i%2 == 1 {
			odd += d
		} else {
			even += d
		}
	}

	total := odd*3 + even
	return (10 - total%10) % 10, nil
}

// Code returns the assembled code followed by its check digit.
func Code(r *model.Receipt) (string, error) {
	code, err := Assemble(r)
	if err != nil {
		return "", err
	}
	digit, err := CheckDigit(code)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", code, digit), nil
}

// Verify reports whether the last digit of full is the check digit of the rest.
func Verify(full string) bool {
	if len(full) < 2 {
		return false
	}
	body, last := full[:len(full)-1], full[len(full)-1]
	if last < '0' || last > '9' {
		return false
	}
	digit, err := CheckDigit(body)
	return err == nil && digit == int(last-'0')
}
