package directory

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
)

// sidToString renders a binary security identifier in its S-R-I-S-S...
// string form.
func sidToString(b []byte) (string, error) {
	const header = 8
	if len(b) < header {
		return "", errors.Errorf("SID of %d bytes is shorter than its header", len(b))
	}

	revision := b[0]
	count := int(b[1])
	if want := header + 4*count; len(b) < want {
		return "", errors.Errorf("SID of %d bytes is too short for %d sub-authorities", len(b), count)
	}

	// The identifier authority is a 48-bit big-endian value.
	var authority uint64
	for _, octet := range b[2:header] {
		authority = authority<<8 | uint64(octet)
	}

	var sid strings.Builder
	fmt.Fprintf(&sid, "S-%d-%d", revision, authority)
	for i := 0; i < count; i++ {
		off := header + 4*i
		fmt.Fprintf(&sid, "-%d", binary.LittleEndian.Uint32(b[off:off+4]))
	}
	return sid.String(), nil
}

// rdnValue returns the value of the first RDN of dn whose type is attrType,
// or "" when the DN carries none.
func rdnValue(dn string, attrType string) string {
	parsedDN, err := ldap.ParseDN(dn)
	if err != nil || len(parsedDN.RDNs) == 0 {
		return ""
	}

	for _, rdn := range parsedDN.RDNs {
		for _, rdnAttr := range rdn.Attributes {
			if strings.EqualFold(rdnAttr.Type, attrType) {
				return rdnAttr.Value
			}
		}
	}
	return ""
}
