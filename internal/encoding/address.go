package encoding

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/aacamara/mailthread/pkg/types"
)

var angleAddrPattern = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)

// ParseAddress parses a single address token, either "Name <addr>" or a bare
// address. The email is lowercase-normalized. Returns false when no address
// can be extracted.
func ParseAddress(raw string) (types.Address, bool) {
	raw = strings.TrimSpace(DecodeHeader(raw))
	if raw == "" {
		return types.Address{}, false
	}

	if addr, err := mail.ParseAddress(raw); err == nil {
		return types.Address{
			Name:  strings.TrimSpace(addr.Name),
			Email: strings.ToLower(addr.Address),
		}, true
	}

	// Sloppy input: pull the first angle-bracketed address and treat the
	// text before it as the display name.
	if m := angleAddrPattern.FindStringSubmatchIndex(raw); m != nil {
		email := strings.ToLower(raw[m[2]:m[3]])
		name := strings.Trim(strings.TrimSpace(raw[:m[0]]), `"'< `)
		return types.Address{Name: name, Email: email}, true
	}

	// Last resort: any whitespace-separated token containing an @.
	for _, tok := range strings.Fields(raw) {
		if !strings.Contains(tok, "@") {
			continue
		}
		tok = strings.Trim(tok, `<>"',;:()[]`)
		if tok == "" || !strings.Contains(tok, "@") {
			continue
		}
		return types.Address{Email: strings.ToLower(tok)}, true
	}

	return types.Address{}, false
}

// ParseAddressList parses a comma- or semicolon-separated list of address
// tokens, skipping entries that yield no address.
func ParseAddressList(raw string) []types.Address {
	raw = strings.TrimSpace(DecodeHeader(raw))
	if raw == "" {
		return nil
	}

	if list, err := mail.ParseAddressList(raw); err == nil {
		addrs := make([]types.Address, 0, len(list))
		for _, a := range list {
			addrs = append(addrs, types.Address{
				Name:  strings.TrimSpace(a.Name),
				Email: strings.ToLower(a.Address),
			})
		}
		return addrs
	}

	var addrs []types.Address
	for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if addr, ok := ParseAddress(tok); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
