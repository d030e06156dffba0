package oss

// Percent-encoding per the provider's signing rules. Three sets are used:
//
//   - path:   everything except ASCII alphanumerics and "-._~/" is escaped;
//     object keys keep their slashes.
//   - query:  RFC 3986 strict, everything except alphanumerics and "-._~".
//   - strict: everything except alphanumerics. Used for query values that
//     are embedded in both the canonical string and the final URL, so the
//     two encodings can never diverge.

const upperhex = "0123456789ABCDEF"

func isAlphanum(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9'
}

func escape(s string, keep string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i], keep) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, keep) {
			buf = append(buf, '%', upperhex[c>>4], upperhex[c&0xf])
		} else {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

func shouldEscape(c byte, keep string) bool {
	if isAlphanum(c) {
		return false
	}
	for i := 0; i < len(keep); i++ {
		if keep[i] == c {
			return false
		}
	}
	return true
}

// encodePath escapes an object key for use in the URL path and the
// canonical resource.
func encodePath(s string) string { return escape(s, "-._~/") }

// encodeQuery escapes a query key or value under RFC 3986 rules.
func encodeQuery(s string) string { return escape(s, "-._~") }

// encodeStrict escapes every byte that is not an ASCII letter or digit.
func encodeStrict(s string) string { return escape(s, "") }
