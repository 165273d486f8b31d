package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

var (
	reDigit    = regexp.MustCompile(`\d`)
	reCurrency = regexp.MustCompile(`[$£€]`)
	reDateLike = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// Structure digests the shape of a line sequence: per-line character length
// plus digit/currency/date presence flags, content excluded. Two documents
// from the same source template that differ only in amounts and dates hash
// identically. Always produces a hash, even for an empty sequence.
func Structure(lines []textproc.Line) string {
	tokens := make([]string, 0, len(lines))
	for _, ln := range lines {
		tokens = append(tokens, fmt.Sprintf("%d|%s|%s|%s",
			len(ln.Text),
			flag(reDigit.MatchString(ln.Text)),
			flag(reCurrency.MatchString(ln.Text)),
			flag(reDateLike.MatchString(ln.Text)),
		))
	}
	sum := md5.Sum([]byte(strings.Join(tokens, "|")))
	return hex.EncodeToString(sum[:])
}

// TemplateID derives a stable template identifier from the vendor name and
// the structure hash at learning time.
func TemplateID(vendorName, structureHash string) string {
	sum := md5.Sum([]byte(vendorName + "_" + structureHash))
	return hex.EncodeToString(sum[:])
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
