// Package blocklist loads a newline-delimited list of email domains into a
// bloom filter for cheap membership checks at order time.
//
// Bloom lookups can report false positives, so a hit means "domain is almost
// certainly listed"; a clean domain is rejected with probability fpr at
// worst. That tradeoff is acceptable for a disposable-domain blocklist where
// the list is large and the check sits on the request path.
package blocklist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

const fpr = 0.001

// List is an immutable set of blocked email domains.
type List struct {
	filter *bloom.BloomFilter
	count  int
}

// Load reads domains from path, one per line. Files ending in .gz are
// decompressed on the fly. Blank lines and lines starting with '#' are
// skipped; domains are matched case-insensitively.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open blocklist")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	return FromReader(r)
}

// FromReader builds a List from newline-delimited domains.
func FromReader(r io.Reader) (*List, error) {
	domains, err := readDomains(r)
	if err != nil {
		return nil, err
	}

	filter := bloom.NewWithEstimates(uint(max(len(domains), 1)), fpr)
	for _, d := range domains {
		filter.AddString(d)
	}

	return &List{filter: filter, count: len(domains)}, nil
}

// Blocked reports whether domain is (probably) on the list.
func (l *List) Blocked(domain string) bool {
	return l.filter.TestString(strings.ToLower(strings.TrimSpace(domain)))
}

// Len returns the number of domains loaded.
func (l *List) Len() int {
	return l.count
}

func readDomains(r io.Reader) ([]string, error) {
	var domains []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan blocklist")
	}
	return domains, nil
}
