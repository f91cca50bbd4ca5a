package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// Assistant replies mention products as "<text> (ID: <number>)".
var productRefPattern = regexp.MustCompile(`([^.\n(]*)\(ID:\s*(\d+)\)`)

// ProductRef is one product mention found in an assistant reply. Product is
// nil until resolved against the catalog.
type ProductRef struct {
	ProductID int64
	Label     string
	Product   *domain.Product
}

// ParseProductRefs scans a reply for product mentions. The label is the text
// immediately preceding the id marker.
func ParseProductRefs(text string) []ProductRef {
	matches := productRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]ProductRef, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		refs = append(refs, ProductRef{
			ProductID: id,
			Label:     strings.TrimSpace(m[1]),
		})
	}
	return refs
}
