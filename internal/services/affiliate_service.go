package services

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"roomspark-backend/internal/models"
)

const affiliateParam = "tag"

// AffiliateRewriter adds the Amazon associate tag to marketplace links.
type AffiliateRewriter struct {
	tag string
	log zerolog.Logger
}

func NewAffiliateRewriter(tag string, log zerolog.Logger) *AffiliateRewriter {
	return &AffiliateRewriter{tag: tag, log: log}
}

// ConvertProductLinks returns a copy of products with Amazon links tagged
// and marked as affiliate. Links that already carry a tag are kept as is.
// Applying it twice gives the same result as applying it once.
func (a *AffiliateRewriter) ConvertProductLinks(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	if a.tag == "" {
		return out
	}

	for i := range out {
		link, ok := a.convert(out[i].Link)
		if !ok {
			continue
		}
		out[i].Link = link
		out[i].IsAffiliate = true
	}
	return out
}

func (a *AffiliateRewriter) convert(link string) (string, bool) {
	if link == "" {
		return link, false
	}
	u, schemeless, err := parseLink(link)
	if err != nil || u.Host == "" {
		if err != nil {
			a.log.Warn().Err(err).Str("link", link).Msg("failed to parse product link")
		}
		return link, false
	}
	if !hostMatches(u.Hostname(), amazonHosts) {
		return link, false
	}
	if u.Query().Has(affiliateParam) {
		return link, true
	}

	param := affiliateParam + "=" + url.QueryEscape(a.tag)
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}

	rewritten := u.String()
	if schemeless {
		rewritten = strings.TrimPrefix(rewritten, "https://")
	}
	return rewritten, true
}
