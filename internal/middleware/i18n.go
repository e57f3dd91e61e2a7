package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// countryLocales maps a visitor's country to the copy language we default to
// when the browser sends no usable preference.
var countryLocales = map[string]string{
	"IN": "hi",
	"ID": "id",
	"ES": "es",
	"MX": "es",
	"AR": "es",
	"CO": "es",
	"FR": "fr",
	"BR": "pt",
	"PT": "pt",
}

// Localizer picks a response locale from headers, then country.
type Localizer struct {
	supported []language.Tag
	matcher   language.Matcher
	fallback  string
}

// NewLocalizer builds a matcher over supported BCP 47 tags. The first
// supported tag is the fallback unless defaultLocale names another.
func NewLocalizer(defaultLocale string, supported []string) *Localizer {
	var tags []language.Tag
	for _, s := range supported {
		if tag, err := language.Parse(strings.TrimSpace(s)); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
	}
	if def, err := language.Parse(defaultLocale); err == nil {
		for i, t := range tags {
			if t == def {
				tags[0], tags[i] = tags[i], tags[0]
				break
			}
		}
	}
	return &Localizer{
		supported: tags,
		matcher:   language.NewMatcher(tags),
		fallback:  baseOf(tags[0]),
	}
}

func I18N(loc *Localizer, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := loc.Detect(r, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Detect returns the base language to answer in.
func (l *Localizer) Detect(r *http.Request, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if m, ok := l.match(v); ok {
			return m
		}
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		if m, ok := l.match(v); ok {
			return m
		}
	}
	if c := countryLocales[strings.ToUpper(country)]; c != "" {
		if m, ok := l.match(c); ok {
			return m
		}
	}
	return l.fallback
}

func (l *Localizer) match(accept string) (string, bool) {
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return "", false
	}
	tag, _, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return "", false
	}
	return baseOf(tag), true
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	return clientIPForRateLimit(r)
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry prefers CDN country headers, then a region in the locale
// headers, then the GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" && !strings.EqualFold(val, "XX") {
			return strings.ToUpper(val)
		}
	}
	if region := localeRegion(r.Header.Get("X-Locale")); region != "" {
		return region
	}
	if region := localeRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" && net.ParseIP(ip) != nil {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func localeRegion(accept string) string {
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		return ""
	}
	for _, tag := range prefs {
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	return ""
}
