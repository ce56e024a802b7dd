package analyzer

import "strings"

// Insecure/deprecated rule ids, in evaluation order.
const (
	RuleAcceptCHLifetime     = "insecure.accept-ch-lifetime"
	RuleACAMMethods          = "insecure.acam-methods"
	RuleACAOOpen             = "insecure.acao-open"
	RuleAllowMethods         = "insecure.allow-methods"
	RuleCacheControl         = "insecure.cache-control"
	RuleClearSiteDataHTTP    = "insecure.clear-site-data-http"
	RuleContentDPR           = "insecure.content-dpr"
	RuleCSPUnsafe            = "insecure.csp-unsafe"
	RuleCSPNoDirective       = "insecure.csp-no-directive"
	RuleCSPDeprecated        = "insecure.csp-deprecated"
	RuleCSPAssignment        = "insecure.csp-assignment"
	RuleCSPMixedContent      = "insecure.csp-mixed-content"
	RuleCSPWildcard          = "insecure.csp-wildcard"
	RuleContentTypeLegacy    = "insecure.content-type-legacy"
	RuleContentTypeHTML      = "insecure.content-type-html"
	RuleEtag                 = "insecure.etag"
	RuleExpectCT             = "insecure.expect-ct"
	RuleFeaturePolicy        = "insecure.feature-policy"
	RuleHTTPTransport        = "insecure.http-transport"
	RuleLargeAllocation      = "insecure.large-allocation"
	RulePPUnknownFeature     = "insecure.pp-unknown-feature"
	RulePPWildcard           = "insecure.pp-wildcard"
	RulePPNone               = "insecure.pp-none"
	RulePPDocumentDomain     = "insecure.pp-document-domain"
	RuleOnionLocation        = "insecure.onion-location"
	RulePublicKeyPins        = "insecure.public-key-pins"
	RuleReferrerUnsafeValue  = "insecure.referrer-unsafe-value"
	RuleReferrerUnsafeURL    = "insecure.referrer-unsafe-url"
	RuleServerTiming         = "insecure.server-timing"
	RuleCookieFlags          = "insecure.cookie-flags"
	RuleCookieSecureHTTP     = "insecure.cookie-secure-http"
	RuleSTSWeak              = "insecure.sts-weak"
	RuleSTSDuplicate         = "insecure.sts-duplicate"
	RuleSTSHTTP              = "insecure.sts-http"
	RuleTimingAllowOrigin    = "insecure.timing-allow-origin"
	RuleTk                   = "insecure.tk"
	RuleWarning              = "insecure.warning"
	RuleWWWAuthenticateBasic = "insecure.www-authenticate-basic"
	RuleXCSP                 = "insecure.x-csp"
	RuleXCSPReportOnly       = "insecure.x-csp-report-only"
	RuleXCTODuplicate        = "insecure.xcto-duplicate"
	RuleXCTOInvalid          = "insecure.xcto-invalid"
	RuleXDNSPrefetchControl  = "insecure.x-dns-prefetch-control"
	RuleXDownloadOptions     = "insecure.x-download-options"
	RuleXFODuplicate         = "insecure.xfo-duplicate"
	RuleXFOAllowFrom         = "insecure.xfo-allow-from"
	RuleXPad                 = "insecure.x-pad"
	RuleXPermittedCDP        = "insecure.x-permitted-cdp"
	RuleXPingback            = "insecure.x-pingback"
	RuleXRobotsUnknown       = "insecure.x-robots-unknown"
	RuleXRobotsAll           = "insecure.x-robots-all"
	RuleXRuntime             = "insecure.x-runtime"
	RuleXUACompatible        = "insecure.x-ua-compatible"
	RuleXWebkitCSP           = "insecure.x-webkit-csp"
	RuleXWebkitCSPReportOnly = "insecure.x-webkit-csp-report-only"
	RuleXXPEnabled           = "insecure.xxp-enabled"
	RuleXXPDuplicate         = "insecure.xxp-duplicate"
)

// predicate inspects the lower-cased value of the gating header. It returns
// whether the rule fires and any extracted evidence.
type predicate func(value string, s scan) (bool, string)

// rule is one row of the insecure/deprecated table. An empty header means
// the rule does not depend on any header and always evaluates.
type rule struct {
	id     string
	header string
	match  predicate
}

var insecureRules = []rule{
	{id: RuleAcceptCHLifetime, header: "Accept-CH-Lifetime", match: present},
	{id: RuleACAMMethods, header: "Access-Control-Allow-Methods", match: exposesMethods},
	{id: RuleACAOOpen, header: "Access-Control-Allow-Origin", match: func(v string, _ scan) (bool, string) {
		return (v == "*" || v == "null") && !containsAny(v, ".*", "*."), ""
	}},
	{id: RuleAllowMethods, header: "Allow", match: exposesMethods},
	{id: RuleCacheControl, header: "Cache-Control", match: func(v string, _ scan) (bool, string) {
		return !containsAll(v, cacheDirectives...), ""
	}},
	{id: RuleClearSiteDataHTTP, header: "Clear-Site-Data", match: overPlaintext},
	{id: RuleContentDPR, header: "Content-DPR", match: present},

	{id: RuleCSPUnsafe, header: "Content-Security-Policy", match: func(v string, _ scan) (bool, string) {
		return containsAny(v, cspUnsafe...), ""
	}},
	{id: RuleCSPNoDirective, header: "Content-Security-Policy", match: func(v string, _ scan) (bool, string) {
		return !containsAny(v, cspUnsafe...) && !containsAny(v, cspDirectives...), ""
	}},
	{id: RuleCSPDeprecated, header: "Content-Security-Policy", match: func(v string, _ scan) (bool, string) {
		matched := matching(v, cspDeprecated)
		return len(matched) > 0, strings.Join(matched, ", ")
	}},
	{id: RuleCSPAssignment, header: "Content-Security-Policy", match: func(v string, _ scan) (bool, string) {
		return strings.Contains(v, "=") && !containsAny(v, cspAssignments...), ""
	}},
	{id: RuleCSPMixedContent, header: "Content-Security-Policy", match: func(v string, s scan) (bool, string) {
		return strings.Contains(v, "http:") && s.tls, ""
	}},
	{id: RuleCSPWildcard, header: "Content-Security-Policy", match: func(v string, _ scan) (bool, string) {
		return strings.Contains(v, " * "), ""
	}},

	{id: RuleContentTypeLegacy, header: "Content-Type", match: func(v string, _ scan) (bool, string) {
		matched := matching(v, legacyJSTypes)
		return len(matched) > 0, strings.Join(matched, ", ")
	}},
	{id: RuleContentTypeHTML, header: "Content-Type", match: func(v string, _ scan) (bool, string) {
		return !strings.Contains(v, "html"), ""
	}},
	{id: RuleEtag, header: "Etag", match: present},
	{id: RuleExpectCT, header: "Expect-CT", match: present},
	{id: RuleFeaturePolicy, header: "Feature-Policy", match: present},
	{id: RuleHTTPTransport, match: overPlaintext},
	{id: RuleLargeAllocation, header: "Large-Allocation", match: present},

	{id: RulePPUnknownFeature, header: "Permissions-Policy", match: func(v string, _ scan) (bool, string) {
		return !containsAny(v, permissionsFeatures...), ""
	}},
	{id: RulePPWildcard, header: "Permissions-Policy", match: contains("*")},
	{id: RulePPNone, header: "Permissions-Policy", match: contains("none")},
	{id: RulePPDocumentDomain, header: "Permissions-Policy", match: func(v string, _ scan) (bool, string) {
		if strings.Contains(v, "document-domain") {
			return true, "document-domain"
		}
		return false, ""
	}},

	{id: RuleOnionLocation, header: "Onion-Location", match: present},
	{id: RulePublicKeyPins, header: "Public-Key-Pins", match: present},

	{id: RuleReferrerUnsafeValue, header: "Referrer-Policy", match: func(v string, _ scan) (bool, string) {
		return !containsAny(v, safeReferrerPolicies...), ""
	}},
	{id: RuleReferrerUnsafeURL, header: "Referrer-Policy", match: contains("unsafe-url")},
	{id: RuleServerTiming, header: "Server-Timing", match: present},

	{id: RuleCookieFlags, header: "Set-Cookie", match: func(v string, s scan) (bool, string) {
		return !s.plaintext && !containsAll(v, "secure", "httponly"), ""
	}},
	{id: RuleCookieSecureHTTP, header: "Set-Cookie", match: func(v string, s scan) (bool, string) {
		return s.plaintext && strings.Contains(v, "secure"), ""
	}},

	{id: RuleSTSWeak, header: "Strict-Transport-Security", match: weakSTS},
	{id: RuleSTSDuplicate, header: "Strict-Transport-Security", match: func(v string, s scan) (bool, string) {
		return s.tls && strings.Contains(v, ","), ""
	}},
	{id: RuleSTSHTTP, header: "Strict-Transport-Security", match: overPlaintext},

	{id: RuleTimingAllowOrigin, header: "Timing-Allow-Origin", match: equals("*")},
	{id: RuleTk, header: "Tk", match: present},
	{id: RuleWarning, header: "Warning", match: present},
	{id: RuleWWWAuthenticateBasic, header: "WWW-Authenticate", match: func(v string, s scan) (bool, string) {
		return s.plaintext && strings.Contains(v, "basic"), ""
	}},
	{id: RuleXCSP, header: "X-Content-Security-Policy", match: present},
	{id: RuleXCSPReportOnly, header: "X-Content-Security-Policy-Report-Only", match: present},

	{id: RuleXCTODuplicate, header: "X-Content-Type-Options", match: contains(",")},
	{id: RuleXCTOInvalid, header: "X-Content-Type-Options", match: func(v string, _ scan) (bool, string) {
		return !strings.Contains(v, ",") && !strings.Contains(v, "nosniff"), ""
	}},

	{id: RuleXDNSPrefetchControl, header: "X-DNS-Prefetch-Control", match: equals("on")},
	{id: RuleXDownloadOptions, header: "X-Download-Options", match: present},
	{id: RuleXFODuplicate, header: "X-Frame-Options", match: contains(",")},
	{id: RuleXFOAllowFrom, header: "X-Frame-Options", match: contains("allow-from")},
	{id: RuleXPad, header: "X-Pad", match: present},
	{id: RuleXPermittedCDP, header: "X-Permitted-Cross-Domain-Policies", match: equals("all")},
	{id: RuleXPingback, header: "X-Pingback", match: func(v string, _ scan) (bool, string) {
		return strings.HasSuffix(v, "xmlrpc.php"), ""
	}},

	{id: RuleXRobotsUnknown, header: "X-Robots-Tag", match: func(v string, _ scan) (bool, string) {
		return !containsAny(v, robotsDirectives...), ""
	}},
	{id: RuleXRobotsAll, header: "X-Robots-Tag", match: contains("all")},

	{id: RuleXRuntime, header: "X-Runtime", match: present},
	{id: RuleXUACompatible, header: "X-UA-Compatible", match: present},
	{id: RuleXWebkitCSP, header: "X-Webkit-CSP", match: present},
	{id: RuleXWebkitCSPReportOnly, header: "X-Webkit-CSP-Report-Only", match: present},

	{id: RuleXXPEnabled, header: "X-XSS-Protection", match: func(v string, _ scan) (bool, string) {
		return !strings.Contains(v, "0"), ""
	}},
	{id: RuleXXPDuplicate, header: "X-XSS-Protection", match: contains(",")},
}

// InsecureRuleIDs returns the ids of the insecure/deprecated rules in
// evaluation order.
func InsecureRuleIDs() []string {
	ids := make([]string, len(insecureRules))
	for i, r := range insecureRules {
		ids[i] = r.id
	}
	return ids
}

func (e *Engine) insecure(s scan) []Finding {
	var findings []Finding
	for _, r := range insecureRules {
		value := ""
		if r.header != "" {
			if !s.set.Has(r.header) {
				continue
			}
			value = s.set.Value(r.header)
		}
		ok, evidence := r.match(value, s)
		if !ok {
			continue
		}
		header := r.header
		if name, present := s.set.Name(r.header); present {
			header = name
		}
		f := e.describe(r.id, CategoryInsecure, header)
		f.Evidence = evidence
		findings = append(findings, f)
	}
	return findings
}

func present(string, scan) (bool, string) {
	return true, ""
}

func overPlaintext(_ string, s scan) (bool, string) {
	return s.plaintext, ""
}

func contains(token string) predicate {
	return func(v string, _ scan) (bool, string) {
		return strings.Contains(v, token), ""
	}
}

func equals(want string) predicate {
	return func(v string, _ scan) (bool, string) {
		return v == want, ""
	}
}

func exposesMethods(v string, _ scan) (bool, string) {
	var matched []string
	for _, m := range riskyMethods {
		if strings.Contains(v, strings.ToLower(m)) {
			matched = append(matched, m)
		}
	}
	return len(matched) > 0, strings.Join(matched, ", ")
}

// weakSTS only applies to TLS URLs; over plaintext the header is ignored by
// browsers and reported by RuleSTSHTTP instead.
func weakSTS(v string, s scan) (bool, string) {
	if !s.tls {
		return false, ""
	}
	age, _ := parseMaxAge(v)
	return !containsAll(v, "includesubdomains", "max-age") || age < minSTSAge, ""
}

func containsAny(v string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(v, t) {
			return true
		}
	}
	return false
}

func containsAll(v string, tokens ...string) bool {
	for _, t := range tokens {
		if !strings.Contains(v, t) {
			return false
		}
	}
	return true
}

func matching(v string, tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if strings.Contains(v, t) {
			out = append(out, t)
		}
	}
	return out
}
