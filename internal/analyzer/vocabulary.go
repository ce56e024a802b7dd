package analyzer

// riskyMethods are HTTP verbs that should not be advertised without need.
var riskyMethods = []string{"PUT", "HEAD", "OPTIONS", "CONNECT", "TRACE", "TRACK", "DELETE", "DEBUG", "PATCH", "*"}

var cacheDirectives = []string{"no-cache", "no-store", "must-revalidate"}

var cspUnsafe = []string{"unsafe-eval", "unsafe-inline"}

var cspDirectives = []string{
	"base-uri", "child-src", "connect-src", "default-src", "font-src",
	"form-action", "frame-ancestors", "frame-src", "img-src", "manifest-src",
	"media-src", "navigate-to", "object-src", "prefetch-src", "report-to",
	"require-trusted-types-for", "sandbox", "script-src", "script-src-elem",
	"script-src-attr", "style-src", "style-src-elem", "style-src-attr",
	"trusted-types", "upgrade-insecure-requests", "worker-src",
}

var cspDeprecated = []string{"block-all-mixed-content", "plugin-types", "referrer", "report-uri", "require-sri-for"}

// cspAssignments are the tokens that legitimately carry '=' in a policy.
var cspAssignments = []string{"nonce", "sha", "style-src-elem", "report-to", "report-uri"}

var legacyJSTypes = []string{
	"application/javascript", "application/ecmascript",
	"application/x-ecmascript", "application/x-javascript",
	"text/ecmascript", "text/javascript1.0", "text/javascript1.1",
	"text/javascript1.2", "text/javascript1.3", "text/javascript1.4",
	"text/javascript1.5", "text/jscript", "text/livescript",
	"text/x-ecmascript", "text/x-javascript",
}

// permissionsFeatures per https://github.com/w3c/webappsec-permissions-policy/blob/main/features.md
var permissionsFeatures = []string{
	"accelerometer", "ambient-light-sensor", "autoplay", "battery",
	"bluetooth", "browsing-topics", "camera", "ch-ua", "ch-ua-arch",
	"ch-ua-bitness", "ch-ua-full-version", "ch-ua-full-version-list",
	"ch-ua-mobile", "ch-ua-model", "ch-ua-platform",
	"ch-ua-platform-version", "ch-ua-wow64", "clipboard-read",
	"clipboard-write", "conversion-measurement",
	"cross-origin-isolated", "display-capture", "document-access",
	"document-write", "encrypted-media",
	"execution-while-not-rendered",
	"execution-while-out-of-viewport",
	"focus-without-user-activation", "font-display-late-swap",
	"fullscreen", "gamepad", "geolocation", "gyroscope", "hid",
	"idle-detection", "interest-cohort", "keyboard-map",
	"layout-animations", "lazyload", "legacy-image-formats",
	"loading-frame-default-eager", "local-fonts", "magnetometer",
	"microphone", "midi", "navigation-override", "oversized-images",
	"payment", "picture-in-picture", "publickey-credentials-get",
	"screen-wake-lock", "serial", "shared-autofill", "speaker",
	"speaker-selection", "sync-script", "sync-xhr",
	"trust-token-redemption", "unload", "unoptimized-images",
	"unoptimized-lossless-images",
	"unoptimized-lossless-images-strict",
	"unoptimized-lossy-images", "unsized-media", "usb",
	"vertical-scroll", "vibrate", "wake-lock", "web-share",
	"window-placement", "xr-spatial-tracking",
}

var safeReferrerPolicies = []string{"strict-origin", "strict-origin-when-cross-origin", "no-referrer-when-downgrade", "no-referrer"}

// robotsDirectives per Google and Bing webmaster documentation.
var robotsDirectives = []string{
	"all", "indexifembedded", "max-image-preview", "max-snippet",
	"max-video-preview", "noarchive", "noodp", "nofollow",
	"noimageindex", "noindex", "none", "nositelinkssearchbox",
	"nosnippet", "notranslate", "noydir", "unavailable_after",
}

// minSTSAge is one year, in seconds.
const minSTSAge = 31536000
