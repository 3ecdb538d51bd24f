package frontier

import (
	"net/url"
	"strings"
)

// ScopeOptions widens the default same-host, same-folder crawl scope
type ScopeOptions struct {
	AllowSubdomains    bool
	AllowOutsideFolder bool
}

// BlockedExtensions never enter the HTML frontier
var BlockedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true, ".ico": true, ".bmp": true, ".avif": true,
	".pdf": true, ".zip": true, ".rar": true, ".gz": true, ".tar": true, ".7z": true, ".exe": true, ".dmg": true, ".apk": true,
	".mp4": true, ".mp3": true, ".avi": true, ".mov": true, ".wav": true, ".webm": true,
	".css": true, ".js": true, ".mjs": true, ".json": true, ".xml": true, ".txt": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

// DeniedSegments are session or account paths that can trigger side effects
var DeniedSegments = map[string]bool{
	"login": true, "logout": true, "signin": true, "signup": true, "register": true,
	"admin": true, "wp-admin": true, "wp-login.php": true,
	"cart": true, "checkout": true, "account": true, "my-account": true,
}

// Scope decides whether discovered links belong to the audit
type Scope struct {
	startHost string
	startPort string
	folder    string
	opts      ScopeOptions
}

func NewScope(startURL string, opts ScopeOptions) (*Scope, error) {
	u, err := ParseURL(startURL)
	if err != nil {
		return nil, err
	}
	return &Scope{
		startHost: HostKey(u.Host),
		startPort: explicitPort(u),
		folder:    startFolder(u.Path),
		opts:      opts,
	}, nil
}

// InScope is the one-shot form of Scope.InScope
func InScope(link, startURL string, opts ScopeOptions) bool {
	s, err := NewScope(startURL, opts)
	if err != nil {
		return false
	}
	return s.InScope(link)
}

func (s *Scope) InScope(link string) bool {
	u, err := ParseURL(link)
	if err != nil {
		return false
	}
	return s.InScopeURL(u)
}

// InScopeURL runs host, folder, extension and deny-list checks in that order
func (s *Scope) InScopeURL(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !s.hostAllowed(u) {
		return false
	}
	if !s.opts.AllowOutsideFolder && !s.inFolder(u.Path) {
		return false
	}
	if BlockedExtensions[ExtractFileExtension(u.Path)] {
		return false
	}
	return !hasDeniedSegment(u.Path)
}

func (s *Scope) hostAllowed(u *url.URL) bool {
	if explicitPort(u) != s.startPort {
		return false
	}
	h := HostKey(u.Host)
	if h == s.startHost {
		return true
	}
	return s.opts.AllowSubdomains && strings.HasSuffix(h, "."+s.startHost)
}

func (s *Scope) inFolder(p string) bool {
	if s.folder == "" {
		return true
	}
	return p == s.folder || strings.HasPrefix(p, s.folder+"/")
}

// explicitPort is the URL's port, empty when absent or the scheme default
func explicitPort(u *url.URL) string {
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return ""
	}
	return port
}

// startFolder turns /blog/, /blog and /blog/index.html into /blog
func startFolder(p string) string {
	if ExtractFileExtension(p) != "" {
		p = p[:strings.LastIndex(p, "/")+1]
	}
	return strings.TrimSuffix(p, "/")
}

func hasDeniedSegment(p string) bool {
	for _, seg := range strings.Split(strings.ToLower(p), "/") {
		if DeniedSegments[seg] {
			return true
		}
	}
	return false
}
