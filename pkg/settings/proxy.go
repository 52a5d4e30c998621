package settings

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-docstore"
)

// ProxyType selects how outbound requests reach the network.
type ProxyType int

const (
	ProxyTypeSystem ProxyType = iota
	ProxyTypeHTTP
	ProxyTypeSocks5
	ProxyTypeNone
)

var proxyTypeNames = docstore.NewEnumNames(map[ProxyType]string{
	ProxyTypeSystem: "System",
	ProxyTypeHTTP:   "Http",
	ProxyTypeSocks5: "Socks5",
	ProxyTypeNone:   "None",
})

func (p ProxyType) String() string                { return proxyTypeNames.Name(p) }
func (p ProxyType) MarshalText() ([]byte, error)  { return proxyTypeNames.MarshalText(p) }
func (p *ProxyType) UnmarshalText(b []byte) error { return proxyTypeNames.UnmarshalText(b, p) }

// DefaultBypassList skips the proxy for loopback and private ranges.
const DefaultBypassList = "localhost;127.*;10.*;192.168.*;172.16.*;172.17.*;172.18.*;172.19.*;172.20.*;" +
	"172.21.*;172.22.*;172.23.*;172.24.*;172.25.*;172.26.*;172.27.*;172.28.*;172.29.*;172.30.*;172.31.*"

// ProxySettings configures the outbound proxy. Field names are stored as-is.
type ProxySettings struct {
	IsEnabled                 bool
	ProxyType                 ProxyType
	ProxyAddress              string
	ProxyPort                 int `validate:"gte=0,lte=65535"`
	ProxyUsername             string
	ProxyPassword             string
	UseProxyForLocalAddresses bool
	BypassList                string
}

// SetDefaults applies the values of a fresh installation.
func (p *ProxySettings) SetDefaults() {
	*p = ProxySettings{
		IsEnabled:    true,
		ProxyType:    ProxyTypeSystem,
		ProxyAddress: "127.0.0.1",
		ProxyPort:    8080,
		BypassList:   DefaultBypassList,
	}
}

// Validate rejects explicit proxies without an address.
func (p ProxySettings) Validate() error {
	if p.ProxyType < ProxyTypeSystem || p.ProxyType > ProxyTypeNone {
		return fmt.Errorf("settings: unknown proxy type %d", int(p.ProxyType))
	}
	if p.IsEnabled && p.explicit() && strings.TrimSpace(p.ProxyAddress) == "" {
		return fmt.Errorf("settings: %s proxy requires an address", p.ProxyType)
	}
	return nil
}

// ProxyURI returns the proxy URI, or "" when the system proxy or no proxy
// applies.
func (p ProxySettings) ProxyURI() string {
	if !p.IsEnabled || !p.explicit() {
		return ""
	}
	scheme := "http"
	if p.ProxyType == ProxyTypeSocks5 {
		scheme = "socks5"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(p.ProxyAddress, strconv.Itoa(p.ProxyPort)),
	}
	if p.ProxyUsername != "" {
		u.User = url.UserPassword(p.ProxyUsername, p.ProxyPassword)
	}
	return u.String()
}

// Bypass splits BypassList into its patterns.
func (p ProxySettings) Bypass() []string {
	var out []string
	for _, pattern := range strings.Split(p.BypassList, ";") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			out = append(out, pattern)
		}
	}
	return out
}

func (p ProxySettings) explicit() bool {
	return p.ProxyType == ProxyTypeHTTP || p.ProxyType == ProxyTypeSocks5
}
