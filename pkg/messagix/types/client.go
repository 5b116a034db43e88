package types

import (
	"fmt"
)

// Platform selects which Facebook frontend the mercury endpoints are sent to.
// All of them accept the same forms, they only differ in host name.
type Platform int

const (
	Unset Platform = iota
	FacebookFree
	Facebook
	FacebookMBasic
	FacebookTor
)

func PlatformFromString(s string) Platform {
	switch s {
	case "free", "facebook-free":
		return FacebookFree
	case "facebook", "www":
		return Facebook
	case "mbasic", "facebook-mbasic":
		return FacebookMBasic
	case "facebook-tor", "tor":
		return FacebookTor
	default:
		return Unset
	}
}

func (p *Platform) UnmarshalText(data []byte) error {
	*p = PlatformFromString(string(data))
	if *p == Unset && len(data) > 0 {
		return fmt.Errorf("unknown platform %q", data)
	}
	return nil
}

func (p Platform) String() string {
	switch p {
	case FacebookFree:
		return "facebook-free"
	case Facebook:
		return "facebook"
	case FacebookMBasic:
		return "facebook-mbasic"
	case FacebookTor:
		return "facebook-tor"
	default:
		return ""
	}
}

func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Platform) IsValid() bool {
	return p == FacebookFree || p == Facebook || p == FacebookMBasic || p == FacebookTor
}
