package car

import (
	"strings"

	"github.com/chaz8081/carctl/internal/ble"
)

// Default matching rules for Shell Racing Legends cars. The cars advertise
// names like "SL-993TURBO"; some firmware revisions advertise no name at all,
// in which case the address-substring rule acts as a MAC allowlist.
const (
	DefaultNamePrefix      = "SL-"
	DefaultAddressContains = ""
)

// Matcher decides whether an advertisement names the target vehicle. Either
// rule alone is sufficient; an empty rule never matches.
type Matcher struct {
	NamePrefix      string
	AddressContains string
}

// Matches reports whether adv identifies the target vehicle.
func (m Matcher) Matches(adv ble.Advertisement) bool {
	if m.NamePrefix != "" && adv.Name != "" && strings.HasPrefix(adv.Name, m.NamePrefix) {
		return true
	}
	if m.AddressContains != "" &&
		strings.Contains(strings.ToUpper(adv.Address), strings.ToUpper(m.AddressContains)) {
		return true
	}
	return false
}
