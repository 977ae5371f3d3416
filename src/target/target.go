// Package target captures per-triple address-family widths and LLVM data
// layout strings (spec §4.8 Target Platform).
package target

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed triples.yaml
var triplesYAML []byte

// defaultTriple is used when the driver gives no explicit -target flag.
const defaultTriple = "x86_64-pc-linux-gnu"

// Platform describes one supported target triple's address-family widths
// and the LLVM data layout string emitted alongside it.
type Platform struct {
	Triple     string `yaml:"triple"`
	AddrBits   int    `yaml:"addr_bits"`   // width of uaddr/saddr
	LongBits   int    `yaml:"long_bits"`   // width of clong/culong
	WCharBits  int    `yaml:"wchar_bits"`  // width of cwchar
	DataLayout string `yaml:"data_layout"`
}

var registry map[string]Platform

func init() {
	var list []Platform
	if err := yaml.Unmarshal(triplesYAML, &list); err != nil {
		panic(fmt.Sprintf("target: malformed embedded triples.yaml: %s", err))
	}
	registry = make(map[string]Platform, len(list))
	for _, p := range list {
		registry[p.Triple] = p
	}
}

// Lookup returns the Platform for triple, or false if it is not one of the
// spec's named triples.
func Lookup(triple string) (Platform, bool) {
	p, ok := registry[triple]
	return p, ok
}

// Default returns the platform for defaultTriple (x86_64-pc-linux-gnu),
// used when no explicit `-target` is given. It does not detect the host
// this compiler runs on or was built for.
func Default() Platform {
	if p, ok := registry[defaultTriple]; ok {
		return p
	}
	// Every build of this package embeds a triples.yaml containing
	// defaultTriple; reaching here means the two have drifted apart.
	panic("target: default triple " + defaultTriple + " missing from triples.yaml")
}

// Triples returns every named triple's identifier, in no defined order.
func Triples() []string {
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	return out
}

// AddressWidthOf is a small convenience for the semantic analyzer and type
// registry, which bind `uaddr`/`saddr` widths from the active target
// platform rather than hardcoding them (spec §4.3 Type resolution).
func (p Platform) AddressWidthOf(typeName string) (bits int, ok bool) {
	switch typeName {
	case "uaddr", "saddr":
		return p.AddrBits, true
	case "clong", "culong":
		return p.LongBits, true
	case "cwchar":
		return p.WCharBits, true
	default:
		return 0, false
	}
}
