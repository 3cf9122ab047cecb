package cmd

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/selector"
)

// log is the process-wide logger. Off by default; --verbose enables it.
var log = logr.Discard()

// setupLogger installs a stderr logger at the requested verbosity.
// Verbosity 0 keeps logging off so command output stays machine-parseable.
func setupLogger(verbosity int) {
	if verbosity <= 0 {
		log = logr.Discard()
		return
	}
	log = funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(os.Stderr, args)
		}
	}, funcr.Options{Verbosity: verbosity})
}

// newProvider returns the platform backend bundle for the current OS.
func newProvider() (*platform.Provider, error) {
	return platform.NewProvider()
}

// elementInfo is a compact element representation shared by find/click/wait
// responses.
type elementInfo struct {
	Role        string `yaml:"r"           json:"r"`
	Title       string `yaml:"t,omitempty" json:"t,omitempty"`
	Value       string `yaml:"v,omitempty" json:"v,omitempty"`
	Description string `yaml:"d,omitempty" json:"d,omitempty"`
	Bounds      [4]int `yaml:"b"           json:"b"`
	Selector    string `yaml:"sel"         json:"sel"`
}

// elementInfoFromNode snapshots a live node. Attribute reads are
// best-effort; a node that vanishes mid-read yields a partial snapshot.
func elementInfoFromNode(n platform.Node) elementInfo {
	info := elementInfo{Selector: selector.Describe(n)}
	if v, err := n.Attr(platform.AttrRole); err == nil {
		info.Role = v
	}
	if v, err := n.Attr(platform.AttrTitle); err == nil {
		info.Title = v
	}
	if v, err := n.Attr(platform.AttrValue); err == nil {
		info.Value = v
	}
	if v, err := n.Attr(platform.AttrDescription); err == nil {
		info.Description = v
	}
	if b, err := n.Bounds(); err == nil {
		info.Bounds = [4]int{b.X, b.Y, b.Width, b.Height}
	}
	return info
}
